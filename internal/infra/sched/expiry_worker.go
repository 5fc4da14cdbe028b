package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/infra/metrics"
	red "telegram-group-subscription/internal/infra/redis"
	"telegram-group-subscription/internal/usecase"
)

const expiryLockKey = "sweep_lock:expiry"

// ExpiryWorker periodically revokes subscriptions past their grace window.
// A Redis lock keeps multiple instances from sweeping concurrently.
type ExpiryWorker struct {
	interval time.Duration
	sweep    usecase.SweepUseCase
	locker   red.Locker
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, sweep usecase.SweepUseCase, locker red.Locker, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		sweep:    sweep,
		locker:   locker,
		log:      &l,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	// Run once on startup, then on every tick
	w.runSweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *ExpiryWorker) runSweep(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, expiryLockKey, w.interval)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotAcquired) {
			metrics.IncSweepRun("expiry", "skipped")
			return
		}
		metrics.IncSweepRun("expiry", "error")
		w.log.Error().Err(err).Msg("expiry sweep lock failed")
		return
	}
	defer func() { _ = w.locker.Unlock(ctx, expiryLockKey, token) }()

	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	n, err := w.sweep.RevokeExpired(runCtx)
	if err != nil {
		metrics.IncSweepRun("expiry", "error")
		w.log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	metrics.IncSweepRun("expiry", "ok")
	if n > 0 {
		metrics.AddSubscriptionsRevoked(n)
		w.log.Info().Int("count", n).Msg("subscriptions revoked")
	}
}
