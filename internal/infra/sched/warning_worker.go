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

const warningLockKey = "sweep_lock:warning"

// WarningWorker periodically sends expiry warnings to active subscribers.
// The per-day dedup lives in the use case; the worker only paces the runs.
type WarningWorker struct {
	interval time.Duration
	sweep    usecase.SweepUseCase
	locker   red.Locker
	log      *zerolog.Logger
}

func NewWarningWorker(interval time.Duration, sweep usecase.SweepUseCase, locker red.Locker, logger *zerolog.Logger) *WarningWorker {
	l := logger.With().Str("component", "WarningWorker").Logger()
	return &WarningWorker{
		interval: interval,
		sweep:    sweep,
		locker:   locker,
		log:      &l,
	}
}

func (w *WarningWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting warning worker")
	w.runSweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping warning worker")
			return ctx.Err()
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *WarningWorker) runSweep(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, warningLockKey, w.interval)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotAcquired) {
			metrics.IncSweepRun("warning", "skipped")
			return
		}
		metrics.IncSweepRun("warning", "error")
		w.log.Error().Err(err).Msg("warning sweep lock failed")
		return
	}
	defer func() { _ = w.locker.Unlock(ctx, warningLockKey, token) }()

	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	n, err := w.sweep.SendWarnings(runCtx)
	if err != nil {
		metrics.IncSweepRun("warning", "error")
		w.log.Error().Err(err).Msg("warning sweep failed")
		return
	}
	metrics.IncSweepRun("warning", "ok")
	if n > 0 {
		metrics.AddExpiryWarningsSent(n)
		w.log.Info().Int("count", n).Msg("expiry warnings sent")
	}
}
