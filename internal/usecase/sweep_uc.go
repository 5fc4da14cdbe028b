package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ SweepUseCase = (*sweepUC)(nil)

// SweepUseCase holds the two periodic table walks. Both process rows
// independently: one bad row is logged and skipped, never aborting the rest
// of the sweep.
type SweepUseCase interface {
	// RevokeExpired bans and expires every active subscription whose end
	// date is older than the grace window. Returns how many were revoked.
	RevokeExpired(ctx context.Context) (int, error)
	// SendWarnings notifies users approaching expiry, at most once per
	// calendar day per subscription. Returns how many messages were sent.
	SendWarnings(ctx context.Context) (int, error)
}

type sweepUC struct {
	subs    repository.SubscriptionRepository
	users   repository.UserRepository
	bot     adapter.GroupBotAdapter
	lex     Lexicon
	groupID int64
	grace   time.Duration
	log     *zerolog.Logger
}

func NewSweepUseCase(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	bot adapter.GroupBotAdapter,
	lex Lexicon,
	groupID int64,
	grace time.Duration,
	logger *zerolog.Logger,
) *sweepUC {
	l := logger.With().Str("component", "SweepUC").Logger()
	return &sweepUC{
		subs:    subs,
		users:   users,
		bot:     bot,
		lex:     lex,
		groupID: groupID,
		grace:   grace,
		log:     &l,
	}
}

func (u *sweepUC) RevokeExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-u.grace)
	items, err := u.subs.FindActiveEndedBefore(ctx, repository.NoTX, cutoff)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	revoked := 0
	for _, sub := range items {
		user, err := u.users.FindByID(ctx, repository.NoTX, sub.UserID)
		if err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Str("user_id", sub.UserID).
				Msg("expiry sweep: user lookup failed")
			continue
		}
		// Banning can legitimately fail, e.g. for group administrators.
		if err := u.bot.Ban(ctx, u.groupID, user.TelegramID); err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Int64("tg_id", user.TelegramID).
				Msg("expiry sweep: ban failed")
			continue
		}
		if err := u.subs.UpdateStatus(ctx, repository.NoTX, sub.ID, model.SubscriptionStatusExpired); err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("expiry sweep: status update failed")
			continue
		}
		revoked++
		if _, err := u.bot.SendMessage(ctx, user.TelegramID, u.lex.T("subscription.revoked", graceDays(u.grace)), nil); err != nil {
			u.log.Debug().Err(err).Int64("tg_id", user.TelegramID).Msg("expiry sweep: notification failed")
		}
	}
	return revoked, nil
}

func (u *sweepUC) SendWarnings(ctx context.Context) (int, error) {
	items, err := u.subs.FindAllActive(ctx, repository.NoTX)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	now := time.Now()
	today := model.Day(now)
	sent := 0
	for _, sub := range items {
		if sub.LastWarningSent != nil && sub.LastWarningSent.Equal(today) {
			continue
		}

		daysLeft := sub.DaysLeft(now)
		var text string
		switch {
		case daysLeft <= 0:
			text = u.lex.T("warning.grace", graceDays(u.grace))
		case daysLeft <= 3:
			text = u.lex.T("warning.days", daysLeft)
		case daysLeft <= 7:
			text = u.lex.T("warning.week")
		case daysLeft <= 14:
			text = u.lex.T("warning.two_weeks")
		default:
			continue
		}

		user, err := u.users.FindByID(ctx, repository.NoTX, sub.UserID)
		if err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Str("user_id", sub.UserID).
				Msg("warning sweep: user lookup failed")
			continue
		}
		if _, err := u.bot.SendMessage(ctx, user.TelegramID, text, nil); err != nil {
			// Leave last_warning_sent untouched so the next run retries.
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Int64("tg_id", user.TelegramID).
				Msg("warning sweep: send failed")
			continue
		}
		if err := u.subs.SetLastWarningSent(ctx, repository.NoTX, sub.ID, today); err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("warning sweep: date update failed")
			continue
		}
		sent++
	}
	return sent, nil
}

func graceDays(d time.Duration) int { return int(d.Hours() / 24) }
