package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/domain/ports/repository"
)

// Lexicon resolves user-facing message keys; satisfied by i18n.Translator.
type Lexicon interface {
	T(key string, args ...interface{}) string
}

// Compile-time check
var _ Reconciler = (*reconcilerUC)(nil)

// reconcilerUC decides, from current group membership, whether an activation
// is a renewal (already a member, no new invite) or a fresh grant (unban +
// single-use invite link). Runs after the financial transaction has
// committed; every failure here is recoverable and must never undo it.
type reconcilerUC struct {
	subs      repository.SubscriptionRepository
	users     repository.UserRepository
	bot       adapter.GroupBotAdapter
	lex       Lexicon
	groupID   int64
	inviteTTL time.Duration
	log       *zerolog.Logger
}

func NewReconcilerUseCase(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	bot adapter.GroupBotAdapter,
	lex Lexicon,
	groupID int64,
	inviteTTL time.Duration,
	logger *zerolog.Logger,
) *reconcilerUC {
	l := logger.With().Str("component", "ReconcilerUC").Logger()
	return &reconcilerUC{
		subs:      subs,
		users:     users,
		bot:       bot,
		lex:       lex,
		groupID:   groupID,
		inviteTTL: inviteTTL,
		log:       &l,
	}
}

func (r *reconcilerUC) Reconcile(ctx context.Context, sub *model.Subscription, p *model.Payment) error {
	user, err := r.users.FindByID(ctx, repository.NoTX, sub.UserID)
	if err != nil {
		return fmt.Errorf("reconcile: load user %s: %w", sub.UserID, err)
	}

	status, err := r.bot.GetMembership(ctx, r.groupID, user.TelegramID)
	if err != nil {
		// Unknown membership is treated as not-a-member: issuing a spare
		// invite is harmless, a missed grant is not.
		r.log.Warn().Err(err).Int64("tg_id", user.TelegramID).Msg("membership query failed, assuming non-member")
		status = adapter.MembershipUnknown
	}

	if status.IsMember() {
		return r.deliver(ctx, user.TelegramID, p.BotMessageID,
			r.lex.T("subscription.renewed", sub.EndDate.Format("02.01.2006")), nil)
	}

	// Returning users may still be banned from a previous revocation.
	// "Was never banned" errors are expected and swallowed.
	if err := r.bot.Unban(ctx, r.groupID, user.TelegramID); err != nil {
		r.log.Debug().Err(err).Int64("tg_id", user.TelegramID).Msg("unban skipped")
	}

	// Invite validity is a bounded grace window, deliberately shorter than
	// the subscription term, so unused links cannot be stockpiled.
	link, err := r.bot.CreateInviteLink(ctx, r.groupID, time.Now().Add(r.inviteTTL))
	if err != nil {
		return fmt.Errorf("reconcile: create invite for user %s: %w", sub.UserID, err)
	}
	if err := r.subs.SetInviteLink(ctx, repository.NoTX, sub.ID, link); err != nil {
		// The user still gets the link; only the stored copy is missing.
		r.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to persist invite link")
	}

	rows := [][]adapter.InlineButton{{{Text: r.lex.T("subscription.join_button"), URL: link}}}
	inviteDays := int(r.inviteTTL / (24 * time.Hour))
	return r.deliver(ctx, user.TelegramID, p.BotMessageID, r.lex.T("subscription.activated_invite", inviteDays), rows)
}

func (r *reconcilerUC) deliver(ctx context.Context, tgID int64, messageID *int, text string, rows [][]adapter.InlineButton) error {
	if messageID != nil {
		return r.bot.EditMessage(ctx, tgID, *messageID, text, rows)
	}
	_, err := r.bot.SendMessage(ctx, tgID, text, rows)
	return err
}
