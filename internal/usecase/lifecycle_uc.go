package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
	"telegram-group-subscription/internal/infra/metrics"
)

// Outcome is how a Confirm call resolved. Callers render user-facing
// acknowledgments from it but never re-derive state themselves.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeActivated
	OutcomeAlreadyProcessed
	OutcomeNotFound
	OutcomeOrphanedPayment
)

func (o Outcome) String() string {
	switch o {
	case OutcomeActivated:
		return "activated"
	case OutcomeAlreadyProcessed:
		return "already_processed"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeOrphanedPayment:
		return "orphaned_payment"
	default:
		return "unknown"
	}
}

// PaymentRef identifies a payment either by provider id (webhook, user poll)
// or by internal id (manual/admin path). Exactly one side is set.
type PaymentRef struct {
	GatewayID string
	PaymentID string
}

// Reconciler decides renewal-vs-fresh-grant for a just-activated
// subscription and dispatches the notification. Implemented by
// reconcilerUC; declared here so the lifecycle engine depends on the
// behavior only.
type Reconciler interface {
	Reconcile(ctx context.Context, sub *model.Subscription, p *model.Payment) error
}

// Compile-time check
var _ LifecycleUseCase = (*lifecycleUC)(nil)

// LifecycleUseCase is the single authority transitioning payments to
// succeeded and activating their subscriptions. All three confirmation
// triggers (webhook, poll, admin approval) converge on Confirm.
type LifecycleUseCase interface {
	Confirm(ctx context.Context, ref PaymentRef) (Outcome, error)
	// ApproveManual is the admin path: Confirm by internal id plus the
	// audit-trail verification mark.
	ApproveManual(ctx context.Context, paymentID string, adminTgID int64) (Outcome, error)
	// Reject closes a pending or manual_review payment without activation.
	Reject(ctx context.Context, paymentID string, adminTgID int64) error
}

type lifecycleUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	manuals  repository.ManualPaymentRepository
	tm       repository.TransactionManager
	rec      Reconciler
	term     time.Duration
	log      *zerolog.Logger
}

func NewLifecycleUseCase(
	payments repository.PaymentRepository,
	subs repository.SubscriptionRepository,
	manuals repository.ManualPaymentRepository,
	tm repository.TransactionManager,
	rec Reconciler,
	term time.Duration,
	logger *zerolog.Logger,
) *lifecycleUC {
	l := logger.With().Str("component", "LifecycleUC").Logger()
	return &lifecycleUC{
		payments: payments,
		subs:     subs,
		manuals:  manuals,
		tm:       tm,
		rec:      rec,
		term:     term,
		log:      &l,
	}
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// lockUser takes a per-user advisory lock for the rest of the transaction so
// two concurrent activations for the same user cannot interleave the
// supersede/cleanup steps. In-memory repositories used by tests carry no
// pgx.Tx and skip the lock.
func lockUser(ctx context.Context, tx repository.Tx, userID string) error {
	px, ok := tx.(pgx.Tx)
	if !ok {
		return nil
	}
	_, err := px.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hashToInt64(userID))
	return err
}

// Confirm marks the referenced payment succeeded and activates its
// subscription in one atomic unit of work. Re-delivery of a success signal
// for an already-succeeded payment is a no-op returning
// OutcomeAlreadyProcessed: the payment row is read under FOR UPDATE, so two
// racing calls cannot both pass the status check.
func (u *lifecycleUC) Confirm(ctx context.Context, ref PaymentRef) (Outcome, error) {
	var (
		outcome Outcome
		payment *model.Payment
		sub     *model.Subscription
	)

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		switch {
		case ref.GatewayID != "":
			payment, err = u.payments.FindByGatewayID(ctx, tx, ref.GatewayID)
		case ref.PaymentID != "":
			payment, err = u.payments.FindByID(ctx, tx, ref.PaymentID)
		default:
			return domain.ErrInvalidArgument
		}
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				outcome = OutcomeNotFound
				return nil
			}
			return err
		}

		if payment.Status == model.PaymentStatusSucceeded {
			outcome = OutcomeAlreadyProcessed
			return nil
		}
		if !payment.Status.CanTransitionTo(model.PaymentStatusSucceeded) {
			return domain.ErrInvalidTransition
		}

		if err := lockUser(ctx, tx, payment.UserID); err != nil {
			return err
		}

		now := time.Now()
		if err := u.payments.UpdateStatus(ctx, tx, payment.ID, model.PaymentStatusSucceeded, &now); err != nil {
			return err
		}
		payment.Status = model.PaymentStatusSucceeded
		payment.PaidAt = &now

		sub, err = u.subs.FindByID(ctx, tx, payment.SubscriptionID)
		if errors.Is(err, domain.ErrNotFound) {
			// Data-integrity anomaly. Commit the payment flip alone so the
			// signal is not re-processed, and leave the rest to an operator.
			outcome = OutcomeOrphanedPayment
			sub = nil
			return nil
		} else if err != nil {
			return err
		}

		// Supersede: at most one active subscription per user.
		actives, err := u.subs.FindOtherByUserAndStatus(ctx, tx, sub.UserID, sub.ID, model.SubscriptionStatusActive)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		for _, old := range actives {
			if err := u.subs.UpdateStatus(ctx, tx, old.ID, model.SubscriptionStatusExpired); err != nil {
				return err
			}
			u.log.Info().Str("subscription_id", old.ID).Str("user_id", sub.UserID).
				Msg("superseded old active subscription")
		}

		// Activate with a fresh term, regardless of the pending placeholder.
		sub.Status = model.SubscriptionStatusActive
		sub.StartDate = now
		sub.EndDate = now.Add(u.term)
		sub.AmountPaid = payment.Amount
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}

		// Garbage-collect stale in-flight attempts so they cannot be
		// confirmed later. Payments first, then their subscriptions.
		pending, err := u.subs.FindOtherByUserAndStatus(ctx, tx, sub.UserID, sub.ID, model.SubscriptionStatusPending)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		for _, stale := range pending {
			if err := u.payments.DeleteBySubscriptionID(ctx, tx, stale.ID); err != nil {
				return err
			}
			if err := u.subs.Delete(ctx, tx, stale.ID); err != nil {
				return err
			}
		}

		outcome = OutcomeActivated
		return nil
	})
	if err != nil {
		return OutcomeUnknown, err
	}

	switch outcome {
	case OutcomeActivated:
		metrics.IncPayment("succeeded")
		metrics.AddPaymentRevenue(payment.Currency, payment.Amount)
		metrics.IncSubscriptionActivated()
		u.log.Info().Str("payment_id", payment.ID).Str("subscription_id", sub.ID).
			Str("user_id", sub.UserID).Msg("payment confirmed, subscription activated")
		// Reconciliation runs outside the transaction: a notification
		// failure is recoverable, a lost activation is not.
		if rerr := u.rec.Reconcile(ctx, sub, payment); rerr != nil {
			u.log.Error().Err(rerr).Str("payment_id", payment.ID).
				Str("subscription_id", sub.ID).Str("user_id", sub.UserID).
				Msg("membership reconciliation failed after commit")
		}
	case OutcomeAlreadyProcessed:
		u.log.Info().Str("payment_id", payment.ID).Msg("payment already processed")
	case OutcomeNotFound:
		u.log.Warn().Str("gateway_id", ref.GatewayID).Str("payment_id", ref.PaymentID).
			Msg("payment record not found")
	case OutcomeOrphanedPayment:
		u.log.Error().Str("payment_id", payment.ID).Str("subscription_id", payment.SubscriptionID).
			Msg("payment has no linked subscription; needs operator follow-up")
	}
	return outcome, nil
}

func (u *lifecycleUC) ApproveManual(ctx context.Context, paymentID string, adminTgID int64) (Outcome, error) {
	outcome, err := u.Confirm(ctx, PaymentRef{PaymentID: paymentID})
	if err != nil {
		return outcome, err
	}
	if outcome == OutcomeActivated || outcome == OutcomeOrphanedPayment {
		if merr := u.manuals.MarkVerified(ctx, repository.NoTX, paymentID, adminTgID, time.Now()); merr != nil && !errors.Is(merr, domain.ErrNotFound) {
			u.log.Error().Err(merr).Str("payment_id", paymentID).Int64("admin_tg_id", adminTgID).
				Msg("failed to mark manual payment verified")
		}
	}
	return outcome, nil
}

func (u *lifecycleUC) Reject(ctx context.Context, paymentID string, adminTgID int64) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if !p.Status.CanTransitionTo(model.PaymentStatusRejected) {
			return domain.ErrInvalidTransition
		}
		if err := u.payments.UpdateStatus(ctx, tx, p.ID, model.PaymentStatusRejected, nil); err != nil {
			return err
		}
		if merr := u.manuals.MarkVerified(ctx, tx, p.ID, adminTgID, time.Now()); merr != nil && !errors.Is(merr, domain.ErrNotFound) {
			return merr
		}
		metrics.IncPayment("rejected")
		u.log.Info().Str("payment_id", p.ID).Int64("admin_tg_id", adminTgID).Msg("payment rejected")
		return nil
	})
}
