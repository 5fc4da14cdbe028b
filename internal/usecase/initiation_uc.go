package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/domain/ports/repository"
	"telegram-group-subscription/internal/infra/metrics"
)

// Compile-time check
var _ InitiationUseCase = (*initiationUC)(nil)

// InitiationUseCase creates the pending subscription/payment pair for a new
// payment attempt. Which branch runs is decided by the caller after reading
// SystemSettings (gateway vs manual mode).
type InitiationUseCase interface {
	// StartGatewayPayment registers the payment with the provider and
	// returns the payment plus the confirmation URL for the user.
	StartGatewayPayment(ctx context.Context, userID string, amount int64) (*model.Payment, string, error)
	// SubmitManualProof records an offline payment claim awaiting an admin
	// verdict.
	SubmitManualProof(ctx context.Context, userID string, amount int64, proofFileID string) (*model.Payment, error)
	// AttachBotMessage remembers which bot message to edit in place once the
	// payment resolves.
	AttachBotMessage(ctx context.Context, paymentID string, messageID int) error
}

type initiationUC struct {
	subs      repository.SubscriptionRepository
	payments  repository.PaymentRepository
	manuals   repository.ManualPaymentRepository
	gateway   adapter.PaymentGateway
	minAmount int64
	currency  string
	term      time.Duration
	log       *zerolog.Logger
}

func NewInitiationUseCase(
	subs repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	manuals repository.ManualPaymentRepository,
	gateway adapter.PaymentGateway,
	minAmount int64,
	currency string,
	term time.Duration,
	logger *zerolog.Logger,
) *initiationUC {
	l := logger.With().Str("component", "InitiationUC").Logger()
	return &initiationUC{
		subs:      subs,
		payments:  payments,
		manuals:   manuals,
		gateway:   gateway,
		minAmount: minAmount,
		currency:  currency,
		term:      term,
		log:       &l,
	}
}

func (u *initiationUC) StartGatewayPayment(ctx context.Context, userID string, amount int64) (*model.Payment, string, error) {
	if amount < u.minAmount {
		return nil, "", domain.ErrAmountTooSmall
	}

	sub, err := model.NewPendingSubscription(userID, amount, u.term)
	if err != nil {
		return nil, "", err
	}
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, "", err
	}

	// Unique per attempt: a client retry creates a new pending pair rather
	// than a duplicate charge on an old key.
	idemKey := uuid.NewString()
	created, err := u.gateway.Create(ctx, amount, u.currency,
		fmt.Sprintf("Group subscription for %d days", int(u.term.Hours()/24)),
		map[string]string{"subscription_id": sub.ID, "user_id": userID},
		idemKey,
	)
	if err != nil {
		// The pending subscription stays behind; the next successful
		// activation's cleanup step collects it.
		u.log.Warn().Err(err).Str("user_id", userID).Str("subscription_id", sub.ID).
			Msg("gateway create failed, pending subscription left for cleanup")
		return nil, "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	now := time.Now()
	p := &model.Payment{
		ID:             model.NewPaymentID(),
		GatewayID:      &created.ExternalID,
		UserID:         userID,
		SubscriptionID: sub.ID,
		Amount:         amount,
		Currency:       u.currency,
		Status:         model.PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, "", err
	}
	metrics.IncPayment("initiated")
	u.log.Info().Str("payment_id", p.ID).Str("gateway_id", created.ExternalID).
		Str("user_id", userID).Int64("amount", amount).Msg("gateway payment initiated")
	return p, created.ConfirmationURL, nil
}

func (u *initiationUC) SubmitManualProof(ctx context.Context, userID string, amount int64, proofFileID string) (*model.Payment, error) {
	if amount < u.minAmount {
		return nil, domain.ErrAmountTooSmall
	}

	sub, err := model.NewPendingSubscription(userID, amount, u.term)
	if err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Payment{
		ID:             model.NewPaymentID(),
		UserID:         userID,
		SubscriptionID: sub.ID,
		Amount:         amount,
		Currency:       u.currency,
		Status:         model.PaymentStatusManualReview,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}

	mp, err := model.NewManualPayment(p.ID, proofFileID)
	if err != nil {
		return nil, err
	}
	if err := u.manuals.Save(ctx, repository.NoTX, mp); err != nil {
		return nil, err
	}
	metrics.IncPayment("manual_review")
	u.log.Info().Str("payment_id", p.ID).Str("user_id", userID).Int64("amount", amount).
		Msg("manual payment proof submitted")
	return p, nil
}

func (u *initiationUC) AttachBotMessage(ctx context.Context, paymentID string, messageID int) error {
	return u.payments.SetBotMessageID(ctx, repository.NoTX, paymentID, messageID)
}
