package repository

import (
	"context"
	"time"

	"telegram-group-subscription/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	// FindByID and FindByGatewayID lock the row (SELECT ... FOR UPDATE) when
	// called inside a transaction, so the lifecycle engine's check-then-set
	// on Status is serialized per payment.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByGatewayID(ctx context.Context, tx Tx, gatewayID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus, paidAt *time.Time) error
	SetBotMessageID(ctx context.Context, tx Tx, id string, messageID int) error
	// DeleteBySubscriptionID removes payment rows tied to a pending
	// subscription being garbage-collected.
	DeleteBySubscriptionID(ctx context.Context, tx Tx, subscriptionID string) error
	// SumSucceededByPeriod sums succeeded payment amounts since the start of
	// the given date_trunc period ("week", "month", "year").
	SumSucceededByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
