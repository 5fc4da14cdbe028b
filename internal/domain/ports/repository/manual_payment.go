package repository

import (
	"context"
	"time"

	"telegram-group-subscription/internal/domain/model"
)

type ManualPaymentRepository interface {
	Save(ctx context.Context, tx Tx, mp *model.ManualPayment) error
	FindByPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.ManualPayment, error)
	// MarkVerified records the deciding admin and time on the audit row.
	MarkVerified(ctx context.Context, tx Tx, paymentID string, adminTgID int64, at time.Time) error
	// ListUnverified returns audit rows not yet decided, oldest first.
	ListUnverified(ctx context.Context, tx Tx, limit int) ([]*model.ManualPayment, error)
}
