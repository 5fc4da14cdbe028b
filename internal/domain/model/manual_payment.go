package model

import (
	"time"

	"telegram-group-subscription/internal/domain"

	"github.com/google/uuid"
)

// ManualPayment is the evidentiary record of an offline payment claim.
// It is a read-only audit trail; the linked Payment.Status is authoritative.
type ManualPayment struct {
	ID          string // UUID
	PaymentID   string // ULID of the manual_review payment
	ProofFileID string // Telegram file id of the uploaded proof image/document
	SubmittedAt time.Time
	VerifiedAt  *time.Time
	VerifiedBy  *int64 // Telegram id of the deciding admin
}

func NewManualPayment(paymentID, proofFileID string) (*ManualPayment, error) {
	if paymentID == "" || proofFileID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &ManualPayment{
		ID:          uuid.NewString(),
		PaymentID:   paymentID,
		ProofFileID: proofFileID,
		SubmittedAt: time.Now(),
	}, nil
}
