package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type PaymentStatus string

const (
	PaymentStatusPending      PaymentStatus = "pending"       // awaiting gateway confirmation
	PaymentStatusSucceeded    PaymentStatus = "succeeded"     // confirmed; immutable thereafter
	PaymentStatusManualReview PaymentStatus = "manual_review" // offline proof awaiting an admin verdict
	PaymentStatusRejected     PaymentStatus = "rejected"
)

// CanTransitionTo reports whether moving to next is a legal forward step.
// succeeded is terminal; rejection is only possible before success.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusSucceeded || next == PaymentStatusRejected
	case PaymentStatusManualReview:
		return next == PaymentStatusSucceeded || next == PaymentStatusRejected
	default:
		return false
	}
}

// Payment records one payment attempt tied to exactly one subscription.
type Payment struct {
	ID             string  // ULID, sortable by creation time
	GatewayID      *string // provider payment id; nil for manual payments
	UserID         string  // UUID of user
	SubscriptionID string  // UUID of the pending subscription this pays for
	Amount         int64   // whole currency units
	Currency       string
	Status         PaymentStatus
	// BotMessageID is the bot message shown to the user at initiation time,
	// edited in place once the payment resolves.
	BotMessageID *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PaidAt       *time.Time
}

// NewPaymentID mints a ULID so payment ids order chronologically in listings.
func NewPaymentID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
