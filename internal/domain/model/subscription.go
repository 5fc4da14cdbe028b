package model

import (
	"time"

	"telegram-group-subscription/internal/domain"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending SubscriptionStatus = "pending" // scaffolding for an in-flight payment
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// Subscription is a single membership term for the managed group.
//
// Invariant: a user has at most one active subscription at a time. The
// lifecycle engine enforces this by expiring every other active row when a
// new one activates. Pending rows are transient and garbage-collected once
// superseded.
type Subscription struct {
	ID         string // UUID
	UserID     string // UUID of user
	StartDate  time.Time
	EndDate    time.Time
	Status     SubscriptionStatus
	AmountPaid int64 // whole currency units
	InviteLink *string
	// LastWarningSent is the calendar day (UTC date, zero time-of-day) the
	// expiry-warning sweep last messaged this user. Nil until the first warning.
	LastWarningSent *time.Time
	CreatedAt       time.Time
}

// NewPendingSubscription creates the pending row that payment initiation
// persists before any money moves. EndDate is a placeholder; activation
// resets both dates.
func NewPendingSubscription(userID string, amount int64, term time.Duration) (*Subscription, error) {
	if userID == "" || amount <= 0 || term <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:         uuid.NewString(),
		UserID:     userID,
		StartDate:  now,
		EndDate:    now.Add(term),
		Status:     SubscriptionStatusPending,
		AmountPaid: amount,
		CreatedAt:  now,
	}, nil
}

// DaysLeft is the whole calendar days between today and the end date,
// negative once the end date has passed.
func (s *Subscription) DaysLeft(now time.Time) int {
	today := Day(now)
	endDay := Day(s.EndDate)
	return int(endDay.Sub(today).Hours() / 24)
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
