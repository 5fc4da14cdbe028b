//go:build !integration

package model_test

import (
	"errors"
	"testing"
	"time"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
)

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from model.PaymentStatus
		to   model.PaymentStatus
		ok   bool
	}{
		{model.PaymentStatusPending, model.PaymentStatusSucceeded, true},
		{model.PaymentStatusPending, model.PaymentStatusRejected, true},
		{model.PaymentStatusPending, model.PaymentStatusManualReview, false},
		{model.PaymentStatusManualReview, model.PaymentStatusSucceeded, true},
		{model.PaymentStatusManualReview, model.PaymentStatusRejected, true},
		{model.PaymentStatusManualReview, model.PaymentStatusPending, false},
		{model.PaymentStatusSucceeded, model.PaymentStatusRejected, false},
		{model.PaymentStatusSucceeded, model.PaymentStatusPending, false},
		{model.PaymentStatusRejected, model.PaymentStatusSucceeded, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestNewPendingSubscription(t *testing.T) {
	sub, err := model.NewPendingSubscription("user-1", 1500, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if sub.ID == "" {
		t.Error("missing id")
	}
	if sub.Status != model.SubscriptionStatusPending {
		t.Errorf("status = %s, want pending", sub.Status)
	}
	if sub.AmountPaid != 1500 {
		t.Errorf("amount = %d, want 1500", sub.AmountPaid)
	}
	if !sub.EndDate.After(sub.StartDate) {
		t.Error("end date not after start date")
	}

	for _, tc := range []struct {
		name   string
		userID string
		amount int64
		term   time.Duration
	}{
		{"empty user", "", 1500, 30 * 24 * time.Hour},
		{"zero amount", "user-1", 0, 30 * 24 * time.Hour},
		{"negative amount", "user-1", -5, 30 * 24 * time.Hour},
		{"zero term", "user-1", 1500, 0},
	} {
		if _, err := model.NewPendingSubscription(tc.userID, tc.amount, tc.term); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("%s: err = %v, want ErrInvalidArgument", tc.name, err)
		}
	}
}

func TestDaysLeftCountsCalendarDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	sub := &model.Subscription{EndDate: time.Date(2026, 3, 13, 0, 15, 0, 0, time.UTC)}

	// 23:30 on the 10th to 00:15 on the 13th is still three calendar days.
	if got := sub.DaysLeft(now); got != 3 {
		t.Errorf("days left = %d, want 3", got)
	}

	sub.EndDate = time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	if got := sub.DaysLeft(now); got != 0 {
		t.Errorf("same-day days left = %d, want 0", got)
	}

	sub.EndDate = time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	if got := sub.DaysLeft(now); got != -2 {
		t.Errorf("past days left = %d, want -2", got)
	}
}

func TestDayTruncatesToUTCDate(t *testing.T) {
	// 23:59 MSK is 20:59 UTC, still March 10th in UTC.
	in := time.Date(2026, 3, 10, 23, 59, 59, 0, time.FixedZone("MSK", 3*3600))
	got := model.Day(in)
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
	if got.Year() != 2026 || got.Month() != 3 || got.Day() != 10 {
		t.Errorf("day = %v, want 2026-03-10", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Errorf("time of day = %v, want midnight", got)
	}
}

func TestNewUserValidation(t *testing.T) {
	u, err := model.NewUser("", 42, "Test User", "tester")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if u.ID == "" {
		t.Error("missing generated id")
	}

	u2, err := model.NewUser("fixed-id", 42, "Test User", "")
	if err != nil {
		t.Fatalf("new with id: %v", err)
	}
	if u2.ID != "fixed-id" {
		t.Errorf("id = %s, want fixed-id", u2.ID)
	}

	if _, err := model.NewUser("", 0, "Test User", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero tg id err = %v, want ErrInvalidArgument", err)
	}
	if _, err := model.NewUser("", 42, "", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty name err = %v, want ErrInvalidArgument", err)
	}
}

func TestNewManualPaymentValidation(t *testing.T) {
	mp, err := model.NewManualPayment("pay-1", "file-1")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if mp.ID == "" || mp.SubmittedAt.IsZero() {
		t.Errorf("manual payment = %+v", mp)
	}
	if mp.VerifiedAt != nil || mp.VerifiedBy != nil {
		t.Error("fresh claim already verified")
	}

	if _, err := model.NewManualPayment("", "file-1"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty payment id err = %v, want ErrInvalidArgument", err)
	}
	if _, err := model.NewManualPayment("pay-1", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty proof err = %v, want ErrInvalidArgument", err)
	}
}

func TestPaymentIDsAreSortableByTime(t *testing.T) {
	a := model.NewPaymentID()
	time.Sleep(2 * time.Millisecond)
	b := model.NewPaymentID()
	if !(a < b) {
		t.Errorf("ids not chronologically ordered: %s >= %s", a, b)
	}
}
