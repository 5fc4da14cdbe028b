//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
	"telegram-group-subscription/internal/usecase"
)

type sweepFixture struct {
	subs  *MockSubscriptionRepo
	users *MockUserRepo
	bot   *MockGroupBot
	uc    usecase.SweepUseCase
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	f := &sweepFixture{
		subs:  NewMockSubscriptionRepo(),
		users: NewMockUserRepo(),
		bot:   NewMockGroupBot(),
	}
	f.uc = usecase.NewSweepUseCase(
		f.subs, f.users, f.bot, keyLexicon{}, testGroupID,
		5*24*time.Hour, newTestLogger(),
	)
	return f
}

// seedActiveSub stores an active subscription ending endIn from now, for a
// fresh user with the given telegram id.
func (f *sweepFixture) seedActiveSub(t *testing.T, tgID int64, endIn time.Duration) *model.Subscription {
	t.Helper()
	ctx := context.Background()
	u, err := model.NewUser("", tgID, "Test User", "tester")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.users.Save(ctx, repository.NoTX, u); err != nil {
		t.Fatal(err)
	}
	sub, _ := model.NewPendingSubscription(u.ID, 1500, 30*24*time.Hour)
	sub.Status = model.SubscriptionStatusActive
	sub.EndDate = time.Now().Add(endIn)
	if err := f.subs.Save(ctx, repository.NoTX, sub); err != nil {
		t.Fatal(err)
	}
	return sub
}

func TestRevokeExpiredBansPastGrace(t *testing.T) {
	f := newSweepFixture(t)
	sub := f.seedActiveSub(t, 42, -6*24*time.Hour)

	n, err := f.uc.RevokeExpired(context.Background())
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if n != 1 {
		t.Errorf("revoked = %d, want 1", n)
	}
	if len(f.bot.Banned) != 1 || f.bot.Banned[0] != 42 {
		t.Errorf("banned = %v, want [42]", f.bot.Banned)
	}
	if got := f.subs.Get(sub.ID).Status; got != model.SubscriptionStatusExpired {
		t.Errorf("status = %s, want expired", got)
	}
	if len(f.bot.Sent) != 1 || !strings.Contains(f.bot.Sent[0].Text, "subscription.revoked") {
		t.Errorf("sent = %+v, want one revocation notice", f.bot.Sent)
	}
}

func TestRevokeExpiredHonorsGraceWindow(t *testing.T) {
	f := newSweepFixture(t)
	// Ended, but still inside the 5 day grace window.
	sub := f.seedActiveSub(t, 42, -2*24*time.Hour)

	n, err := f.uc.RevokeExpired(context.Background())
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if n != 0 {
		t.Errorf("revoked = %d, want 0", n)
	}
	if got := f.subs.Get(sub.ID).Status; got != model.SubscriptionStatusActive {
		t.Errorf("status = %s, want active", got)
	}
}

func TestRevokeExpiredBanFailureKeepsAccess(t *testing.T) {
	f := newSweepFixture(t)
	f.bot.BanErr = errors.New("user is an administrator")
	sub := f.seedActiveSub(t, 42, -6*24*time.Hour)

	n, err := f.uc.RevokeExpired(context.Background())
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if n != 0 {
		t.Errorf("revoked = %d, want 0", n)
	}
	// A row we could not ban stays active for the next run.
	if got := f.subs.Get(sub.ID).Status; got != model.SubscriptionStatusActive {
		t.Errorf("status = %s, want active", got)
	}
	if len(f.bot.Sent) != 0 {
		t.Error("sent a revocation notice without revoking")
	}
}

func TestRevokeExpiredMissingUserSkipsRow(t *testing.T) {
	f := newSweepFixture(t)
	sub := f.seedActiveSub(t, 42, -6*24*time.Hour)
	sub2, _ := model.NewPendingSubscription("no-such-user", 1500, 30*24*time.Hour)
	sub2.Status = model.SubscriptionStatusActive
	sub2.EndDate = time.Now().Add(-6 * 24 * time.Hour)
	if err := f.subs.Save(context.Background(), repository.NoTX, sub2); err != nil {
		t.Fatal(err)
	}

	n, err := f.uc.RevokeExpired(context.Background())
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if n != 1 {
		t.Errorf("revoked = %d, want 1", n)
	}
	if got := f.subs.Get(sub.ID).Status; got != model.SubscriptionStatusExpired {
		t.Errorf("status = %s, want expired", got)
	}
	if got := f.subs.Get(sub2.ID).Status; got != model.SubscriptionStatusActive {
		t.Errorf("orphan status = %s, want active", got)
	}
}

func TestSendWarningsTiers(t *testing.T) {
	cases := []struct {
		name    string
		endIn   time.Duration
		wantKey string
	}{
		{"grace", -1 * 24 * time.Hour, "warning.grace"},
		{"three days", 2 * 24 * time.Hour, "warning.days"},
		{"one week", 6 * 24 * time.Hour, "warning.week"},
		{"two weeks", 12 * 24 * time.Hour, "warning.two_weeks"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSweepFixture(t)
			f.seedActiveSub(t, 42, tc.endIn)

			n, err := f.uc.SendWarnings(context.Background())
			if err != nil {
				t.Fatalf("warnings: %v", err)
			}
			if n != 1 {
				t.Fatalf("sent = %d, want 1", n)
			}
			if !strings.Contains(f.bot.Sent[0].Text, tc.wantKey) {
				t.Errorf("text = %q, want %s", f.bot.Sent[0].Text, tc.wantKey)
			}
		})
	}
}

func TestSendWarningsSkipsFarFromExpiry(t *testing.T) {
	f := newSweepFixture(t)
	f.seedActiveSub(t, 42, 20*24*time.Hour)

	n, err := f.uc.SendWarnings(context.Background())
	if err != nil {
		t.Fatalf("warnings: %v", err)
	}
	if n != 0 || len(f.bot.Sent) != 0 {
		t.Errorf("sent = %d (%d messages), want none", n, len(f.bot.Sent))
	}
}

func TestSendWarningsAtMostOncePerDay(t *testing.T) {
	f := newSweepFixture(t)
	sub := f.seedActiveSub(t, 42, 2*24*time.Hour)

	if n, err := f.uc.SendWarnings(context.Background()); err != nil || n != 1 {
		t.Fatalf("first run: sent=%d err=%v", n, err)
	}
	if got := f.subs.Get(sub.ID).LastWarningSent; got == nil || !got.Equal(model.Day(time.Now())) {
		t.Fatalf("last warning day = %v, want today", got)
	}

	n, err := f.uc.SendWarnings(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n != 0 || len(f.bot.Sent) != 1 {
		t.Errorf("second run sent %d (%d total messages), want 0", n, len(f.bot.Sent))
	}
}

func TestSendWarningsSendFailureRetriesNextRun(t *testing.T) {
	f := newSweepFixture(t)
	f.bot.SendErr = errors.New("blocked by user")
	sub := f.seedActiveSub(t, 42, 2*24*time.Hour)

	n, err := f.uc.SendWarnings(context.Background())
	if err != nil {
		t.Fatalf("warnings: %v", err)
	}
	if n != 0 {
		t.Errorf("sent = %d, want 0", n)
	}
	if f.subs.Get(sub.ID).LastWarningSent != nil {
		t.Error("warning day recorded despite delivery failure")
	}
}
