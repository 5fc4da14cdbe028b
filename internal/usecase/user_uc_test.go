//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/usecase"
)

func TestRegisterCreatesOnFirstContact(t *testing.T) {
	users := NewMockUserRepo()
	uc := usecase.NewUserUseCase(users, newTestLogger())
	ctx := context.Background()

	u, created, err := uc.Register(ctx, 42, "Test User", "tester")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !created {
		t.Error("first contact not reported as created")
	}
	if u.ID == "" || u.TelegramID != 42 {
		t.Errorf("user = %+v", u)
	}

	again, created, err := uc.Register(ctx, 42, "Renamed User", "tester")
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if created {
		t.Error("repeat contact reported as created")
	}
	if again.ID != u.ID {
		t.Errorf("repeat contact returned id %s, want %s", again.ID, u.ID)
	}
	if again.FullName != "Test User" {
		t.Errorf("full name = %q, repeat contact must not rewrite the record", again.FullName)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	uc := usecase.NewUserUseCase(NewMockUserRepo(), newTestLogger())

	if _, _, err := uc.Register(context.Background(), 0, "Test User", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero tg id err = %v, want ErrInvalidArgument", err)
	}
	if _, _, err := uc.Register(context.Background(), 42, "", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty name err = %v, want ErrInvalidArgument", err)
	}
}

func TestFindByTelegramIDUnknown(t *testing.T) {
	uc := usecase.NewUserUseCase(NewMockUserRepo(), newTestLogger())

	if _, err := uc.FindByTelegramID(context.Background(), 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
