package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

type UserUseCase interface {
	// Register returns the existing user or creates one on first contact.
	// The bool reports whether a new record was created.
	Register(ctx context.Context, tgID int64, fullName, username string) (*model.User, bool, error)
	FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	l := logger.With().Str("component", "UserUC").Logger()
	return &userUC{users: users, log: &l}
}

func (u *userUC) Register(ctx context.Context, tgID int64, fullName, username string) (*model.User, bool, error) {
	existing, err := u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	user, err := model.NewUser("", tgID, fullName, username)
	if err != nil {
		return nil, false, err
	}
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, false, err
	}
	u.log.Info().Int64("tg_id", tgID).Str("user_id", user.ID).Msg("new user registered")
	return user, true, nil
}

func (u *userUC) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	return u.users.CountUsers(ctx, repository.NoTX)
}
