package repository

import (
	"context"

	"telegram-group-subscription/internal/domain/model"
)

type UserRepository interface {
	// Save inserts or updates a user keyed by id.
	Save(ctx context.Context, tx Tx, user *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByTelegramID(ctx context.Context, tx Tx, telegramID int64) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
