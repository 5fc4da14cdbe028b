package repository

import (
	"context"

	"telegram-group-subscription/internal/domain/model"
)

type SettingsRepository interface {
	// Get returns the settings singleton, creating the default row if it
	// does not exist yet.
	Get(ctx context.Context, tx Tx) (*model.SystemSettings, error)
	Save(ctx context.Context, tx Tx, s *model.SystemSettings) error
}
