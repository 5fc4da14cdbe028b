package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ SettingsUseCase = (*settingsUC)(nil)

// SettingsUseCase reads and toggles the payment-mode singleton. Reads go
// through the repository on every initiation so concurrent toggles behave
// consistently.
type SettingsUseCase interface {
	Get(ctx context.Context) (*model.SystemSettings, error)
	SetManualMode(ctx context.Context, enabled bool) (*model.SystemSettings, error)
}

type settingsUC struct {
	settings repository.SettingsRepository
	log      *zerolog.Logger
}

func NewSettingsUseCase(settings repository.SettingsRepository, logger *zerolog.Logger) *settingsUC {
	l := logger.With().Str("component", "SettingsUC").Logger()
	return &settingsUC{settings: settings, log: &l}
}

func (u *settingsUC) Get(ctx context.Context) (*model.SystemSettings, error) {
	return u.settings.Get(ctx, repository.NoTX)
}

func (u *settingsUC) SetManualMode(ctx context.Context, enabled bool) (*model.SystemSettings, error) {
	s, err := u.settings.Get(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	s.ManualPaymentEnabled = enabled
	if err := u.settings.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	u.log.Info().Bool("manual_payment_enabled", enabled).Msg("payment mode changed")
	return s, nil
}
