package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
)

var _ repository.SettingsRepository = (*settingsRepo)(nil)

// settingsRepo stores the single system_settings row (id fixed at 1).
type settingsRepo struct{ pool *pgxpool.Pool }

func NewSettingsRepo(pool *pgxpool.Pool) *settingsRepo {
	return &settingsRepo{pool: pool}
}

func (r *settingsRepo) Get(ctx context.Context, tx repository.Tx) (*model.SystemSettings, error) {
	const q = `SELECT manual_payment_enabled FROM system_settings WHERE id=1;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}

	s := &model.SystemSettings{}
	if err := row.Scan(&s.ManualPaymentEnabled); err != nil {
		if err == pgx.ErrNoRows {
			def := model.DefaultSystemSettings()
			if err := r.Save(ctx, tx, def); err != nil {
				return nil, err
			}
			return def, nil
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *settingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.SystemSettings) error {
	const q = `
INSERT INTO system_settings (id, manual_payment_enabled)
VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET manual_payment_enabled=$1;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ManualPaymentEnabled)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
