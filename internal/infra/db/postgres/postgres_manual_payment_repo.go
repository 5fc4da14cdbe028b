package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
)

var _ repository.ManualPaymentRepository = (*manualPaymentRepo)(nil)

type manualPaymentRepo struct{ pool *pgxpool.Pool }

func NewManualPaymentRepo(pool *pgxpool.Pool) *manualPaymentRepo {
	return &manualPaymentRepo{pool: pool}
}

func (r *manualPaymentRepo) Save(ctx context.Context, tx repository.Tx, mp *model.ManualPayment) error {
	const q = `
INSERT INTO manual_payments (id, payment_id, proof_file_id, submitted_at, verified_at, verified_by)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  proof_file_id=$3, verified_at=$5, verified_by=$6;`

	_, err := execSQL(ctx, r.pool, tx, q, mp.ID, mp.PaymentID, mp.ProofFileID, mp.SubmittedAt, mp.VerifiedAt, mp.VerifiedBy)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *manualPaymentRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.ManualPayment, error) {
	const q = `
SELECT id, payment_id, proof_file_id, submitted_at, verified_at, verified_by
  FROM manual_payments
 WHERE payment_id=$1
 ORDER BY submitted_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}

	mp := &model.ManualPayment{}
	if err := row.Scan(&mp.ID, &mp.PaymentID, &mp.ProofFileID, &mp.SubmittedAt, &mp.VerifiedAt, &mp.VerifiedBy); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return mp, nil
}

func (r *manualPaymentRepo) MarkVerified(ctx context.Context, tx repository.Tx, paymentID string, adminTgID int64, at time.Time) error {
	const q = `UPDATE manual_payments SET verified_at=$2, verified_by=$3 WHERE payment_id=$1 AND verified_at IS NULL;`
	_, err := execSQL(ctx, r.pool, tx, q, paymentID, at, adminTgID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *manualPaymentRepo) ListUnverified(ctx context.Context, tx repository.Tx, limit int) ([]*model.ManualPayment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, payment_id, proof_file_id, submitted_at, verified_at, verified_by
  FROM manual_payments
 WHERE verified_at IS NULL
 ORDER BY submitted_at ASC
 LIMIT $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.ManualPayment
	for rows.Next() {
		mp := new(model.ManualPayment)
		if err := rows.Scan(&mp.ID, &mp.PaymentID, &mp.ProofFileID, &mp.SubmittedAt, &mp.VerifiedAt, &mp.VerifiedBy); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
