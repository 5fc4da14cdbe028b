package usecase

import (
	"context"

	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase aggregates the numbers the admin panel shows.
type StatsUseCase interface {
	Totals(ctx context.Context) (users int, subsByStatus map[model.SubscriptionStatus]int, err error)
	// Revenue returns succeeded payment sums for week, month and year to date.
	Revenue(ctx context.Context) (week, month, year int64, err error)
}

type statsUC struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
}

func NewStatsUseCase(users repository.UserRepository, subs repository.SubscriptionRepository, payments repository.PaymentRepository) *statsUC {
	return &statsUC{users: users, subs: subs, payments: payments}
}

func (u *statsUC) Totals(ctx context.Context) (int, map[model.SubscriptionStatus]int, error) {
	users, err := u.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, err
	}
	byStatus, err := u.subs.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, err
	}
	return users, byStatus, nil
}

func (u *statsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	week, err := u.payments.SumSucceededByPeriod(ctx, repository.NoTX, "week")
	if err != nil {
		return 0, 0, 0, err
	}
	month, err := u.payments.SumSucceededByPeriod(ctx, repository.NoTX, "month")
	if err != nil {
		return 0, 0, 0, err
	}
	year, err := u.payments.SumSucceededByPeriod(ctx, repository.NoTX, "year")
	if err != nil {
		return 0, 0, 0, err
	}
	return week, month, year, nil
}
