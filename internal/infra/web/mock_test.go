package web

import (
	"context"
	"sync"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
)

// --- Mock use cases ---

type mockStatsUC struct {
	Users       int
	ByStatus    map[model.SubscriptionStatus]int
	Week        int64
	Month       int64
	Year        int64
	TotalsError error
}

func (m *mockStatsUC) Totals(ctx context.Context) (int, map[model.SubscriptionStatus]int, error) {
	if m.TotalsError != nil {
		return 0, nil, m.TotalsError
	}
	return m.Users, m.ByStatus, nil
}

func (m *mockStatsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	return m.Week, m.Month, m.Year, nil
}

type mockSettingsUC struct {
	mu       sync.Mutex
	settings model.SystemSettings
	SetError error
}

func (m *mockSettingsUC) Get(ctx context.Context) (*model.SystemSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := m.settings
	return &cp, nil
}

func (m *mockSettingsUC) SetManualMode(ctx context.Context, enabled bool) (*model.SystemSettings, error) {
	if m.SetError != nil {
		return nil, m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.ManualPaymentEnabled = enabled
	cp := m.settings
	return &cp, nil
}

// --- Mock repositories (ports) ---

type mockManualRepo struct {
	repository.ManualPaymentRepository // Embed interface for forward compatibility
	rows                               []*model.ManualPayment
	ListError                          error
}

func (m *mockManualRepo) ListUnverified(ctx context.Context, tx repository.Tx, limit int) ([]*model.ManualPayment, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	if len(m.rows) > limit {
		return m.rows[:limit], nil
	}
	return m.rows, nil
}

type mockPaymentRepo struct {
	repository.PaymentRepository // Embed interface for forward compatibility
	byID                         map[string]*model.Payment
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}
