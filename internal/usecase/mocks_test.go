//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// keyLexicon renders every message as its key plus the formatted args, so
// tests can assert which message went out without locale files.
type keyLexicon struct{}

func (keyLexicon) T(key string, args ...interface{}) string {
	if len(args) == 0 {
		return key
	}
	return key + fmt.Sprint(args...)
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User
	byTG map[int64]*model.User

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}, byTG: map[int64]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.byID[cp.ID] = &cp
	r.byTG[cp.TelegramID] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byTG[tgID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Subscription

	SaveFunc          func(ctx context.Context, tx repository.Tx, sub *model.Subscription) error
	SetInviteLinkFunc func(ctx context.Context, tx repository.Tx, id, link string) error
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{byID: map[string]*model.Subscription{}}
}

func (r *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, sub)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.UserID == userID && s.Status == model.SubscriptionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) FindOtherByUserAndStatus(ctx context.Context, tx repository.Tx, userID, excludeID string, status model.SubscriptionStatus) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.byID {
		if s.UserID == userID && s.ID != excludeID && s.Status == status {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubscriptionRepo) FindActiveEndedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.byID {
		if s.Status == model.SubscriptionStatusActive && s.EndDate.Before(cutoff) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubscriptionRepo) FindAllActive(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.byID {
		if s.Status == model.SubscriptionStatusActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockSubscriptionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.SubscriptionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	return nil
}

func (r *MockSubscriptionRepo) SetInviteLink(ctx context.Context, tx repository.Tx, id, link string) error {
	if r.SetInviteLinkFunc != nil {
		return r.SetInviteLinkFunc(ctx, tx, id, link)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.InviteLink = &link
	return nil
}

func (r *MockSubscriptionRepo) SetLastWarningSent(ctx context.Context, tx repository.Tx, id string, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.LastWarningSent = &day
	return nil
}

func (r *MockSubscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[model.SubscriptionStatus]int)
	for _, s := range r.byID {
		counts[s.Status]++
	}
	return counts, nil
}

// Get returns the stored row without copying, for test assertions.
func (r *MockSubscriptionRepo) Get(id string) *model.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Payment
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{byID: map[string]*model.Payment{}}
}

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) FindByGatewayID(ctx context.Context, tx repository.Tx, gatewayID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.GatewayID != nil && *p.GatewayID == gatewayID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, paidAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (r *MockPaymentRepo) SetBotMessageID(ctx context.Context, tx repository.Tx, id string, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.BotMessageID = &messageID
	return nil
}

func (r *MockPaymentRepo) DeleteBySubscriptionID(ctx context.Context, tx repository.Tx, subscriptionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.byID {
		if p.SubscriptionID == subscriptionID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *MockPaymentRepo) SumSucceededByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, p := range r.byID {
		if p.Status == model.PaymentStatusSucceeded {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (r *MockPaymentRepo) Get(id string) *model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// ---- Mock ManualPaymentRepository ----

type MockManualPaymentRepo struct {
	mu        sync.Mutex
	byPayment map[string]*model.ManualPayment
}

var _ repository.ManualPaymentRepository = (*MockManualPaymentRepo)(nil)

func NewMockManualPaymentRepo() *MockManualPaymentRepo {
	return &MockManualPaymentRepo{byPayment: map[string]*model.ManualPayment{}}
}

func (r *MockManualPaymentRepo) Save(ctx context.Context, tx repository.Tx, mp *model.ManualPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *mp
	r.byPayment[cp.PaymentID] = &cp
	return nil
}

func (r *MockManualPaymentRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.ManualPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mp, ok := r.byPayment[paymentID]; ok {
		cp := *mp
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockManualPaymentRepo) MarkVerified(ctx context.Context, tx repository.Tx, paymentID string, adminTgID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mp, ok := r.byPayment[paymentID]
	if !ok {
		return domain.ErrNotFound
	}
	if mp.VerifiedAt == nil {
		mp.VerifiedAt = &at
		mp.VerifiedBy = &adminTgID
	}
	return nil
}

func (r *MockManualPaymentRepo) ListUnverified(ctx context.Context, tx repository.Tx, limit int) ([]*model.ManualPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ManualPayment
	for _, mp := range r.byPayment {
		if mp.VerifiedAt == nil {
			cp := *mp
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockManualPaymentRepo) Get(paymentID string) *model.ManualPayment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byPayment[paymentID]
}

// ---- Mock SettingsRepository ----

type MockSettingsRepo struct {
	mu       sync.Mutex
	settings model.SystemSettings
}

var _ repository.SettingsRepository = (*MockSettingsRepo)(nil)

func (r *MockSettingsRepo) Get(ctx context.Context, tx repository.Tx) (*model.SystemSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.settings
	return &cp, nil
}

func (r *MockSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.SystemSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = *s
	return nil
}

// ---- Mock TransactionManager ----

// MockTxManager runs the callback directly. The nil tx makes repositories
// take their non-transactional path and the advisory lock a no-op.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(ctx, nil)
}

// =============================
// Adapters
// =============================

type SentMessage struct {
	TgID int64
	Text string
	Rows [][]adapter.InlineButton
}

type EditedMessage struct {
	TgID      int64
	MessageID int
	Text      string
	Rows      [][]adapter.InlineButton
}

// ---- Mock GroupBotAdapter ----

type MockGroupBot struct {
	mu     sync.Mutex
	Sent   []SentMessage
	Edited []EditedMessage
	Banned []int64
	Unbans []int64

	Membership     adapter.MembershipStatus
	MembershipErr  error
	InviteLink     string
	InviteErr      error
	SendErr        error
	BanErr         error
	nextMessageID  int
	InvitesCreated int
}

var _ adapter.GroupBotAdapter = (*MockGroupBot)(nil)

func NewMockGroupBot() *MockGroupBot {
	return &MockGroupBot{Membership: adapter.MembershipLeft, InviteLink: "https://t.me/+invite"}
}

func (m *MockGroupBot) GetMembership(ctx context.Context, groupID, telegramID int64) (adapter.MembershipStatus, error) {
	if m.MembershipErr != nil {
		return adapter.MembershipUnknown, m.MembershipErr
	}
	return m.Membership, nil
}

func (m *MockGroupBot) Ban(ctx context.Context, groupID, telegramID int64) error {
	if m.BanErr != nil {
		return m.BanErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Banned = append(m.Banned, telegramID)
	return nil
}

func (m *MockGroupBot) Unban(ctx context.Context, groupID, telegramID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unbans = append(m.Unbans, telegramID)
	return nil
}

func (m *MockGroupBot) CreateInviteLink(ctx context.Context, groupID int64, expiresAt time.Time) (string, error) {
	if m.InviteErr != nil {
		return "", m.InviteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InvitesCreated++
	return m.InviteLink, nil
}

func (m *MockGroupBot) SendMessage(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) (int, error) {
	if m.SendErr != nil {
		return 0, m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMessageID++
	m.Sent = append(m.Sent, SentMessage{TgID: telegramID, Text: text, Rows: rows})
	return m.nextMessageID, nil
}

func (m *MockGroupBot) EditMessage(ctx context.Context, telegramID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, EditedMessage{TgID: telegramID, MessageID: messageID, Text: text, Rows: rows})
	return nil
}

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu  sync.Mutex
	seq int

	CreateFunc func(ctx context.Context, amount int64, currency, description string, metadata map[string]string, idempotencyKey string) (*adapter.CreatedPayment, error)
	FindFunc   func(ctx context.Context, externalID string) (adapter.GatewayStatus, error)

	IdempotencyKeys []string
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "mockpay" }

func (m *MockGateway) Create(ctx context.Context, amount int64, currency, description string, metadata map[string]string, idempotencyKey string) (*adapter.CreatedPayment, error) {
	m.mu.Lock()
	m.IdempotencyKeys = append(m.IdempotencyKeys, idempotencyKey)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, amount, currency, description, metadata, idempotencyKey)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("gw-%d", m.seq)
	return &adapter.CreatedPayment{ExternalID: id, ConfirmationURL: "https://pay.example/" + id}, nil
}

func (m *MockGateway) Find(ctx context.Context, externalID string) (adapter.GatewayStatus, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, externalID)
	}
	return adapter.GatewayStatusSucceeded, nil
}
