package payment

import (
	"context"
	"fmt"
	"sync"

	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/ports/adapter"
)

// NoopGateway is a development stand-in. Every created payment reports
// succeeded on the first Find, so the whole flow can be exercised without
// a provider account.
type NoopGateway struct {
	mu      sync.Mutex
	seq     int
	created map[string]bool
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{created: make(map[string]bool)}
}

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) Create(ctx context.Context, amount int64, currency, description string, metadata map[string]string, idempotencyKey string) (*adapter.CreatedPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("noop-%d", g.seq)
	g.created[id] = true
	return &adapter.CreatedPayment{
		ExternalID:      id,
		ConfirmationURL: "https://example.invalid/pay/" + id,
	}, nil
}

func (g *NoopGateway) Find(ctx context.Context, externalID string) (adapter.GatewayStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.created[externalID] {
		return "", domain.ErrNotFound
	}
	return adapter.GatewayStatusSucceeded, nil
}
