package adapter

import "context"

// GatewayStatus is the provider-side payment state.
type GatewayStatus string

const (
	GatewayStatusPending   GatewayStatus = "pending"
	GatewayStatusWaiting   GatewayStatus = "waiting_for_capture"
	GatewayStatusSucceeded GatewayStatus = "succeeded"
	GatewayStatusCanceled  GatewayStatus = "canceled"
)

// CreatedPayment is the result of registering a payment intent with the
// provider.
type CreatedPayment struct {
	ExternalID      string
	ConfirmationURL string
}

// PaymentGateway is the hex port for the external payment provider.
type PaymentGateway interface {
	Name() string

	// Create registers a payment intent. idempotencyKey must be unique per
	// initiation attempt so client retries cannot create duplicate charges.
	Create(ctx context.Context, amount int64, currency, description string, metadata map[string]string, idempotencyKey string) (*CreatedPayment, error)
	// Find returns the provider-side status for a previously created payment.
	Find(ctx context.Context, externalID string) (GatewayStatus, error)
}
