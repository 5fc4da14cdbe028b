package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"telegram-group-subscription/internal/domain/ports/adapter"
)

const yooKassaBaseURL = "https://api.yookassa.ru/v3"

// YooKassaGateway implements adapter.PaymentGateway using direct HTTP calls
// against the YooKassa v3 API.
type YooKassaGateway struct {
	shopID    string
	secretKey string
	returnURL string
	baseURL   string
	client    *http.Client
}

func NewYooKassaGateway(shopID, secretKey, returnURL string) *YooKassaGateway {
	return &YooKassaGateway{
		shopID:    shopID,
		secretKey: secretKey,
		returnURL: returnURL,
		baseURL:   yooKassaBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

var _ adapter.PaymentGateway = (*YooKassaGateway)(nil)

func (g *YooKassaGateway) Name() string { return "yookassa" }

type yooKassaAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type yooKassaPaymentResponse struct {
	ID           string         `json:"id"`
	Status       string         `json:"status"`
	Amount       yooKassaAmount `json:"amount"`
	Confirmation struct {
		Type            string `json:"type"`
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
	Metadata map[string]string `json:"metadata"`
}

// Create registers a payment intent. The Idempotence-Key header makes
// retries of the same attempt safe on the provider side.
func (g *YooKassaGateway) Create(ctx context.Context, amount int64, currency, description string, metadata map[string]string, idempotencyKey string) (*adapter.CreatedPayment, error) {
	requestData := map[string]interface{}{
		"amount": yooKassaAmount{
			Value:    formatAmount(amount),
			Currency: currency,
		},
		"capture":     true,
		"description": description,
		"confirmation": map[string]string{
			"type":       "redirect",
			"return_url": g.returnURL,
		},
	}
	if metadata != nil {
		requestData["metadata"] = metadata
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.shopID, g.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", idempotencyKey)

	var resp yooKassaPaymentResponse
	if err := g.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("yookassa: incomplete create response (id=%q)", resp.ID)
	}

	return &adapter.CreatedPayment{
		ExternalID:      resp.ID,
		ConfirmationURL: resp.Confirmation.ConfirmationURL,
	}, nil
}

// Find fetches the provider-side status for a previously created payment.
func (g *YooKassaGateway) Find(ctx context.Context, externalID string) (adapter.GatewayStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+externalID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.shopID, g.secretKey)

	var resp yooKassaPaymentResponse
	if err := g.do(req, &resp); err != nil {
		return "", err
	}
	return mapStatus(resp.Status), nil
}

func (g *YooKassaGateway) do(req *http.Request, out interface{}) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("yookassa: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}
	return nil
}

// formatAmount renders whole-unit amounts as YooKassa's decimal string,
// e.g. 1500 -> "1500.00".
func formatAmount(amount int64) string {
	return fmt.Sprintf("%d.00", amount)
}

func mapStatus(s string) adapter.GatewayStatus {
	switch s {
	case "pending":
		return adapter.GatewayStatusPending
	case "waiting_for_capture":
		return adapter.GatewayStatusWaiting
	case "succeeded":
		return adapter.GatewayStatusSucceeded
	case "canceled":
		return adapter.GatewayStatusCanceled
	default:
		return adapter.GatewayStatusPending
	}
}
