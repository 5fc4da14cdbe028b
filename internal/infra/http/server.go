package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/infra/metrics"
	"telegram-group-subscription/internal/usecase"
)

// Server hosts the payment provider webhook plus health and metrics
// endpoints.
type Server struct {
	life    usecase.LifecycleUseCase
	gateway adapter.PaymentGateway
	port    int
	log     *zerolog.Logger
	server  *http.Server
}

func NewServer(life usecase.LifecycleUseCase, gateway adapter.PaymentGateway, port int, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "WebhookServer").Logger()
	return &Server{
		life:    life,
		gateway: gateway,
		port:    port,
		log:     &l,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/webhook/yookassa", s.handleWebhook)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", s.port).Msg("webhook server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

type webhookNotification struct {
	Event  string `json:"event"`
	Object struct {
		ID string `json:"id"`
	} `json:"object"`
}

// handleWebhook processes provider notifications. The body is never trusted:
// the payment status is re-fetched from the provider API before any state
// changes. The response code drives provider retries, so transient failures
// return 500 and everything handled (or safely ignorable) returns 200.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var n webhookNotification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		metrics.IncWebhook("malformed")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// Unrecognized events are acknowledged first so the provider stops
	// retrying them, whatever else the body carries.
	if n.Event != "payment.succeeded" {
		metrics.IncWebhook("ignored")
		w.WriteHeader(http.StatusOK)
		return
	}
	if n.Object.ID == "" {
		metrics.IncWebhook("malformed")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	status, err := s.gateway.Find(r.Context(), n.Object.ID)
	if err != nil {
		metrics.IncWebhook("error")
		s.log.Error().Err(err).Str("gateway_id", n.Object.ID).Msg("provider verification failed")
		http.Error(w, "verification failed", http.StatusInternalServerError)
		return
	}
	if status != adapter.GatewayStatusSucceeded {
		metrics.IncWebhook("forged")
		s.log.Warn().Str("gateway_id", n.Object.ID).Str("status", string(status)).Msg("webhook claims success the provider denies")
		http.Error(w, "status mismatch", http.StatusBadRequest)
		return
	}

	outcome, err := s.life.Confirm(r.Context(), usecase.PaymentRef{GatewayID: n.Object.ID})
	if err != nil {
		metrics.IncWebhook("error")
		s.log.Error().Err(err).Str("gateway_id", n.Object.ID).Msg("confirmation failed")
		http.Error(w, "confirmation failed", http.StatusInternalServerError)
		return
	}

	metrics.IncWebhook("accepted")
	metrics.IncConfirmation("webhook", outcome.String())
	s.log.Info().Str("gateway_id", n.Object.ID).Stringer("outcome", outcome).Msg("webhook processed")
	w.WriteHeader(http.StatusOK)
}
