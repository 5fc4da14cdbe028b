package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/config"
	"telegram-group-subscription/internal/domain/ports/repository"
	"telegram-group-subscription/internal/usecase"
)

// Server is the admin web API: login, stats, the manual-payment review queue
// and the manual-mode switch.
type Server struct {
	statsUC    usecase.StatsUseCase
	settingsUC usecase.SettingsUseCase
	manuals    repository.ManualPaymentRepository
	payments   repository.PaymentRepository
	auth       *AuthManager
	password   string
	port       int
	log        *zerolog.Logger
	server     *http.Server
}

func NewServer(
	statsUC usecase.StatsUseCase,
	settingsUC usecase.SettingsUseCase,
	manuals repository.ManualPaymentRepository,
	payments repository.PaymentRepository,
	cfg *config.WebConfig,
	dev bool,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "AdminWeb").Logger()
	return &Server{
		statsUC:    statsUC,
		settingsUC: settingsUC,
		manuals:    manuals,
		payments:   payments,
		auth:       NewAuthManager(cfg.SessionSecret, !dev, cfg.SessionTTL),
		password:   cfg.AdminPassword,
		port:       cfg.Port,
		log:        &l,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/stats", statsHandler(s.statsUC))
		r.Get("/manual-payments/pending", pendingManualHandler(s.manuals, s.payments))
		r.Post("/settings/manual-mode", manualModeHandler(s.settingsUC))
	})
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", s.port).Msg("admin web listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.password == "" || subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.password)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
