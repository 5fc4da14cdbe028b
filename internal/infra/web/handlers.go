package web

import (
	"encoding/json"
	"net/http"
	"time"

	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
	"telegram-group-subscription/internal/usecase"
)

// statsHandler serves the top-line numbers for the admin dashboard.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		users, byStatus, err := statsUC.Totals(ctx)
		if err != nil {
			http.Error(w, "Failed to get totals", http.StatusInternalServerError)
			return
		}

		week, month, year, err := statsUC.Revenue(ctx)
		if err != nil {
			http.Error(w, "Failed to get revenue", http.StatusInternalServerError)
			return
		}

		response := struct {
			TotalUsers   int            `json:"total_users"`
			SubsByStatus map[string]int `json:"subscriptions_by_status"`
			Revenue      struct {
				Week  int64 `json:"week"`
				Month int64 `json:"month"`
				Year  int64 `json:"year"`
			} `json:"revenue"`
		}{
			TotalUsers:   users,
			SubsByStatus: make(map[string]int, len(byStatus)),
		}
		for status, n := range byStatus {
			response.SubsByStatus[string(status)] = n
		}
		response.Revenue.Week = week
		response.Revenue.Month = month
		response.Revenue.Year = year

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

type pendingManualItem struct {
	PaymentID   string    `json:"payment_id"`
	UserID      string    `json:"user_id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	ProofFileID string    `json:"proof_file_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// pendingManualHandler lists manual payments still waiting for an admin
// verdict.
func pendingManualHandler(manuals repository.ManualPaymentRepository, payments repository.PaymentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := manuals.ListUnverified(ctx, repository.NoTX, 100)
		if err != nil {
			http.Error(w, "Failed to list manual payments", http.StatusInternalServerError)
			return
		}

		items := make([]pendingManualItem, 0, len(rows))
		for _, mp := range rows {
			item := pendingManualItem{
				PaymentID:   mp.PaymentID,
				ProofFileID: mp.ProofFileID,
				SubmittedAt: mp.SubmittedAt,
			}
			if p, err := payments.FindByID(ctx, repository.NoTX, mp.PaymentID); err == nil {
				if p.Status != model.PaymentStatusManualReview {
					continue
				}
				item.UserID = p.UserID
				item.Amount = p.Amount
				item.Currency = p.Currency
			}
			items = append(items, item)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	}
}

// manualModeHandler flips the gateway/manual payment switch.
func manualModeHandler(settingsUC usecase.SettingsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		settings, err := settingsUC.SetManualMode(r.Context(), req.Enabled)
		if err != nil {
			http.Error(w, "Failed to update settings", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(settings)
	}
}
