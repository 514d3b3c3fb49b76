package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/apperror"
	"github.com/pricewatch/backend/internal/service"
)

type AlertHandler struct {
	alerts  AlertServiceInterface
	history HistoryServiceInterface
}

func NewAlertHandler(alerts AlertServiceInterface, history HistoryServiceInterface) *AlertHandler {
	return &AlertHandler{alerts: alerts, history: history}
}

// Create registers a price alert for the authenticated user.
// POST /api/price-alerts
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var input service.CreateAlertInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondAppError(w, apperror.BadRequest("invalid request body"))
		return
	}

	if input.ProductID == uuid.Nil {
		respondAppError(w, apperror.ValidationError("productId", "productId is required"))
		return
	}

	alert, err := h.alerts.Create(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, alert)
}

// List returns every alert belonging to the authenticated user,
// including cancelled and already-notified ones.
// GET /api/price-alerts
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	alerts, err := h.alerts.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, alerts)
}

// Cancel deactivates an alert. Cancelling an already-inactive alert
// is a no-op that still returns 204.
// DELETE /api/price-alerts/{id}
func (h *AlertHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondAppError(w, apperror.BadRequest("invalid alert ID"))
		return
	}

	if err := h.alerts.Cancel(r.Context(), userID, id); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History returns the immutable price change log for a product,
// newest first.
// GET /api/price-alerts/history/{productId}
func (h *AlertHandler) History(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		respondAppError(w, apperror.BadRequest("invalid product ID"))
		return
	}

	entries, err := h.history.GetPriceHistory(r.Context(), productID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// Drops returns recent price drops across all products. The optional
// hours query parameter bounds the lookback window.
// GET /api/price-alerts/drops?hours=48
func (h *AlertHandler) Drops(w http.ResponseWriter, r *http.Request) {
	hours := 0
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondAppError(w, apperror.ValidationError("hours", "must be a non-negative integer"))
			return
		}
		hours = parsed
	}

	drops, err := h.history.GetRecentDrops(r.Context(), hours)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, drops)
}
