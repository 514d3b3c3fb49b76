package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/service"
)

// PushServiceInterface for handler testing
type PushServiceInterface interface {
	IsConfigured() bool
	GetVAPIDPublicKey() (string, error)
	Subscribe(ctx context.Context, userID uuid.UUID, endpoint, p256dh, auth string, userAgent *string) (*model.PushSubscription, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
}

type PushHandler struct {
	service PushServiceInterface
}

func NewPushHandler(service PushServiceInterface) *PushHandler {
	return &PushHandler{service: service}
}

// GetVAPIDPublicKey returns the VAPID public key for push subscription.
// GET /api/notifications/vapid-public-key
func (h *PushHandler) GetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.GetVAPIDPublicKey()
	if err != nil {
		if errors.Is(err, service.ErrVAPIDNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "Push notifications not configured")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to get VAPID key")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

type subscribeRequest struct {
	Endpoint  string  `json:"endpoint"`
	P256dh    string  `json:"p256dh"`
	Auth      string  `json:"auth"`
	UserAgent *string `json:"userAgent,omitempty"`
}

// Subscribe registers a browser push subscription for the current user.
// POST /api/notifications/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		respondError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.service.Subscribe(r.Context(), userID, req.Endpoint, req.P256dh, req.Auth, req.UserAgent)
	if err != nil {
		if errors.Is(err, service.ErrVAPIDNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "Push notifications not configured")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe removes a push subscription.
// DELETE /api/notifications/unsubscribe
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Endpoint == "" {
		respondError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.service.Unsubscribe(r.Context(), userID, req.Endpoint); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to unsubscribe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
