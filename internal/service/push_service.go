package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/config"
	"github.com/pricewatch/backend/internal/model"
)

var ErrVAPIDNotConfigured = errors.New("VAPID keys not configured")

// PushRepositoryInterface defines the subscription data access for the
// push registration service.
type PushRepositoryInterface interface {
	CreateSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscriptionsByUserID(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, userID uuid.UUID, endpoint string) error
}

// PushService manages Web Push endpoint registration for alert
// delivery.
type PushService struct {
	repo PushRepositoryInterface
	cfg  *config.Config
}

func NewPushService(repo PushRepositoryInterface, cfg *config.Config) *PushService {
	return &PushService{repo: repo, cfg: cfg}
}

// IsConfigured reports whether VAPID keys are present.
func (s *PushService) IsConfigured() bool {
	return s.cfg.VAPIDPublicKey != "" && s.cfg.VAPIDPrivateKey != ""
}

// GetVAPIDPublicKey returns the public key clients need to subscribe.
func (s *PushService) GetVAPIDPublicKey() (string, error) {
	if !s.IsConfigured() {
		return "", ErrVAPIDNotConfigured
	}
	return s.cfg.VAPIDPublicKey, nil
}

func (s *PushService) Subscribe(ctx context.Context, userID uuid.UUID, endpoint, p256dh, auth string, userAgent *string) (*model.PushSubscription, error) {
	if !s.IsConfigured() {
		return nil, ErrVAPIDNotConfigured
	}

	sub := &model.PushSubscription{
		UserID:    userID,
		Endpoint:  endpoint,
		P256dh:    p256dh,
		Auth:      auth,
		UserAgent: userAgent,
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("creating push subscription: %w", err)
	}

	return sub, nil
}

func (s *PushService) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	return s.repo.DeleteSubscription(ctx, userID, endpoint)
}
