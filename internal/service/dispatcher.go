package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/config"
	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/model"
)

// LogDispatcher is the fallback dispatch channel: it records the fire
// event in the log and delivers nothing. Used when no push transport
// is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, fire model.AlertFire) error {
	logger.FromContext(ctx).Info("price alert reached target",
		"alert_id", fire.AlertID.String(),
		"user_id", fire.UserID.String(),
		"product_id", fire.ProductID.String(),
		"product", fire.ProductName,
		"target_price", fire.TargetPrice.String(),
		"triggering_price", fire.TriggeringPrice.String(),
	)
	return nil
}

// PushSubscriptionStore defines the subscription data access the push
// dispatcher needs.
type PushSubscriptionStore interface {
	GetSubscriptionsByUserID(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// PushDispatcher delivers fire events over Web Push to every endpoint
// the alert's owner has registered.
type PushDispatcher struct {
	repo PushSubscriptionStore
	cfg  *config.Config
}

func NewPushDispatcher(repo PushSubscriptionStore, cfg *config.Config) *PushDispatcher {
	return &PushDispatcher{repo: repo, cfg: cfg}
}

type pushPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Tag   string         `json:"tag,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

func (d *PushDispatcher) Dispatch(ctx context.Context, fire model.AlertFire) error {
	subs, err := d.repo.GetSubscriptionsByUserID(ctx, fire.UserID)
	if err != nil {
		return fmt.Errorf("listing push subscriptions for user %s: %w", fire.UserID, err)
	}
	if len(subs) == 0 {
		// Nothing registered; the fire event is still considered handled.
		return nil
	}

	payload := pushPayload{
		Title: "Price alert: " + fire.ProductName,
		Body:  fmt.Sprintf("Now %s (your target: %s)", fire.TriggeringPrice.StringFixed(2), fire.TargetPrice.StringFixed(2)),
		Tag:   "price-alert-" + fire.AlertID.String(),
		Data: map[string]any{
			"type":      "price_alert",
			"alertId":   fire.AlertID.String(),
			"productId": fire.ProductID.String(),
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}

		resp, err := webpush.SendNotification(payloadBytes, wpSub, &webpush.Options{
			Subscriber:      d.cfg.VAPIDSubject,
			VAPIDPublicKey:  d.cfg.VAPIDPublicKey,
			VAPIDPrivateKey: d.cfg.VAPIDPrivateKey,
			TTL:             3600,
		})
		if err != nil {
			logger.FromContext(ctx).Warn("push delivery failed",
				"user_id", fire.UserID.String(),
				"error", err.Error(),
			)
			continue
		}
		_ = resp.Body.Close()

		// Expired or revoked endpoints are pruned on sight.
		if resp.StatusCode == 404 || resp.StatusCode == 410 {
			_ = d.repo.DeleteSubscriptionByEndpoint(ctx, sub.Endpoint)
		}
	}

	return nil
}
