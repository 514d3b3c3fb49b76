package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/model"
)

// EvaluatorAlertRepository defines the alert data access the evaluator
// needs. MarkNotified must be an atomic conditional update: it returns
// true only for the single caller that transitioned the alert from
// pending to notified.
type EvaluatorAlertRepository interface {
	ListPendingByProduct(ctx context.Context, productID uuid.UUID) ([]model.PriceAlert, error)
	ListPending(ctx context.Context) ([]model.PriceAlert, error)
	MarkNotified(ctx context.Context, id uuid.UUID) (bool, error)
}

// Dispatcher receives fire events for alerts that reached their
// target. Delivery mechanics are entirely its concern; a dispatch
// failure never reverts the committed notified transition.
type Dispatcher interface {
	Dispatch(ctx context.Context, fire model.AlertFire) error
}

// NotificationService decides when a price alert fires. Its two entry
// points, CheckProduct (event path) and Sweep (reconciliation path),
// converge on the same pending -> notified transition; the notified
// flag in storage is the sole at-most-once gate between them.
type NotificationService struct {
	alerts     EvaluatorAlertRepository
	catalog    Catalog
	dispatcher Dispatcher
}

func NewNotificationService(alerts EvaluatorAlertRepository, catalog Catalog, dispatcher Dispatcher) *NotificationService {
	return &NotificationService{alerts: alerts, catalog: catalog, dispatcher: dispatcher}
}

// CheckProduct is the event path. The caller invokes it only after a
// recorded price drop; it scans the product's pending alerts and fires
// every one whose target the new price has reached. A failure on one
// alert does not stop evaluation of the rest. Returns the number of
// alerts fired.
func (s *NotificationService) CheckProduct(ctx context.Context, productID uuid.UUID, newPrice decimal.Decimal) (int, error) {
	alerts, err := s.alerts.ListPendingByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("listing pending alerts for product %s: %w", productID, err)
	}

	productName := s.productName(ctx, productID)

	fired := 0
	for i := range alerts {
		alert := &alerts[i]
		if !alert.TargetReached(newPrice) {
			continue
		}

		won, err := s.fire(ctx, alert, productName, newPrice)
		if err != nil {
			logger.FromContext(ctx).Error("event path: firing alert failed",
				"alert_id", alert.ID.String(),
				"error", err.Error(),
			)
			continue
		}
		if won {
			fired++
		}
	}

	return fired, nil
}

// Sweep is the reconciliation path. It examines every pending alert in
// the system against the product's current stored price, catching
// anything the event path missed. It never reads or writes price
// history. Per-alert failures are logged and skipped so one bad alert
// cannot abort the pass. Returns the number of alerts fired.
func (s *NotificationService) Sweep(ctx context.Context) (int, error) {
	alerts, err := s.alerts.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pending alerts: %w", err)
	}

	log := logger.FromContext(ctx)

	fired := 0
	for i := range alerts {
		alert := &alerts[i]

		price, err := s.catalog.GetPrice(ctx, alert.ProductID)
		if err != nil {
			log.Error("sweep: fetching product price failed",
				"alert_id", alert.ID.String(),
				"product_id", alert.ProductID.String(),
				"error", err.Error(),
			)
			continue
		}

		if !alert.TargetReached(price) {
			continue
		}

		won, err := s.fire(ctx, alert, s.productName(ctx, alert.ProductID), price)
		if err != nil {
			log.Error("sweep: firing alert failed",
				"alert_id", alert.ID.String(),
				"error", err.Error(),
			)
			continue
		}
		if won {
			fired++
		}
	}

	return fired, nil
}

// fire attempts the pending -> notified transition and, on winning it,
// hands the fire event to the dispatcher. Losing the conditional
// update means the other path (or a cancellation) got there first; the
// loser does nothing. Dispatch errors are logged, not returned: the
// state transition has already committed.
func (s *NotificationService) fire(ctx context.Context, alert *model.PriceAlert, productName string, price decimal.Decimal) (bool, error) {
	won, err := s.alerts.MarkNotified(ctx, alert.ID)
	if err != nil {
		return false, fmt.Errorf("marking alert %s notified: %w", alert.ID, err)
	}
	if !won {
		return false, nil
	}

	fire := model.AlertFire{
		AlertID:         alert.ID,
		UserID:          alert.UserID,
		ProductID:       alert.ProductID,
		ProductName:     productName,
		TargetPrice:     alert.TargetPrice,
		TriggeringPrice: price,
	}

	if err := s.dispatcher.Dispatch(ctx, fire); err != nil {
		logger.FromContext(ctx).Error("alert notification dispatch failed",
			"alert_id", alert.ID.String(),
			"user_id", alert.UserID.String(),
			"error", err.Error(),
		)
	} else {
		logger.FromContext(ctx).Info("alert notification fired",
			"alert_id", alert.ID.String(),
			"product_id", alert.ProductID.String(),
			"target_price", alert.TargetPrice.String(),
			"triggering_price", price.String(),
		)
	}

	return true, nil
}

func (s *NotificationService) productName(ctx context.Context, productID uuid.UUID) string {
	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return ""
	}
	return product.Name
}
