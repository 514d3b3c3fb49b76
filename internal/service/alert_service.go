// Package service provides business logic for the price-tracking and
// alert-notification engine.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pricewatch/backend/internal/apperror"
	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/repository"
)

// Catalog is the narrow interface this engine consumes from the
// product catalog. Product prices are owned by the catalog; the engine
// only reads them through explicit lookups.
type Catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
}

// AlertRegistryRepository defines the alert data access the registry
// needs. Implementations must be safe for concurrent use.
type AlertRegistryRepository interface {
	Create(ctx context.Context, alert *model.PriceAlert) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PriceAlert, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PriceAlert, error)
	FindActiveByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*model.PriceAlert, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// maxActiveAlertsPerUser bounds how many watches a single user can
// hold at once.
const maxActiveAlertsPerUser = 100

// AlertService is the registry for user watches: it creates, lists and
// cancels price alerts and enforces one active watch per user/product
// pair.
type AlertService struct {
	repo    AlertRegistryRepository
	catalog Catalog
}

func NewAlertService(repo AlertRegistryRepository, catalog Catalog) *AlertService {
	return &AlertService{repo: repo, catalog: catalog}
}

type CreateAlertInput struct {
	ProductID   uuid.UUID       `json:"productId"`
	TargetPrice decimal.Decimal `json:"targetPrice"`
}

// Create registers a new watch. The product's current price is
// snapshotted as the alert's original price at this moment.
func (s *AlertService) Create(ctx context.Context, userID uuid.UUID, input CreateAlertInput) (*model.PriceAlert, error) {
	if !input.TargetPrice.IsPositive() {
		return nil, apperror.ValidationError("targetPrice", "must be greater than zero")
	}

	product, err := s.catalog.GetByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.NotFound("product")
		}
		return nil, fmt.Errorf("fetching product %s: %w", input.ProductID, err)
	}

	active, err := s.repo.CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting active alerts for user %s: %w", userID, err)
	}
	if active >= maxActiveAlertsPerUser {
		return nil, apperror.Conflict("maximum number of active price alerts reached")
	}

	_, err = s.repo.FindActiveByUserAndProduct(ctx, userID, input.ProductID)
	if err == nil {
		return nil, apperror.Conflict("an active price alert already exists for this product")
	}
	if !errors.Is(err, repository.ErrAlertNotFound) {
		return nil, fmt.Errorf("checking existing alert: %w", err)
	}

	alert := &model.PriceAlert{
		ProductID:     input.ProductID,
		UserID:        userID,
		TargetPrice:   input.TargetPrice,
		OriginalPrice: product.Price,
		Active:        true,
		Notified:      false,
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("creating price alert: %w", err)
	}

	return alert, nil
}

// List returns every alert the user has created, newest first,
// including cancelled and already-notified ones.
func (s *AlertService) List(ctx context.Context, userID uuid.UUID) ([]model.PriceAlert, error) {
	alerts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing alerts for user %s: %w", userID, err)
	}
	return alerts, nil
}

// Cancel deactivates an alert. Cancelling an already-inactive alert
// succeeds silently. Cancellation never reverts the notified flag.
func (s *AlertService) Cancel(ctx context.Context, userID, alertID uuid.UUID) error {
	alert, err := s.repo.GetByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return apperror.NotFound("alert")
		}
		return fmt.Errorf("fetching alert %s: %w", alertID, err)
	}

	if alert.UserID != userID {
		return apperror.Forbidden("this price alert does not belong to you")
	}

	if !alert.Active {
		return nil
	}

	if err := s.repo.Deactivate(ctx, alertID); err != nil {
		return fmt.Errorf("cancelling alert %s: %w", alertID, err)
	}

	return nil
}
