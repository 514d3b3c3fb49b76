package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/service"
)

// AlertServiceInterface for handler testing
type AlertServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, input service.CreateAlertInput) (*model.PriceAlert, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.PriceAlert, error)
	Cancel(ctx context.Context, userID, alertID uuid.UUID) error
}

// CatalogServiceInterface for handler testing
type CatalogServiceInterface interface {
	Get(ctx context.Context, id uuid.UUID) (*model.ProductWithWatchers, error)
	List(ctx context.Context) ([]model.ProductWithWatchers, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, newPrice decimal.Decimal) (*model.ProductWithWatchers, error)
}

// HistoryServiceInterface for handler testing
type HistoryServiceInterface interface {
	GetPriceHistory(ctx context.Context, productID uuid.UUID) ([]model.PriceHistoryEntry, error)
	GetRecentDrops(ctx context.Context, windowHours int) ([]model.PriceDrop, error)
}

// Note: AuthServiceInterface and PushServiceInterface are defined in their respective handler files
