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

// CatalogRepository defines the product data access for the catalog.
type CatalogRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context) ([]model.ProductWithWatchers, error)
	GetPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, newPrice decimal.Decimal) (decimal.Decimal, error)
}

// PriceChangeRecorder is the history recorder the catalog notifies
// synchronously on every canonical price change.
type PriceChangeRecorder interface {
	RecordPriceChange(ctx context.Context, productID uuid.UUID, oldPrice, newPrice decimal.Decimal) (*model.PriceHistoryEntry, error)
}

// WatcherCounter reports how many users hold an active alert on a
// product.
type WatcherCounter interface {
	CountWatchersByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

// CatalogService owns the authoritative product price. The alert
// engine observes its changes through the recorder but never mutates
// catalog state itself.
type CatalogService struct {
	repo     CatalogRepository
	watchers WatcherCounter
	recorder PriceChangeRecorder
}

func NewCatalogService(repo CatalogRepository, watchers WatcherCounter, recorder PriceChangeRecorder) *CatalogService {
	return &CatalogService{repo: repo, watchers: watchers, recorder: recorder}
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*model.ProductWithWatchers, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.NotFound("product")
		}
		return nil, fmt.Errorf("fetching product %s: %w", id, err)
	}

	count, err := s.watchers.CountWatchersByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("counting watchers for product %s: %w", id, err)
	}

	return &model.ProductWithWatchers{Product: *product, WatcherCount: count}, nil
}

func (s *CatalogService) List(ctx context.Context) ([]model.ProductWithWatchers, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// GetByID and GetPrice satisfy the Catalog interface consumed by the
// alert engine.
func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CatalogService) GetPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	return s.repo.GetPrice(ctx, id)
}

// UpdatePrice changes a product's canonical price and notifies the
// history recorder synchronously with the price that was in effect
// immediately before. The history write is must-succeed: its error
// fails the whole price change.
func (s *CatalogService) UpdatePrice(ctx context.Context, id uuid.UUID, newPrice decimal.Decimal) (*model.ProductWithWatchers, error) {
	if newPrice.IsNegative() {
		return nil, apperror.ValidationError("price", "must not be negative")
	}

	oldPrice, err := s.repo.UpdatePrice(ctx, id, newPrice)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.NotFound("product")
		}
		return nil, fmt.Errorf("updating price for product %s: %w", id, err)
	}

	if !oldPrice.Equal(newPrice) {
		if _, err := s.recorder.RecordPriceChange(ctx, id, oldPrice, newPrice); err != nil {
			return nil, fmt.Errorf("recording price change for product %s: %w", id, err)
		}
	}

	return s.Get(ctx, id)
}
