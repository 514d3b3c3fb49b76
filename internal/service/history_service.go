package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pricewatch/backend/internal/apperror"
	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/repository"
)

const (
	defaultDropWindowHours = 24
	maxDropWindowHours     = 720 // 30 days, bounds the cross-product scan
)

// HistoryRepositoryInterface defines the price history data access.
type HistoryRepositoryInterface interface {
	Append(ctx context.Context, entry *model.PriceHistoryEntry) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.PriceHistoryEntry, error)
	RecentDrops(ctx context.Context, since time.Time) ([]model.PriceDrop, error)
}

// DropEvaluator is the event-path entry point of the notification
// evaluator, invoked after a recorded price drop.
type DropEvaluator interface {
	CheckProduct(ctx context.Context, productID uuid.UUID, newPrice decimal.Decimal) (int, error)
}

// HistoryService records every price transition as an immutable
// history row and triggers the event-path evaluation on drops.
type HistoryService struct {
	repo      HistoryRepositoryInterface
	catalog   Catalog
	evaluator DropEvaluator
}

func NewHistoryService(repo HistoryRepositoryInterface, catalog Catalog, evaluator DropEvaluator) *HistoryService {
	return &HistoryService{repo: repo, catalog: catalog, evaluator: evaluator}
}

// RecordPriceChange appends a history entry for a product's price
// transition. The history write must succeed; a failure is returned to
// the caller. Evaluation failures downstream of a committed write are
// logged and left to the sweep to reconcile, never propagated.
func (s *HistoryService) RecordPriceChange(ctx context.Context, productID uuid.UUID, oldPrice, newPrice decimal.Decimal) (*model.PriceHistoryEntry, error) {
	if oldPrice.IsNegative() {
		return nil, apperror.ValidationError("oldPrice", "must not be negative")
	}
	if newPrice.IsNegative() {
		return nil, apperror.ValidationError("newPrice", "must not be negative")
	}

	entry := &model.PriceHistoryEntry{
		ProductID: productID,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
	}

	// Percentage delta is undefined when the prior price was zero.
	if oldPrice.IsPositive() {
		percent := newPrice.Sub(oldPrice).Div(oldPrice).Mul(decimal.NewFromInt(100))
		entry.ChangePercent = decimal.NullDecimal{Decimal: percent, Valid: true}
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording price change for product %s: %w", productID, err)
	}

	// Event path runs only on genuine drops. Unchanged or increased
	// prices cannot reach any target that was not already reached.
	if newPrice.LessThan(oldPrice) {
		if _, err := s.evaluator.CheckProduct(ctx, productID, newPrice); err != nil {
			logger.FromContext(ctx).Error("event-path alert evaluation failed; sweep will reconcile",
				"product_id", productID.String(),
				"error", err.Error(),
			)
		}
	}

	return entry, nil
}

// GetPriceHistory returns a product's full price history, newest first.
func (s *HistoryService) GetPriceHistory(ctx context.Context, productID uuid.UUID) ([]model.PriceHistoryEntry, error) {
	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.NotFound("product")
		}
		return nil, fmt.Errorf("fetching product %s: %w", productID, err)
	}

	entries, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("listing price history for product %s: %w", productID, err)
	}
	return entries, nil
}

// GetRecentDrops returns all price decreases across the catalog within
// the trailing window, newest first. A non-positive window falls back
// to 24 hours; windows beyond 30 days are capped.
func (s *HistoryService) GetRecentDrops(ctx context.Context, windowHours int) ([]model.PriceDrop, error) {
	if windowHours <= 0 {
		windowHours = defaultDropWindowHours
	}
	if windowHours > maxDropWindowHours {
		windowHours = maxDropWindowHours
	}

	since := time.Now().Add(-time.Duration(windowHours) * time.Hour)
	drops, err := s.repo.RecentDrops(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("listing recent price drops: %w", err)
	}
	return drops, nil
}
