package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pricewatch/backend/internal/model"
)

// HistoryRepository stores the append-only price history table.
// Entries are never updated or deleted once written.
type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *model.PriceHistoryEntry) error {
	query := `
		INSERT INTO price_history (id, product_id, old_price, new_price, change_percent, changed_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING changed_at`

	entry.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.ProductID, entry.OldPrice, entry.NewPrice, entry.ChangePercent,
	).Scan(&entry.ChangedAt)
}

func (r *HistoryRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.PriceHistoryEntry, error) {
	var entries []model.PriceHistoryEntry
	query := `SELECT * FROM price_history WHERE product_id = $1 ORDER BY changed_at DESC`
	err := r.db.SelectContext(ctx, &entries, query, productID)
	return entries, err
}

// RecentDrops returns price decreases across all products since the
// given time, newest first, each joined with the product name.
func (r *HistoryRepository) RecentDrops(ctx context.Context, since time.Time) ([]model.PriceDrop, error) {
	var drops []model.PriceDrop
	query := `
		SELECT h.*, p.name AS product_name
		FROM price_history h
		JOIN products p ON p.id = h.product_id
		WHERE h.changed_at >= $1 AND h.new_price < h.old_price
		ORDER BY h.changed_at DESC`
	err := r.db.SelectContext(ctx, &drops, query, since)
	return drops, err
}
