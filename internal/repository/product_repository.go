package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/pricewatch/backend/internal/model"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository is the storage side of the catalog. The alert
// engine only reads prices from it; writes go through the catalog
// service's price-update flow.
type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (id, name, description, category, price, currency, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at`

	product.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		product.ID, product.Name, product.Description, product.Category,
		product.Price, product.Currency, product.ImageURL,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1`
	err := r.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return &product, err
}

func (r *ProductRepository) List(ctx context.Context) ([]model.ProductWithWatchers, error) {
	var products []model.ProductWithWatchers
	query := `
		SELECT p.*,
			(SELECT COUNT(*) FROM price_alerts a WHERE a.product_id = p.id AND a.active = true) AS watcher_count
		FROM products p
		ORDER BY p.name`
	err := r.db.SelectContext(ctx, &products, query)
	return products, err
}

// GetPrice returns the product's current canonical price.
func (r *ProductRepository) GetPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var price decimal.Decimal
	query := `SELECT price FROM products WHERE id = $1`
	err := r.db.GetContext(ctx, &price, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Decimal{}, ErrProductNotFound
	}
	return price, err
}

// UpdatePrice sets the product's price and returns the price that was
// in effect immediately before the write. Reading the old value inside
// the same statement keeps concurrent updates from observing a stale
// prior price.
func (r *ProductRepository) UpdatePrice(ctx context.Context, id uuid.UUID, newPrice decimal.Decimal) (decimal.Decimal, error) {
	var oldPrice decimal.Decimal
	query := `
		WITH prev AS (
			SELECT price FROM products WHERE id = $1 FOR UPDATE
		)
		UPDATE products
		SET price = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING (SELECT price FROM prev)`
	err := r.db.QueryRowxContext(ctx, query, id, newPrice).Scan(&oldPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Decimal{}, ErrProductNotFound
	}
	return oldPrice, err
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`)
	return count, err
}
