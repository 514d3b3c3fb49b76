package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pricewatch/backend/internal/model"
)

var ErrAlertNotFound = errors.New("price alert not found")

type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *model.PriceAlert) error {
	query := `
		INSERT INTO price_alerts (id, product_id, user_id, target_price, original_price, active, notified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at`

	alert.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		alert.ID, alert.ProductID, alert.UserID, alert.TargetPrice, alert.OriginalPrice,
		alert.Active, alert.Notified,
	).Scan(&alert.CreatedAt)
}

func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PriceAlert, error) {
	var alert model.PriceAlert
	query := `SELECT * FROM price_alerts WHERE id = $1`
	err := r.db.GetContext(ctx, &alert, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	return &alert, err
}

// ListByUser returns every alert a user has ever created, newest first,
// regardless of active or notified state.
func (r *AlertRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PriceAlert, error) {
	var alerts []model.PriceAlert
	query := `SELECT * FROM price_alerts WHERE user_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &alerts, query, userID)
	return alerts, err
}

// FindActiveByUserAndProduct returns the user's active alert on a
// product, or ErrAlertNotFound if there is none. At most one such row
// can exist at a time.
func (r *AlertRepository) FindActiveByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*model.PriceAlert, error) {
	var alert model.PriceAlert
	query := `SELECT * FROM price_alerts WHERE user_id = $1 AND product_id = $2 AND active = true`
	err := r.db.GetContext(ctx, &alert, query, userID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	return &alert, err
}

// ListPendingByProduct returns the alerts still eligible for
// notification on one product (event path scan).
func (r *AlertRepository) ListPendingByProduct(ctx context.Context, productID uuid.UUID) ([]model.PriceAlert, error) {
	var alerts []model.PriceAlert
	query := `
		SELECT * FROM price_alerts
		WHERE product_id = $1 AND active = true AND notified = false
		ORDER BY created_at`
	err := r.db.SelectContext(ctx, &alerts, query, productID)
	return alerts, err
}

// ListPending returns every alert still eligible for notification,
// across all products (sweep path scan).
func (r *AlertRepository) ListPending(ctx context.Context) ([]model.PriceAlert, error) {
	var alerts []model.PriceAlert
	query := `
		SELECT * FROM price_alerts
		WHERE active = true AND notified = false
		ORDER BY created_at`
	err := r.db.SelectContext(ctx, &alerts, query)
	return alerts, err
}

// MarkNotified flips the notified flag with a conditional update keyed
// on the current state. It returns true only for the caller that won
// the transition; a false result means another path already notified
// the alert, or it was cancelled in the meantime.
func (r *AlertRepository) MarkNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE price_alerts
		SET notified = true, notified_at = NOW()
		WHERE id = $1 AND active = true AND notified = false`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// Deactivate sets active=false. Deactivating an already-inactive alert
// is a no-op, not an error.
func (r *AlertRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE price_alerts SET active = false WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *AlertRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM price_alerts WHERE user_id = $1 AND active = true`
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

// CountWatchersByProduct returns how many users hold an active alert
// on the product.
func (r *AlertRepository) CountWatchersByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM price_alerts WHERE product_id = $1 AND active = true`
	err := r.db.GetContext(ctx, &count, query, productID)
	return count, err
}
