package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/pricewatch/backend/internal/model"
)

// Helper to create a mock DB
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return sqlxDB, mock
}

func alertColumns() []string {
	return []string{"id", "product_id", "user_id", "target_price", "original_price", "active", "notified", "created_at", "notified_at"}
}

func TestAlertRepository_Create(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewAlertRepository(db)

	ctx := context.Background()
	alert := &model.PriceAlert{
		ProductID:     uuid.New(),
		UserID:        uuid.New(),
		TargetPrice:   decimal.NewFromFloat(899.99),
		OriginalPrice: decimal.NewFromFloat(999.99),
		Active:        true,
		Notified:      false,
	}

	rows := sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now())
	mock.ExpectQuery(`INSERT INTO price_alerts`).
		WithArgs(sqlmock.AnyArg(), alert.ProductID, alert.UserID, alert.TargetPrice, alert.OriginalPrice, true, false).
		WillReturnRows(rows)

	err := repo.Create(ctx, alert)

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, alert.ID)
	assert.False(t, alert.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_GetByID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock, uuid.UUID)
		wantErr   bool
		errType   error
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock, id uuid.UUID) {
				rows := sqlmock.NewRows(alertColumns()).
					AddRow(id, uuid.New(), uuid.New(), decimal.NewFromFloat(899.99),
						decimal.NewFromFloat(999.99), true, false, time.Now(), nil)
				mock.ExpectQuery(`SELECT \* FROM price_alerts WHERE id = \$1`).
					WithArgs(id).
					WillReturnRows(rows)
			},
			wantErr: false,
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock, id uuid.UUID) {
				mock.ExpectQuery(`SELECT \* FROM price_alerts WHERE id = \$1`).
					WithArgs(id).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: true,
			errType: ErrAlertNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			defer func() { _ = db.Close() }()
			repo := NewAlertRepository(db)

			alertID := uuid.New()
			tt.setupMock(mock, alertID)

			alert, err := repo.GetByID(context.Background(), alertID)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errType != nil {
					assert.ErrorIs(t, err, tt.errType)
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, alertID, alert.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAlertRepository_ListByUser(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewAlertRepository(db)

	userID := uuid.New()
	notifiedAt := time.Now()
	rows := sqlmock.NewRows(alertColumns()).
		AddRow(uuid.New(), uuid.New(), userID, decimal.NewFromFloat(899.99),
			decimal.NewFromFloat(999.99), true, false, time.Now(), nil).
		AddRow(uuid.New(), uuid.New(), userID, decimal.NewFromFloat(50),
			decimal.NewFromFloat(80), false, true, time.Now().Add(-time.Hour), notifiedAt)

	mock.ExpectQuery(`SELECT \* FROM price_alerts WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs(userID).
		WillReturnRows(rows)

	alerts, err := repo.ListByUser(context.Background(), userID)

	assert.NoError(t, err)
	assert.Len(t, alerts, 2)
	assert.True(t, alerts[1].Notified)
	assert.NotNil(t, alerts[1].NotifiedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_FindActiveByUserAndProduct(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewAlertRepository(db)

	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM price_alerts WHERE user_id = \$1 AND product_id = \$2 AND active = true`).
		WithArgs(userID, productID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByUserAndProduct(context.Background(), userID, productID)

	assert.ErrorIs(t, err, ErrAlertNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_MarkNotified(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		rowsAffected int64
		want         bool
	}{
		{name: "wins the transition", rowsAffected: 1, want: true},
		{name: "loses the race", rowsAffected: 0, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			defer func() { _ = db.Close() }()
			repo := NewAlertRepository(db)

			alertID := uuid.New()
			mock.ExpectExec(`UPDATE price_alerts\s+SET notified = true, notified_at = NOW\(\)\s+WHERE id = \$1 AND active = true AND notified = false`).
				WithArgs(alertID).
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			won, err := repo.MarkNotified(context.Background(), alertID)

			assert.NoError(t, err)
			assert.Equal(t, tt.want, won)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAlertRepository_MarkNotified_Error(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewAlertRepository(db)

	alertID := uuid.New()
	mock.ExpectExec(`UPDATE price_alerts`).
		WithArgs(alertID).
		WillReturnError(errors.New("connection reset"))

	won, err := repo.MarkNotified(context.Background(), alertID)

	assert.Error(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_Deactivate(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewAlertRepository(db)

	alertID := uuid.New()

	// Second deactivate matches zero rows but still succeeds.
	mock.ExpectExec(`UPDATE price_alerts SET active = false WHERE id = \$1`).
		WithArgs(alertID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE price_alerts SET active = false WHERE id = \$1`).
		WithArgs(alertID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Deactivate(context.Background(), alertID))
	assert.NoError(t, repo.Deactivate(context.Background(), alertID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_ListPending(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewAlertRepository(db)

	rows := sqlmock.NewRows(alertColumns()).
		AddRow(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromFloat(899.99),
			decimal.NewFromFloat(999.99), true, false, time.Now(), nil)

	mock.ExpectQuery(`SELECT \* FROM price_alerts\s+WHERE active = true AND notified = false`).
		WillReturnRows(rows)

	alerts, err := repo.ListPending(context.Background())

	assert.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.True(t, alerts[0].Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_CountWatchersByProduct(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer func() { _ = db.Close() }()
	repo := NewAlertRepository(db)

	productID := uuid.New()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM price_alerts WHERE product_id = \$1 AND active = true`).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountWatchersByProduct(context.Background(), productID)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
