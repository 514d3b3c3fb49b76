package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pricewatch/backend/internal/apperror"
	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/repository"
)

// MockAlertRepo implements AlertRegistryRepository and
// EvaluatorAlertRepository for testing.
type MockAlertRepo struct {
	mock.Mock
}

func (m *MockAlertRepo) Create(ctx context.Context, alert *model.PriceAlert) error {
	args := m.Called(ctx, alert)
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	alert.CreatedAt = time.Now()
	return args.Error(0)
}

func (m *MockAlertRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.PriceAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PriceAlert), args.Error(1)
}

func (m *MockAlertRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PriceAlert, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PriceAlert), args.Error(1)
}

func (m *MockAlertRepo) FindActiveByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*model.PriceAlert, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PriceAlert), args.Error(1)
}

func (m *MockAlertRepo) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAlertRepo) ListPendingByProduct(ctx context.Context, productID uuid.UUID) ([]model.PriceAlert, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PriceAlert), args.Error(1)
}

func (m *MockAlertRepo) ListPending(ctx context.Context) ([]model.PriceAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PriceAlert), args.Error(1)
}

func (m *MockAlertRepo) MarkNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockCatalog implements the Catalog interface for testing.
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockCatalog) GetPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func TestAlertService_Create(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	productID := uuid.New()
	currentPrice := decimal.NewFromFloat(999.99)
	errCount := errors.New("count query failed")

	tests := []struct {
		name      string
		input     CreateAlertInput
		setupMock func(*MockAlertRepo, *MockCatalog)
		wantErr   error
		check     func(*testing.T, *model.PriceAlert)
	}{
		{
			name: "success snapshots current price",
			input: CreateAlertInput{
				ProductID:   productID,
				TargetPrice: decimal.NewFromFloat(899.99),
			},
			setupMock: func(repo *MockAlertRepo, catalog *MockCatalog) {
				catalog.On("GetByID", mock.Anything, productID).
					Return(&model.Product{ID: productID, Name: "iPhone 15 Pro", Price: currentPrice}, nil)
				repo.On("CountActiveByUser", mock.Anything, userID).Return(int64(2), nil)
				repo.On("FindActiveByUserAndProduct", mock.Anything, userID, productID).
					Return(nil, repository.ErrAlertNotFound)
				repo.On("Create", mock.Anything, mock.AnythingOfType("*model.PriceAlert")).Return(nil)
			},
			check: func(t *testing.T, alert *model.PriceAlert) {
				assert.True(t, alert.Active)
				assert.False(t, alert.Notified)
				assert.Nil(t, alert.NotifiedAt)
				assert.True(t, alert.OriginalPrice.Equal(currentPrice))
				assert.True(t, alert.TargetPrice.Equal(decimal.NewFromFloat(899.99)))
				assert.Equal(t, userID, alert.UserID)
			},
		},
		{
			name: "zero target price rejected",
			input: CreateAlertInput{
				ProductID:   productID,
				TargetPrice: decimal.Zero,
			},
			setupMock: func(repo *MockAlertRepo, catalog *MockCatalog) {},
			wantErr:   apperror.ErrValidation,
		},
		{
			name: "negative target price rejected",
			input: CreateAlertInput{
				ProductID:   productID,
				TargetPrice: decimal.NewFromFloat(-5),
			},
			setupMock: func(repo *MockAlertRepo, catalog *MockCatalog) {},
			wantErr:   apperror.ErrValidation,
		},
		{
			name: "unknown product",
			input: CreateAlertInput{
				ProductID:   productID,
				TargetPrice: decimal.NewFromFloat(899.99),
			},
			setupMock: func(repo *MockAlertRepo, catalog *MockCatalog) {
				catalog.On("GetByID", mock.Anything, productID).
					Return(nil, repository.ErrProductNotFound)
			},
			wantErr: apperror.ErrNotFound,
		},
		{
			name: "duplicate active watch conflicts",
			input: CreateAlertInput{
				ProductID:   productID,
				TargetPrice: decimal.NewFromFloat(899.99),
			},
			setupMock: func(repo *MockAlertRepo, catalog *MockCatalog) {
				catalog.On("GetByID", mock.Anything, productID).
					Return(&model.Product{ID: productID, Price: currentPrice}, nil)
				repo.On("CountActiveByUser", mock.Anything, userID).Return(int64(2), nil)
				repo.On("FindActiveByUserAndProduct", mock.Anything, userID, productID).
					Return(&model.PriceAlert{ID: uuid.New(), Active: true}, nil)
			},
			wantErr: apperror.ErrConflict,
		},
		{
			name: "count lookup failure surfaces",
			input: CreateAlertInput{
				ProductID:   productID,
				TargetPrice: decimal.NewFromFloat(899.99),
			},
			setupMock: func(repo *MockAlertRepo, catalog *MockCatalog) {
				catalog.On("GetByID", mock.Anything, productID).
					Return(&model.Product{ID: productID, Price: currentPrice}, nil)
				repo.On("CountActiveByUser", mock.Anything, userID).Return(int64(0), errCount)
			},
			wantErr: errCount,
		},
		{
			name: "watch limit reached",
			input: CreateAlertInput{
				ProductID:   productID,
				TargetPrice: decimal.NewFromFloat(899.99),
			},
			setupMock: func(repo *MockAlertRepo, catalog *MockCatalog) {
				catalog.On("GetByID", mock.Anything, productID).
					Return(&model.Product{ID: productID, Price: currentPrice}, nil)
				repo.On("CountActiveByUser", mock.Anything, userID).Return(int64(100), nil)
			},
			wantErr: apperror.ErrConflict,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := new(MockAlertRepo)
			catalog := new(MockCatalog)
			tt.setupMock(repo, catalog)

			svc := NewAlertService(repo, catalog)
			alert, err := svc.Create(context.Background(), userID, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, alert)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, alert)
				}
			}
			repo.AssertExpectations(t)
			catalog.AssertExpectations(t)
		})
	}
}

func TestAlertService_List(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := new(MockAlertRepo)
	catalog := new(MockCatalog)

	alerts := []model.PriceAlert{
		{ID: uuid.New(), UserID: userID, Active: true},
		{ID: uuid.New(), UserID: userID, Active: false, Notified: true},
	}
	repo.On("ListByUser", mock.Anything, userID).Return(alerts, nil)

	svc := NewAlertService(repo, catalog)
	got, err := svc.List(context.Background(), userID)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	repo.AssertExpectations(t)
}

func TestAlertService_Cancel(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	alertID := uuid.New()

	tests := []struct {
		name      string
		setupMock func(*MockAlertRepo)
		wantErr   error
	}{
		{
			name: "success",
			setupMock: func(repo *MockAlertRepo) {
				repo.On("GetByID", mock.Anything, alertID).
					Return(&model.PriceAlert{ID: alertID, UserID: userID, Active: true}, nil)
				repo.On("Deactivate", mock.Anything, alertID).Return(nil)
			},
		},
		{
			name: "unknown alert",
			setupMock: func(repo *MockAlertRepo) {
				repo.On("GetByID", mock.Anything, alertID).
					Return(nil, repository.ErrAlertNotFound)
			},
			wantErr: apperror.ErrNotFound,
		},
		{
			name: "alert owned by someone else",
			setupMock: func(repo *MockAlertRepo) {
				repo.On("GetByID", mock.Anything, alertID).
					Return(&model.PriceAlert{ID: alertID, UserID: uuid.New(), Active: true}, nil)
			},
			wantErr: apperror.ErrForbidden,
		},
		{
			name: "already inactive succeeds silently",
			setupMock: func(repo *MockAlertRepo) {
				repo.On("GetByID", mock.Anything, alertID).
					Return(&model.PriceAlert{ID: alertID, UserID: userID, Active: false}, nil)
				// Deactivate is not called again
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := new(MockAlertRepo)
			tt.setupMock(repo)

			svc := NewAlertService(repo, new(MockCatalog))
			err := svc.Cancel(context.Background(), userID, alertID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAlertService_Cancel_Idempotent(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	alertID := uuid.New()

	repo := new(MockAlertRepo)
	active := &model.PriceAlert{ID: alertID, UserID: userID, Active: true}
	inactive := &model.PriceAlert{ID: alertID, UserID: userID, Active: false}

	repo.On("GetByID", mock.Anything, alertID).Return(active, nil).Once()
	repo.On("Deactivate", mock.Anything, alertID).Return(nil).Once()
	repo.On("GetByID", mock.Anything, alertID).Return(inactive, nil).Once()

	svc := NewAlertService(repo, new(MockCatalog))

	assert.NoError(t, svc.Cancel(context.Background(), userID, alertID))
	assert.NoError(t, svc.Cancel(context.Background(), userID, alertID))
	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "Deactivate", 1)
}
