package orderrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
)

var columns = []string{"id", "account_id", "sku", "price", "status", "idempotency_key", "created_at", "delivered_at"}

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	return New(mockDB), mockDB
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()
	order := &domain.Order{
		ID:          "10000000000000000009",
		AccountID:   1,
		SKU:         "DISNEY_1M",
		Price:       300,
		Status:      domain.OrderFulfilled,
		CreatedAt:   now,
		DeliveredAt: now,
	}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr error
	}{
		{
			name: "Saved",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(createQuery)).
					WithArgs(order.ID, order.AccountID, order.SKU, order.Price, order.Status, "", now, now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "Id collision is an integrity error",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(createQuery)).
					WithArgs(order.ID, order.AccountID, order.SKU, order.Price, order.Status, "", now, now).
					WillReturnError(&pgconn.PgError{Code: pg.CodeUniqueViolation})
			},
			expectErr: domain.ErrIntegrity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.Create(context.Background(), order)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.Order
	}{
		{
			name: "Order exists",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findByIDQuery)).
					WithArgs("10000000000000000009").
					WillReturnRows(pgxmock.NewRows(columns).
						AddRow("10000000000000000009", int64(1), "DISNEY_1M", int64(300), domain.OrderFulfilled, "", now, now))
			},
			result: &domain.Order{
				ID: "10000000000000000009", AccountID: 1, SKU: "DISNEY_1M", Price: 300,
				Status: domain.OrderFulfilled, CreatedAt: now, DeliveredAt: now,
			},
		},
		{
			name: "Order does not exist",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findByIDQuery)).
					WithArgs("10000000000000000009").
					WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findByIDQuery)).
					WithArgs("10000000000000000009").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByID(context.Background(), "10000000000000000009")
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.result, result)
		})
	}
}

func TestRepository_FindByIdempotencyKey(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()
	key := "6f1c1f0e-7d0a-4c55-9a43-1f1c2b8e9d10"

	mock.ExpectQuery(regexp.QuoteMeta(findByIdempotencyKeyQuery)).
		WithArgs(int64(1), key).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("10000000000000000009", int64(1), "DISNEY_1M", int64(300), domain.OrderFulfilled, key, now, now))

	order, err := repo.FindByIdempotencyKey(context.Background(), 1, key)

	assert.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "10000000000000000009", order.ID)
	assert.Equal(t, key, order.IdempotencyKey)
}

func TestRepository_FindRecentByAccount(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    []domain.Order
	}{
		{
			name: "Most recent first",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findRecentByAccountQuery)).
					WithArgs(int64(1), 10).
					WillReturnRows(pgxmock.NewRows(columns).
						AddRow("20000000000000000008", int64(1), "NETFLIX_1M", int64(250), domain.OrderFulfilled, "", now, now).
						AddRow("10000000000000000009", int64(1), "DISNEY_1M", int64(300), domain.OrderFulfilled, "", earlier, earlier))
			},
			result: []domain.Order{
				{ID: "20000000000000000008", AccountID: 1, SKU: "NETFLIX_1M", Price: 250, Status: domain.OrderFulfilled, CreatedAt: now, DeliveredAt: now},
				{ID: "10000000000000000009", AccountID: 1, SKU: "DISNEY_1M", Price: 300, Status: domain.OrderFulfilled, CreatedAt: earlier, DeliveredAt: earlier},
			},
		},
		{
			name: "No orders",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findRecentByAccountQuery)).
					WithArgs(int64(1), 10).
					WillReturnRows(pgxmock.NewRows(columns))
			},
			result: nil,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(findRecentByAccountQuery)).
					WithArgs(int64(1), 10).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindRecentByAccount(context.Background(), 1, 10)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.result, result)
		})
	}
}
