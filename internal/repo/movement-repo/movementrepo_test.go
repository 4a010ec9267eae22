package movementrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/codeshop/internal/domain"
)

var columns = []string{"id", "account_id", "kind", "amount", "balance_before", "balance_after", "reference", "created_at"}

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	return New(mockDB), mockDB
}

func TestRepository_Append(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Appended",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(appendQuery)).
					WithArgs(int64(1), domain.MovementPurchase, int64(-300), int64(500), int64(200), "order:10000000000000000009", now).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(17)))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(appendQuery)).
					WithArgs(int64(1), domain.MovementPurchase, int64(-300), int64(500), int64(200), "order:10000000000000000009", now).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			movement := &domain.BalanceMovement{
				AccountID:     1,
				Kind:          domain.MovementPurchase,
				Amount:        -300,
				BalanceBefore: 500,
				BalanceAfter:  200,
				Reference:     "order:10000000000000000009",
				CreatedAt:     now,
			}
			result, err := repo.Append(context.Background(), movement)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, int64(17), result.ID)
		})
	}
}

func TestRepository_ListByAccount(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(listByAccountQuery)).
		WithArgs(int64(1), 20).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(2), int64(1), domain.MovementPurchase, int64(-300), int64(500), int64(200), "order:1", now).
			AddRow(int64(1), int64(1), domain.MovementTopup, int64(500), int64(0), int64(500), "operator:9", now))

	movements, err := repo.ListByAccount(context.Background(), 1, 20)

	assert.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, int64(2), movements[0].ID)
	assert.Equal(t, domain.MovementTopup, movements[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListChain(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(listChainQuery)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(1), int64(1), domain.MovementTopup, int64(500), int64(0), int64(500), "operator:9", now).
			AddRow(int64(2), int64(1), domain.MovementPurchase, int64(-300), int64(500), int64(200), "order:1", now))

	movements, err := repo.ListChain(context.Background(), 1)

	assert.NoError(t, err)
	assert.NoError(t, domain.VerifyChain(200, movements))
}

func TestRepository_ListChain_Error(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(listChainQuery)).
		WithArgs(int64(1)).
		WillReturnError(errors.New("database error"))

	movements, err := repo.ListChain(context.Background(), 1)

	assert.Error(t, err)
	assert.Nil(t, movements)
}
