package pg

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/codeshop/internal/domain"
)

func TestTXManager_Begin(t *testing.T) {
	errBusiness := errors.New("business error")

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		fn        func(t *testing.T, m TXManager) TransactionalFn
		expectErr error
	}{
		{
			name: "Commits on success",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = 3000")).
					WillReturnResult(pgxmock.NewResult("SET", 0))
				mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = $1 WHERE id = $2")).
					WithArgs(int64(200), int64(1)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
			fn: func(t *testing.T, _ TXManager) TransactionalFn {
				return func(ctx context.Context) error {
					tx, ok := TxFromContext(ctx)
					require.True(t, ok)
					_, err := tx.Exec(ctx, "UPDATE accounts SET balance = $1 WHERE id = $2", int64(200), int64(1))
					return err
				}
			},
		},
		{
			name: "Rolls back when fn fails",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = 3000")).
					WillReturnResult(pgxmock.NewResult("SET", 0))
				mock.ExpectRollback()
			},
			fn: func(*testing.T, TXManager) TransactionalFn {
				return func(context.Context) error { return errBusiness }
			},
			expectErr: errBusiness,
		},
		{
			name: "Nested Begin joins the outer transaction",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = 3000")).
					WillReturnResult(pgxmock.NewResult("SET", 0))
				mock.ExpectCommit()
			},
			fn: func(t *testing.T, m TXManager) TransactionalFn {
				return func(ctx context.Context) error {
					outer, _ := TxFromContext(ctx)
					return m.Begin(ctx, func(ctx context.Context) error {
						inner, ok := TxFromContext(ctx)
						require.True(t, ok)
						assert.Same(t, outer, inner)
						return nil
					})
				}
			},
		},
		{
			name: "Begin failure",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			fn: func(t *testing.T, _ TXManager) TransactionalFn {
				return func(context.Context) error {
					t.Error("fn must not run without a transaction")
					return nil
				}
			},
			expectErr: nil,
		},
		{
			name: "Lock timeout is retryable",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = 3000")).
					WillReturnResult(pgxmock.NewResult("SET", 0))
				mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = $1 WHERE id = $2")).
					WithArgs(int64(200), int64(1)).
					WillReturnError(&pgconn.PgError{Code: CodeLockNotAvailable})
				mock.ExpectRollback()
			},
			fn: func(*testing.T, TXManager) TransactionalFn {
				return func(ctx context.Context) error {
					tx, _ := TxFromContext(ctx)
					_, err := tx.Exec(ctx, "UPDATE accounts SET balance = $1 WHERE id = $2", int64(200), int64(1))
					return err
				}
			},
			expectErr: domain.ErrRetryable,
		},
		{
			name: "Serialization failure on commit is retryable",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = 3000")).
					WillReturnResult(pgxmock.NewResult("SET", 0))
				mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: CodeSerializationFailure})
			},
			fn: func(*testing.T, TXManager) TransactionalFn {
				return func(context.Context) error { return nil }
			},
			expectErr: domain.ErrRetryable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			m := NewTXManager(mock, WithLockTimeout(3*time.Second))
			tt.mockSetup(mock)

			err = m.Begin(context.Background(), tt.fn(t, m))
			switch {
			case tt.name == "Begin failure":
				assert.Error(t, err)
			case tt.expectErr != nil:
				assert.ErrorIs(t, err, tt.expectErr)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTXManager_WithoutLockTimeout(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	m := NewTXManager(mock)
	err = m.Begin(context.Background(), func(context.Context) error { return nil })

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTXManager_DeadlineIsRetryable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	m := NewTXManager(mock)
	err = m.Begin(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, domain.ErrRetryable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, domain.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
