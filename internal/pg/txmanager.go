package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TransactionalFn func(ctx context.Context) error

type TXManager interface {
	Begin(ctx context.Context, fn TransactionalFn) error
}

type Beginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type txManager struct {
	db          Beginner
	lockTimeout time.Duration
}

type Option func(*txManager)

// WithLockTimeout bounds how long any statement of the transaction waits for a row lock.
func WithLockTimeout(d time.Duration) Option {
	return func(m *txManager) {
		m.lockTimeout = d
	}
}

func NewTXManager(db Beginner, opts ...Option) TXManager {
	m := &txManager{db: db}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin runs fn inside one transaction. A context that already carries a
// transaction is joined instead, so nested calls commit or abort as one unit.
func (m *txManager) Begin(ctx context.Context, fn TransactionalFn) (err error) {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		zap.L().Error("failed to begin transaction", zap.Error(err))
		return Classify(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				zap.L().Error("failed to rollback transaction", zap.Error(rbErr))
			}
			err = Classify(err)
			return
		}
		if cErr := tx.Commit(ctx); cErr != nil {
			zap.L().Error("failed to commit transaction", zap.Error(cErr))
			err = Classify(fmt.Errorf("commit transaction: %w", cErr))
		}
	}()

	if m.lockTimeout > 0 {
		// SET does not accept bind parameters.
		if _, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", m.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return fn(WithTx(ctx, tx))
}
