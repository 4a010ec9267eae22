package movementrepo

import (
	"context"

	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
)

const (
	movementColumns = `id, account_id, kind, amount, balance_before, balance_after, reference, created_at`

	appendQuery = `
		INSERT INTO balance_movements (account_id, kind, amount, balance_before, balance_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	listByAccountQuery = `
		SELECT ` + movementColumns + `
		FROM balance_movements
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	listChainQuery = `
		SELECT ` + movementColumns + `
		FROM balance_movements
		WHERE account_id = $1
		ORDER BY id
	`
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Append(ctx context.Context, movement *domain.BalanceMovement) (*domain.BalanceMovement, error) {
	err := r.db.QueryRow(ctx, appendQuery,
		movement.AccountID, movement.Kind, movement.Amount,
		movement.BalanceBefore, movement.BalanceAfter, movement.Reference, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		zap.L().Error("can't append balance movement", zap.Int64("account_id", movement.AccountID), zap.Error(err))
		return nil, err
	}
	return movement, nil
}

// ListByAccount returns the latest movements of an account, newest first.
func (r *Repository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]domain.BalanceMovement, error) {
	return r.list(ctx, listByAccountQuery, accountID, limit)
}

// ListChain returns the full history of an account in id order, the order it replays in.
func (r *Repository) ListChain(ctx context.Context, accountID int64) ([]domain.BalanceMovement, error) {
	return r.list(ctx, listChainQuery, accountID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.BalanceMovement, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't get balance movements", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var movements []domain.BalanceMovement
	for rows.Next() {
		var m domain.BalanceMovement
		err := rows.Scan(&m.ID, &m.AccountID, &m.Kind, &m.Amount, &m.BalanceBefore, &m.BalanceAfter, &m.Reference, &m.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan balance movement", zap.Error(err))
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
