package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
)

const (
	orderColumns = `id, account_id, sku, price, status, idempotency_key, created_at, delivered_at`

	createQuery = `
		INSERT INTO orders (id, account_id, sku, price, status, idempotency_key, created_at, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	findByIDQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`
	findByIdempotencyKeyQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE account_id = $1 AND idempotency_key = $2
	`
	findRecentByAccountQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE account_id = $1
		ORDER BY delivered_at DESC, id
		LIMIT $2
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

// Create persists an immutable order. Any unique violation (id or idempotency key)
// means the caller's view of existing orders was wrong and is reported as an integrity error.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.db.Exec(ctx, createQuery,
		order.ID, order.AccountID, order.SKU, order.Price, order.Status,
		order.IdempotencyKey, order.CreatedAt, order.DeliveredAt)
	if err != nil {
		zap.L().Error("can't save order", zap.String("order_id", order.ID), zap.Error(err))
		if pg.IsUniqueViolation(err) {
			return fmt.Errorf("%w: order %s collides with an existing order: %w", domain.ErrIntegrity, order.ID, err)
		}
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, findByIDQuery, id)
}

func (r *Repository) FindByIdempotencyKey(ctx context.Context, accountID int64, key string) (*domain.Order, error) {
	return r.findOne(ctx, findByIdempotencyKeyQuery, accountID, key)
}

func (r *Repository) findOne(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

// FindRecentByAccount returns at most limit orders, most recently delivered first.
func (r *Repository) FindRecentByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, findRecentByAccountQuery, accountID, limit)
	if err != nil {
		zap.L().Error("can't get orders", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			zap.L().Error("can't scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(&order.ID, &order.AccountID, &order.SKU, &order.Price, &order.Status,
		&order.IdempotencyKey, &order.CreatedAt, &order.DeliveredAt)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
