package inventoryrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
)

const (
	// Rows locked by other in-flight claims are skipped, never waited on:
	// contention is per unit, not per SKU.
	claimAvailableQuery = `
		SELECT id, sku, code, status, created_at
		FROM inventory_units
		WHERE sku = $1 AND status = 'available'
		ORDER BY id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	markDeliveredQuery = `
		UPDATE inventory_units
		SET status = 'delivered', delivered_at = $1, buyer_account_id = $2, order_id = $3
		WHERE id = $4 AND status = 'available'
	`
	insertBatchQuery = `
		INSERT INTO inventory_units (sku, code)
		SELECT $1, t.code
		FROM unnest($2::text[]) WITH ORDINALITY AS t(code, n)
		ORDER BY t.n
	`
	countAvailableQuery = `
		SELECT COUNT(*)
		FROM inventory_units
		WHERE sku = $1 AND status = 'available'
	`
	listStockQuery = `
		SELECT c.sku, COUNT(u.id) AS available
		FROM catalog_entries c
		LEFT JOIN inventory_units u ON u.sku = c.sku AND u.status = 'available'
		GROUP BY c.sku
		ORDER BY c.sku
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

// ClaimAvailable locks the oldest still-available unit of sku for the current transaction.
// It returns nil when every available unit is either gone or locked by another claim.
func (r *Repository) ClaimAvailable(ctx context.Context, sku string) (*domain.InventoryUnit, error) {
	var unit domain.InventoryUnit
	err := r.db.QueryRow(ctx, claimAvailableQuery, sku).
		Scan(&unit.ID, &unit.SKU, &unit.Code, &unit.Status, &unit.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't claim inventory unit", zap.String("sku", sku), zap.Error(err))
		return nil, err
	}
	return &unit, nil
}

func (r *Repository) MarkDelivered(ctx context.Context, unitID int64, accountID int64, orderID string, at time.Time) error {
	tag, err := r.db.Exec(ctx, markDeliveredQuery, at, accountID, orderID, unitID)
	if err != nil {
		zap.L().Error("can't mark inventory unit delivered", zap.Int64("unit_id", unitID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: unit %d was not available at delivery", domain.ErrIntegrity, unitID)
	}
	return nil
}

// InsertBatch appends codes in slice order, so ids (and FIFO consumption) follow the input.
func (r *Repository) InsertBatch(ctx context.Context, sku string, codes []string) (int64, error) {
	tag, err := r.db.Exec(ctx, insertBatchQuery, sku, codes)
	if err != nil {
		zap.L().Error("can't insert inventory batch", zap.String("sku", sku), zap.Int("size", len(codes)), zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) CountAvailable(ctx context.Context, sku string) (int64, error) {
	var available int64
	if err := r.db.QueryRow(ctx, countAvailableQuery, sku).Scan(&available); err != nil {
		zap.L().Error("can't count available units", zap.String("sku", sku), zap.Error(err))
		return 0, err
	}
	return available, nil
}

func (r *Repository) ListStock(ctx context.Context) ([]domain.Stock, error) {
	rows, err := r.db.Query(ctx, listStockQuery)
	if err != nil {
		zap.L().Error("can't list stock", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var stock []domain.Stock
	for rows.Next() {
		var s domain.Stock
		if err := rows.Scan(&s.SKU, &s.Available); err != nil {
			zap.L().Error("can't scan stock row", zap.Error(err))
			return nil, err
		}
		stock = append(stock, s)
	}
	return stock, rows.Err()
}
