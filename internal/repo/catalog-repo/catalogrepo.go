package catalogrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
)

const (
	findBySKUQuery = `
		SELECT sku, name, price, active, created_at
		FROM catalog_entries
		WHERE sku = $1
	`
	listActiveQuery = `
		SELECT sku, name, price, active, created_at
		FROM catalog_entries
		WHERE active
		ORDER BY name, sku
	`
	listAllQuery = `
		SELECT sku, name, price, active, created_at
		FROM catalog_entries
		ORDER BY sku
	`
	createQuery = `
		INSERT INTO catalog_entries (sku, name, price, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	ensureQuery = `
		INSERT INTO catalog_entries (sku, name, price, active)
		VALUES ($1, $1, 0, FALSE)
		ON CONFLICT (sku) DO NOTHING
	`
	updatePriceQuery  = `UPDATE catalog_entries SET price = $1 WHERE sku = $2`
	updateNameQuery   = `UPDATE catalog_entries SET name = $1 WHERE sku = $2`
	updateActiveQuery = `UPDATE catalog_entries SET active = $1 WHERE sku = $2`
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) FindBySKU(ctx context.Context, sku string) (*domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	err := r.db.QueryRow(ctx, findBySKUQuery, sku).
		Scan(&entry.SKU, &entry.Name, &entry.Price, &entry.Active, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find catalog entry", zap.String("sku", sku), zap.Error(err))
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]domain.CatalogEntry, error) {
	return r.list(ctx, listActiveQuery)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	return r.list(ctx, listAllQuery)
}

func (r *Repository) list(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("can't list catalog", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		var entry domain.CatalogEntry
		if err := rows.Scan(&entry.SKU, &entry.Name, &entry.Price, &entry.Active, &entry.CreatedAt); err != nil {
			zap.L().Error("can't scan catalog row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *Repository) Create(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error) {
	err := r.db.QueryRow(ctx, createQuery, entry.SKU, entry.Name, entry.Price, entry.Active).Scan(&entry.CreatedAt)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		zap.L().Error("can't create catalog entry", zap.String("sku", entry.SKU), zap.Error(err))
		return nil, err
	}
	return entry, nil
}

// Ensure creates a placeholder entry named after the SKU: unpriced and inactive.
// It reports whether a row was inserted.
func (r *Repository) Ensure(ctx context.Context, sku string) (bool, error) {
	tag, err := r.db.Exec(ctx, ensureQuery, sku)
	if err != nil {
		zap.L().Error("can't ensure catalog entry", zap.String("sku", sku), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) UpdatePrice(ctx context.Context, sku string, price int64) (bool, error) {
	return r.update(ctx, updatePriceQuery, price, sku)
}

func (r *Repository) UpdateName(ctx context.Context, sku string, name string) (bool, error) {
	return r.update(ctx, updateNameQuery, name, sku)
}

func (r *Repository) UpdateActive(ctx context.Context, sku string, active bool) (bool, error) {
	return r.update(ctx, updateActiveQuery, active, sku)
}

func (r *Repository) update(ctx context.Context, query string, value any, sku string) (bool, error) {
	tag, err := r.db.Exec(ctx, query, value, sku)
	if err != nil {
		zap.L().Error("failed to update catalog entry", zap.String("sku", sku), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
