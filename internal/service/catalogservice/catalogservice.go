package catalogservice

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/pkg/validate"
)

type Repo interface {
	FindBySKU(ctx context.Context, sku string) (*domain.CatalogEntry, error)
	ListActive(ctx context.Context) ([]domain.CatalogEntry, error)
	ListAll(ctx context.Context) ([]domain.CatalogEntry, error)
	Create(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error)
	UpdatePrice(ctx context.Context, sku string, price int64) (bool, error)
	UpdateName(ctx context.Context, sku string, name string) (bool, error)
	UpdateActive(ctx context.Context, sku string, active bool) (bool, error)
}

// Service manages catalog metadata. Entries are deactivated, never deleted:
// orders keep referencing them.
type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{
		repo: repo,
	}
}

// ListCatalog returns the active entries in menu order.
func (s *Service) ListCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := s.repo.ListActive(ctx)
	if err != nil {
		zap.L().Error("failed to list catalog", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) GetProduct(ctx context.Context, sku string) (*domain.CatalogEntry, error) {
	entry, err := s.repo.FindBySKU(ctx, domain.NormalizeSKU(sku))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrUnknownSku
	}
	return entry, nil
}

func (s *Service) CreateProduct(ctx context.Context, sku string, name string, price int64, active bool) (*domain.CatalogEntry, error) {
	sku = domain.NormalizeSKU(sku)
	if !validate.IsSKU(sku) {
		return nil, domain.ErrInvalidSku
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidAmount)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = sku
	}

	entry, err := s.repo.Create(ctx, &domain.CatalogEntry{SKU: sku, Name: name, Price: price, Active: active})
	if err != nil {
		return nil, err
	}
	zap.L().Info("product created", zap.String("sku", sku), zap.Int64("price", price), zap.Bool("active", active))
	return entry, nil
}

func (s *Service) SetPrice(ctx context.Context, sku string, price int64) error {
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidAmount)
	}
	sku = domain.NormalizeSKU(sku)
	return s.applyUpdate(sku, "price", func() (bool, error) {
		return s.repo.UpdatePrice(ctx, sku, price)
	})
}

func (s *Service) SetName(ctx context.Context, sku string, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidName
	}
	sku = domain.NormalizeSKU(sku)
	return s.applyUpdate(sku, "name", func() (bool, error) {
		return s.repo.UpdateName(ctx, sku, name)
	})
}

// SetActive only affects purchases that have not resolved the entry yet.
func (s *Service) SetActive(ctx context.Context, sku string, active bool) error {
	sku = domain.NormalizeSKU(sku)
	return s.applyUpdate(sku, "active", func() (bool, error) {
		return s.repo.UpdateActive(ctx, sku, active)
	})
}

func (s *Service) applyUpdate(sku string, field string, update func() (bool, error)) error {
	found, err := update()
	if err != nil {
		zap.L().Error("failed to update product", zap.String("sku", sku), zap.String("field", field), zap.Error(err))
		return err
	}
	if !found {
		return domain.ErrUnknownSku
	}
	zap.L().Info("product updated", zap.String("sku", sku), zap.String("field", field))
	return nil
}
