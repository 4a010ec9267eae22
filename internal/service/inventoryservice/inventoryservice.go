package inventoryservice

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
	"github.com/GlebRadaev/codeshop/pkg/validate"
)

type InventoryRepo interface {
	ClaimAvailable(ctx context.Context, sku string) (*domain.InventoryUnit, error)
	MarkDelivered(ctx context.Context, unitID int64, accountID int64, orderID string, at time.Time) error
	InsertBatch(ctx context.Context, sku string, codes []string) (int64, error)
	CountAvailable(ctx context.Context, sku string) (int64, error)
	ListStock(ctx context.Context) ([]domain.Stock, error)
}

type CatalogRepo interface {
	FindBySKU(ctx context.Context, sku string) (*domain.CatalogEntry, error)
	Ensure(ctx context.Context, sku string) (bool, error)
}

type Service struct {
	inventoryRepo InventoryRepo
	catalogRepo   CatalogRepo
	txManager     pg.TXManager
}

func New(inventoryRepo InventoryRepo, catalogRepo CatalogRepo, txManager pg.TXManager) *Service {
	return &Service{
		inventoryRepo: inventoryRepo,
		catalogRepo:   catalogRepo,
		txManager:     txManager,
	}
}

// ClaimOne resolves sku and claims its oldest available unit. The claim is a row lock
// owned by the caller's transaction: Finalize must follow in that same transaction,
// and a context without one is refused with pg.ErrNoTransaction.
func (s *Service) ClaimOne(ctx context.Context, sku string) (*domain.InventoryUnit, error) {
	if _, ok := pg.TxFromContext(ctx); !ok {
		return nil, pg.ErrNoTransaction
	}
	entry, err := s.catalogRepo.FindBySKU(ctx, domain.NormalizeSKU(sku))
	if err != nil {
		return nil, err
	}
	return s.Claim(ctx, entry)
}

// Claim is ClaimOne for an entry the caller has already resolved.
func (s *Service) Claim(ctx context.Context, entry *domain.CatalogEntry) (*domain.InventoryUnit, error) {
	if _, ok := pg.TxFromContext(ctx); !ok {
		return nil, pg.ErrNoTransaction
	}
	if entry == nil {
		return nil, domain.ErrUnknownSku
	}
	if !entry.Active {
		return nil, domain.ErrProductInactive
	}
	unit, err := s.inventoryRepo.ClaimAvailable(ctx, entry.SKU)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, domain.ErrStockExhausted
	}
	return unit, nil
}

// Finalize writes the delivery fields of a claimed unit. They are never written again.
func (s *Service) Finalize(ctx context.Context, unit *domain.InventoryUnit, accountID int64, orderID string, at time.Time) error {
	if err := s.inventoryRepo.MarkDelivered(ctx, unit.ID, accountID, orderID, at); err != nil {
		return err
	}
	unit.Status = domain.UnitDelivered
	unit.DeliveredAt = &at
	unit.BuyerID = &accountID
	unit.OrderID = &orderID
	return nil
}

// LoadInventory appends a batch of codes to sku in input order. Blank lines and
// repeats within the batch are dropped. A SKU the catalog has never seen is
// created unpriced and inactive so nothing can be sold before the operator prices it.
func (s *Service) LoadInventory(ctx context.Context, sku string, payloads []string) (*domain.LoadResult, error) {
	sku = domain.NormalizeSKU(sku)
	if !validate.IsSKU(sku) {
		return nil, domain.ErrInvalidSku
	}

	result := &domain.LoadResult{SKU: sku}
	seen := make(map[string]struct{}, len(payloads))
	codes := make([]string, 0, len(payloads))
	for _, p := range payloads {
		code := strings.TrimSpace(p)
		if code == "" {
			result.SkippedBlank++
			continue
		}
		if _, dup := seen[code]; dup {
			result.SkippedDuplicate++
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return result, nil
	}

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		created, err := s.catalogRepo.Ensure(ctx, sku)
		if err != nil {
			return err
		}
		result.CreatedProduct = created

		loaded, err := s.inventoryRepo.InsertBatch(ctx, sku, codes)
		if err != nil {
			return err
		}
		result.Loaded = loaded
		return nil
	})
	if err != nil {
		zap.L().Error("failed to load inventory", zap.String("sku", sku), zap.Error(err))
		return nil, err
	}

	zap.L().Info("inventory loaded",
		zap.String("sku", sku),
		zap.Int64("loaded", result.Loaded),
		zap.Int("skipped_blank", result.SkippedBlank),
		zap.Int("skipped_duplicate", result.SkippedDuplicate),
		zap.Bool("created_product", result.CreatedProduct))
	return result, nil
}

func (s *Service) GetStock(ctx context.Context, sku string) (*domain.Stock, error) {
	sku = domain.NormalizeSKU(sku)
	entry, err := s.catalogRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrUnknownSku
	}
	available, err := s.inventoryRepo.CountAvailable(ctx, sku)
	if err != nil {
		return nil, err
	}
	return &domain.Stock{SKU: sku, Available: available}, nil
}

func (s *Service) ListStock(ctx context.Context) ([]domain.Stock, error) {
	return s.inventoryRepo.ListStock(ctx)
}
