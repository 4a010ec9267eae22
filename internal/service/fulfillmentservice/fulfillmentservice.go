package fulfillmentservice

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
	"github.com/GlebRadaev/codeshop/pkg/validate"
)

type CatalogRepo interface {
	FindBySKU(ctx context.Context, sku string) (*domain.CatalogEntry, error)
}

type OrderRepo interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByIdempotencyKey(ctx context.Context, accountID int64, key string) (*domain.Order, error)
	FindRecentByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Order, error)
}

type Allocator interface {
	Claim(ctx context.Context, entry *domain.CatalogEntry) (*domain.InventoryUnit, error)
	Finalize(ctx context.Context, unit *domain.InventoryUnit, accountID int64, orderID string, at time.Time) error
}

type Ledger interface {
	LockBalance(ctx context.Context, accountID int64) (int64, error)
	ApplyMovement(ctx context.Context, accountID int64, kind domain.MovementKind, amount int64, reference string) (*domain.BalanceMovement, error)
}

type IDGenerator interface {
	NewOrderID() (string, error)
}

type Alerter interface {
	Notify(ctx context.Context, alert domain.Alert)
}

type Config struct {
	TxTimeout         time.Duration
	RecentOrdersLimit int
	MaxOrdersLimit    int
}

type Service struct {
	catalogRepo CatalogRepo
	orderRepo   OrderRepo
	allocator   Allocator
	ledger      Ledger
	ids         IDGenerator
	txManager   pg.TXManager
	alerter     Alerter
	cfg         Config
	now         func() time.Time
}

func New(
	catalogRepo CatalogRepo,
	orderRepo OrderRepo,
	allocator Allocator,
	ledger Ledger,
	ids IDGenerator,
	txManager pg.TXManager,
	alerter Alerter,
	cfg Config,
) *Service {
	return &Service{
		catalogRepo: catalogRepo,
		orderRepo:   orderRepo,
		allocator:   allocator,
		ledger:      ledger,
		ids:         ids,
		txManager:   txManager,
		alerter:     alerter,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Purchase converts balance and one inventory unit into a fulfilled order.
//
// Every step runs in one transaction: either the order, the delivered unit and
// the debit all commit together, or nothing is written. The transaction is
// detached from the caller's cancellation and bounded by the configured
// timeout instead, so an abandoned request still ends in a clean commit or
// rollback. The redeemable code is returned here and nowhere else; a replay
// carrying the same idempotency key gets the original order id only.
func (s *Service) Purchase(ctx context.Context, req domain.PurchaseRequest) (*domain.Receipt, error) {
	sku := domain.NormalizeSKU(req.SKU)
	if !validate.IsSKU(sku) {
		return nil, domain.ErrInvalidSku
	}

	txCtx := context.WithoutCancel(ctx)
	if s.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(txCtx, s.cfg.TxTimeout)
		defer cancel()
	}

	var receipt *domain.Receipt
	err := s.txManager.Begin(txCtx, func(ctx context.Context) error {
		entry, err := s.catalogRepo.FindBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrUnknownSku
		}
		if !entry.Active {
			return domain.ErrProductInactive
		}

		balance, err := s.ledger.LockBalance(ctx, req.AccountID)
		if err != nil {
			return err
		}

		if req.IdempotencyKey != "" {
			previous, err := s.orderRepo.FindByIdempotencyKey(ctx, req.AccountID, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if previous != nil {
				return &domain.DuplicatePurchaseError{OrderID: previous.ID}
			}
		}

		if balance < entry.Price {
			return &domain.InsufficientBalanceError{Balance: balance, Price: entry.Price}
		}

		unit, err := s.allocator.Claim(ctx, entry)
		if err != nil {
			return err
		}

		orderID, err := s.ids.NewOrderID()
		if err != nil {
			return err
		}
		now := s.now()
		order := &domain.Order{
			ID:             orderID,
			AccountID:      req.AccountID,
			SKU:            entry.SKU,
			Price:          entry.Price,
			Status:         domain.OrderFulfilled,
			IdempotencyKey: req.IdempotencyKey,
			CreatedAt:      now,
			DeliveredAt:    now,
		}
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return err
		}
		if err := s.allocator.Finalize(ctx, unit, req.AccountID, orderID, now); err != nil {
			return err
		}

		movement, err := s.ledger.ApplyMovement(ctx, req.AccountID, domain.MovementPurchase, -entry.Price, orderID)
		if err != nil {
			return err
		}

		receipt = &domain.Receipt{
			Order:        *order,
			ProductName:  entry.Name,
			Code:         unit.Code,
			BalanceAfter: movement.BalanceAfter,
		}
		return nil
	})
	if err != nil {
		s.report(txCtx, req.AccountID, sku, err)
		return nil, err
	}

	zap.L().Info("purchase fulfilled",
		zap.Int64("account_id", req.AccountID),
		zap.String("sku", sku),
		zap.String("order_id", receipt.Order.ID),
		zap.Int64("price", receipt.Order.Price),
		zap.Int64("balance_after", receipt.BalanceAfter))
	return receipt, nil
}

func (s *Service) report(ctx context.Context, accountID int64, sku string, err error) {
	fields := []zap.Field{zap.Int64("account_id", accountID), zap.String("sku", sku), zap.Error(err)}
	switch {
	case errors.Is(err, domain.ErrIntegrity):
		zap.L().Error("purchase aborted by integrity violation", fields...)
		s.alerter.Notify(ctx, domain.Alert{
			Kind:      domain.AlertIntegrity,
			AccountID: accountID,
			SKU:       sku,
			Message:   err.Error(),
		})
	case domain.IsRetryable(err):
		zap.L().Warn("purchase aborted by contention", fields...)
	case domain.IsBusiness(err):
		zap.L().Info("purchase rejected", fields...)
	default:
		zap.L().Error("purchase failed", fields...)
	}
}

// ListRecentOrders returns the account's orders, most recent first. A non-positive
// limit means the configured default; larger limits are capped.
func (s *Service) ListRecentOrders(ctx context.Context, accountID int64, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = s.cfg.RecentOrdersLimit
	}
	if s.cfg.MaxOrdersLimit > 0 && limit > s.cfg.MaxOrdersLimit {
		limit = s.cfg.MaxOrdersLimit
	}
	orders, err := s.orderRepo.FindRecentByAccount(ctx, accountID, limit)
	if err != nil {
		zap.L().Error("failed to list recent orders", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return orders, nil
}
