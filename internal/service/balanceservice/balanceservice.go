package balanceservice

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
)

type AccountRepo interface {
	Upsert(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	LockBalance(ctx context.Context, id int64) (int64, error)
	UpdateBalance(ctx context.Context, id int64, balance int64) error
}

type MovementRepo interface {
	Append(ctx context.Context, movement *domain.BalanceMovement) (*domain.BalanceMovement, error)
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]domain.BalanceMovement, error)
}

// Service is the only writer of account balances. Every change it makes
// is paired with an appended movement in the same transaction.
type Service struct {
	accountRepo  AccountRepo
	movementRepo MovementRepo
	txManager    pg.TXManager
	now          func() time.Time
}

func New(accountRepo AccountRepo, movementRepo MovementRepo, txManager pg.TXManager) *Service {
	return &Service{
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		txManager:    txManager,
		now:          time.Now,
	}
}

// EnsureAccount records first contact with an account, or refreshes its display metadata.
func (s *Service) EnsureAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	if account.ID <= 0 {
		return nil, domain.ErrAccountNotFound
	}
	saved, err := s.accountRepo.Upsert(ctx, &account)
	if err != nil {
		zap.L().Error("failed to ensure account", zap.Int64("account_id", account.ID), zap.Error(err))
		return nil, err
	}
	return saved, nil
}

// GetBalance is an unlocked read. Accounts never seen before read as zero.
func (s *Service) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Int64("account_id", accountID), zap.Error(err))
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.Balance, nil
}

func (s *Service) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	account, err := s.accountRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// LockBalance takes the exclusive per-account lock inside the caller's transaction.
func (s *Service) LockBalance(ctx context.Context, accountID int64) (int64, error) {
	return s.accountRepo.LockBalance(ctx, accountID)
}

// ApplyMovement moves the balance of accountID by amount and appends the matching ledger row.
// Non-negativity is the caller's decision: administrative adjustments may go below zero.
func (s *Service) ApplyMovement(ctx context.Context, accountID int64, kind domain.MovementKind, amount int64, reference string) (*domain.BalanceMovement, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown movement kind %q", domain.ErrInvalidAmount, kind)
	}

	var movement *domain.BalanceMovement
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		before, err := s.accountRepo.LockBalance(ctx, accountID)
		if err != nil {
			return err
		}
		after := before + amount
		if (amount > 0 && after < before) || (amount < 0 && after > before) {
			return fmt.Errorf("%w: %d %+d overflows the balance", domain.ErrInvalidAmount, before, amount)
		}
		if err := s.accountRepo.UpdateBalance(ctx, accountID, after); err != nil {
			return err
		}
		movement, err = s.movementRepo.Append(ctx, &domain.BalanceMovement{
			AccountID:     accountID,
			Kind:          kind,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			Reference:     reference,
			CreatedAt:     s.now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// AdjustBalance is the operator-facing mutation. Purchases never come through here.
func (s *Service) AdjustBalance(ctx context.Context, accountID int64, kind domain.MovementKind, amount int64, reason string) (*domain.BalanceMovement, error) {
	switch {
	case kind != domain.MovementTopup && kind != domain.MovementAdjustment:
		return nil, fmt.Errorf("%w: %q is not an operator movement", domain.ErrInvalidAmount, kind)
	case amount == 0:
		return nil, fmt.Errorf("%w: amount must not be zero", domain.ErrInvalidAmount)
	case kind == domain.MovementTopup && amount < 0:
		return nil, fmt.Errorf("%w: topup must be positive", domain.ErrInvalidAmount)
	}

	movement, err := s.ApplyMovement(ctx, accountID, kind, amount, reason)
	if err != nil {
		zap.L().Warn("balance adjustment rejected",
			zap.Int64("account_id", accountID), zap.Int64("amount", amount), zap.Error(err))
		return nil, err
	}
	zap.L().Info("balance adjusted",
		zap.Int64("account_id", accountID),
		zap.String("kind", string(kind)),
		zap.Int64("amount", amount),
		zap.Int64("balance_after", movement.BalanceAfter),
		zap.String("reason", reason))
	return movement, nil
}

func (s *Service) GetMovements(ctx context.Context, accountID int64, limit int) ([]domain.BalanceMovement, error) {
	movements, err := s.movementRepo.ListByAccount(ctx, accountID, limit)
	if err != nil {
		zap.L().Error("failed to get movements", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return movements, nil
}
