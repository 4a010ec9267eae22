package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
)

type AccountRepo interface {
	ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)
	LockBalanceShared(ctx context.Context, id int64) (int64, error)
}

type MovementRepo interface {
	ListChain(ctx context.Context, accountID int64) ([]domain.BalanceMovement, error)
}

type Alerter interface {
	Notify(ctx context.Context, alert domain.Alert)
}

type Config struct {
	Interval time.Duration
	Workers  int
	Batch    int
}

// Report summarises one pass over every account.
type Report struct {
	Checked    int64
	Mismatched int64
	Failed     int64
}

type Service struct {
	accountRepo  AccountRepo
	movementRepo MovementRepo
	txManager    pg.TXManager
	alerter      Alerter
	workerPool   WorkerPoolI
	interval     time.Duration
	batch        int
	now          func() time.Time
}

func New(accountRepo AccountRepo, movementRepo MovementRepo, txManager pg.TXManager, alerter Alerter, cfg Config) *Service {
	batch := cfg.Batch
	if batch <= 0 {
		batch = 500
	}
	return &Service{
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		txManager:    txManager,
		alerter:      alerter,
		workerPool:   NewWorkerPool(cfg.Workers),
		interval:     cfg.Interval,
		batch:        batch,
		now:          time.Now,
	}
}

// Run audits the ledger every interval until ctx is done. It returns at once when the audit is disabled.
func (s *Service) Run(ctx context.Context) {
	defer s.workerPool.Close()
	if s.interval <= 0 {
		zap.L().Info("Ledger audit disabled")
		return
	}
	zap.L().Info("Ledger audit started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping ledger audit")
			return
		case <-ticker.C:
			report, err := s.RunOnce(ctx)
			if err != nil {
				zap.L().Error("Ledger audit pass failed", zap.Error(err))
				continue
			}
			zap.L().Info("Ledger audit pass finished",
				zap.Int64("checked", report.Checked),
				zap.Int64("mismatched", report.Mismatched),
				zap.Int64("failed", report.Failed))
		}
	}
}

// RunOnce pages through all accounts in id order and verifies each one on the worker pool.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	var checked, mismatched, failed atomic.Int64
	var afterID int64

	for {
		ids, err := s.accountRepo.ListIDs(ctx, afterID, s.batch)
		if err != nil {
			return Report{}, fmt.Errorf("list accounts after %d: %w", afterID, err)
		}
		if len(ids) == 0 {
			break
		}

		var g errgroup.Group
		var wg sync.WaitGroup
		for _, id := range ids {
			id := id
			wg.Add(1)
			g.Go(func() error {
				err := s.workerPool.AddTask(ctx, func() error {
					defer wg.Done()
					err := s.Reconcile(ctx, id)
					switch {
					case err == nil:
						checked.Add(1)
					case errors.Is(err, domain.ErrIntegrity):
						checked.Add(1)
						mismatched.Add(1)
						return nil
					default:
						failed.Add(1)
					}
					return err
				})
				if err != nil {
					wg.Done()
					return err
				}
				return nil
			})
		}

		err = g.Wait()
		wg.Wait()
		if err != nil {
			return Report{Checked: checked.Load(), Mismatched: mismatched.Load(), Failed: failed.Load()}, err
		}

		afterID = ids[len(ids)-1]
		if len(ids) < s.batch {
			break
		}
	}

	return Report{Checked: checked.Load(), Mismatched: mismatched.Load(), Failed: failed.Load()}, nil
}

// Reconcile replays the movements of one account while holding a shared lock on its row,
// so no debit or credit can land between reading the balance and reading the chain.
func (s *Service) Reconcile(ctx context.Context, accountID int64) error {
	var mismatch error
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		balance, err := s.accountRepo.LockBalanceShared(ctx, accountID)
		if err != nil {
			return err
		}
		chain, err := s.movementRepo.ListChain(ctx, accountID)
		if err != nil {
			return err
		}
		mismatch = domain.VerifyChain(balance, chain)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reconcile account %d: %w", accountID, err)
	}
	if mismatch != nil {
		s.alerter.Notify(ctx, domain.Alert{
			Kind:      domain.AlertLedger,
			AccountID: accountID,
			Message:   mismatch.Error(),
			At:        s.now(),
		})
		return mismatch
	}
	return nil
}
