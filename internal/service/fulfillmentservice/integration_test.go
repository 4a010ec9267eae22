package fulfillmentservice_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/codeshop/internal/alert"
	"github.com/GlebRadaev/codeshop/internal/audit"
	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
	accountrepo "github.com/GlebRadaev/codeshop/internal/repo/account-repo"
	catalogrepo "github.com/GlebRadaev/codeshop/internal/repo/catalog-repo"
	inventoryrepo "github.com/GlebRadaev/codeshop/internal/repo/inventory-repo"
	movementrepo "github.com/GlebRadaev/codeshop/internal/repo/movement-repo"
	orderrepo "github.com/GlebRadaev/codeshop/internal/repo/order-repo"
	"github.com/GlebRadaev/codeshop/internal/service/balanceservice"
	"github.com/GlebRadaev/codeshop/internal/service/catalogservice"
	"github.com/GlebRadaev/codeshop/internal/service/fulfillmentservice"
	"github.com/GlebRadaev/codeshop/internal/service/inventoryservice"
	"github.com/GlebRadaev/codeshop/pkg/clients"
)

type StoreSuite struct {
	suite.Suite
	pool        *pgxpool.Pool
	accounts    *accountrepo.Repository
	movements   *movementrepo.Repository
	balance     *balanceservice.Service
	inventory   *inventoryservice.Service
	catalog     *catalogservice.Service
	fulfillment *fulfillmentservice.Service
	auditor     *audit.Service
}

func TestStoreSuite(t *testing.T) {
	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}
	suite.Run(t, &StoreSuite{})
}

func (s *StoreSuite) SetupSuite() {
	cfg, err := pgxpool.ParseConfig(os.Getenv("TEST_DATABASE_URI"))
	s.Require().NoError(err)
	cfg.MaxConns = 32

	s.pool, err = pgxpool.NewWithConfig(context.Background(), cfg)
	s.Require().NoError(err)
	s.Require().NoError(pg.RunMigrations(context.Background(), s.pool))

	conn := pg.New(s.pool)
	txManager := pg.NewTXManager(s.pool, pg.WithLockTimeout(3*time.Second))

	s.accounts = accountrepo.New(conn)
	s.movements = movementrepo.New(conn)
	catalogRepo := catalogrepo.New(conn)

	s.balance = balanceservice.New(s.accounts, s.movements, txManager)
	s.inventory = inventoryservice.New(inventoryrepo.New(conn), catalogRepo, txManager)
	s.catalog = catalogservice.New(catalogRepo)
	s.fulfillment = fulfillmentservice.New(
		catalogRepo,
		orderrepo.New(conn),
		s.inventory,
		s.balance,
		fulfillmentservice.NewLuhnIDGenerator(),
		txManager,
		alert.New(clients.NewHTTPClient(), ""),
		fulfillmentservice.Config{TxTimeout: 10 * time.Second, RecentOrdersLimit: 10, MaxOrdersLimit: 50},
	)
	s.auditor = audit.New(s.accounts, s.movements, txManager, alert.New(clients.NewHTTPClient(), ""),
		audit.Config{Workers: 4, Batch: 2})
}

func (s *StoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *StoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(),
		`TRUNCATE balance_movements, inventory_units, orders, catalog_entries, accounts CASCADE`)
	s.Require().NoError(err)
}

func (s *StoreSuite) account(id int64, balance int64) {
	ctx := context.Background()
	_, err := s.balance.EnsureAccount(ctx, domain.Account{ID: id, Username: fmt.Sprintf("user%d", id)})
	s.Require().NoError(err)
	if balance != 0 {
		_, err = s.balance.AdjustBalance(ctx, id, domain.MovementTopup, balance, "test")
		s.Require().NoError(err)
	}
}

func (s *StoreSuite) product(sku string, price int64, codes []string) {
	ctx := context.Background()
	_, err := s.catalog.CreateProduct(ctx, sku, sku, price, true)
	s.Require().NoError(err)
	if len(codes) > 0 {
		_, err = s.inventory.LoadInventory(ctx, sku, codes)
		s.Require().NoError(err)
	}
}

func (s *StoreSuite) assertLedgerReplays(ids ...int64) {
	ctx := context.Background()
	for _, id := range ids {
		balance, err := s.balance.GetBalance(ctx, id)
		s.Require().NoError(err)
		chain, err := s.movements.ListChain(ctx, id)
		s.Require().NoError(err)
		s.NoError(domain.VerifyChain(balance, chain), "account %d", id)
	}
}

func codes(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%03d", prefix, i)
	}
	return out
}

func (s *StoreSuite) TestScenario() {
	ctx := context.Background()
	s.account(1, 500)
	s.product("DISNEY_1M", 300, []string{"A1", "A2"})

	receipt, err := s.fulfillment.Purchase(ctx, domain.PurchaseRequest{AccountID: 1, SKU: "DISNEY_1M"})
	s.Require().NoError(err)
	s.Equal("A1", receipt.Code)
	s.Equal(int64(200), receipt.BalanceAfter)
	s.True(fulfillmentservice.IsOrderID(receipt.Order.ID))

	_, err = s.fulfillment.Purchase(ctx, domain.PurchaseRequest{AccountID: 1, SKU: "DISNEY_1M"})
	var insufficient *domain.InsufficientBalanceError
	s.Require().True(errors.As(err, &insufficient))
	s.Equal(int64(100), insufficient.Shortfall())

	balance, err := s.balance.GetBalance(ctx, 1)
	s.Require().NoError(err)
	s.Equal(int64(200), balance)

	stock, err := s.inventory.GetStock(ctx, "DISNEY_1M")
	s.Require().NoError(err)
	s.Equal(int64(1), stock.Available)

	movements, err := s.balance.GetMovements(ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(movements, 2)
	s.Equal(domain.MovementPurchase, movements[0].Kind)
	s.Equal(int64(-300), movements[0].Amount)
	s.Equal(int64(500), movements[0].BalanceBefore)
	s.Equal(receipt.Order.ID, movements[0].Reference)

	s.assertLedgerReplays(1)
}

func (s *StoreSuite) TestTopupOnFreshAccount() {
	ctx := context.Background()
	s.account(2, 0)

	movement, err := s.balance.AdjustBalance(ctx, 2, domain.MovementTopup, 1000, "operator:9")
	s.Require().NoError(err)
	s.Equal(int64(0), movement.BalanceBefore)
	s.Equal(int64(1000), movement.BalanceAfter)

	s.assertLedgerReplays(2)
}

func (s *StoreSuite) TestDeactivatedProductIsRejected() {
	ctx := context.Background()
	s.account(1, 500)
	s.product("DISNEY_1M", 300, []string{"A1"})
	s.Require().NoError(s.catalog.SetActive(ctx, "DISNEY_1M", false))

	_, err := s.fulfillment.Purchase(ctx, domain.PurchaseRequest{AccountID: 1, SKU: "DISNEY_1M"})

	s.ErrorIs(err, domain.ErrProductInactive)
}

func (s *StoreSuite) TestDeactivationDoesNotAffectPurchaseInFlight() {
	ctx := context.Background()
	s.account(1, 500)
	s.product("DISNEY_1M", 100, []string{"A1", "A2"})

	// Holding the account row stalls the purchase right after its catalog check.
	holder, err := s.pool.Begin(ctx)
	s.Require().NoError(err)
	defer func() { _ = holder.Rollback(ctx) }()
	_, err = holder.Exec(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, int64(1))
	s.Require().NoError(err)

	type result struct {
		receipt *domain.Receipt
		err     error
	}
	done := make(chan result, 1)
	go func() {
		receipt, err := s.fulfillment.Purchase(ctx, domain.PurchaseRequest{AccountID: 1, SKU: "DISNEY_1M"})
		done <- result{receipt: receipt, err: err}
	}()

	s.Require().Eventually(func() bool {
		var waiting int
		err := s.pool.QueryRow(ctx, `SELECT count(*) FROM pg_locks WHERE NOT granted`).Scan(&waiting)
		return err == nil && waiting > 0
	}, 2*time.Second, 10*time.Millisecond)

	s.Require().NoError(s.catalog.SetActive(ctx, "DISNEY_1M", false))
	s.Require().NoError(holder.Commit(ctx))

	inFlight := <-done
	s.Require().NoError(inFlight.err)
	s.Equal("A1", inFlight.receipt.Code)
	s.Equal(int64(400), inFlight.receipt.BalanceAfter)

	_, err = s.fulfillment.Purchase(ctx, domain.PurchaseRequest{AccountID: 1, SKU: "DISNEY_1M"})
	s.ErrorIs(err, domain.ErrProductInactive)

	s.assertLedgerReplays(1)
}

func (s *StoreSuite) TestIdempotentReplay() {
	ctx := context.Background()
	s.account(1, 1000)
	s.product("DISNEY_1M", 300, []string{"A1", "A2"})
	req := domain.PurchaseRequest{AccountID: 1, SKU: "DISNEY_1M", IdempotencyKey: "6f1c1f0e-7d0a-4c55-9a43-1f1c2b8e9d10"}

	first, err := s.fulfillment.Purchase(ctx, req)
	s.Require().NoError(err)

	_, err = s.fulfillment.Purchase(ctx, req)
	var duplicate *domain.DuplicatePurchaseError
	s.Require().True(errors.As(err, &duplicate))
	s.Equal(first.Order.ID, duplicate.OrderID)

	balance, _ := s.balance.GetBalance(ctx, 1)
	s.Equal(int64(700), balance)
}

type outcome struct {
	mu        sync.Mutex
	codes     map[string]int
	exhausted int
	other     []error
}

func (o *outcome) record(receipt *domain.Receipt, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case err == nil:
		o.codes[receipt.Code]++
	case errors.Is(err, domain.ErrStockExhausted):
		o.exhausted++
	default:
		o.other = append(o.other, err)
	}
}

func (s *StoreSuite) purchaseConcurrently(sku string, buyers []int64) *outcome {
	res := &outcome{codes: make(map[string]int)}
	var g errgroup.Group
	start := make(chan struct{})
	for _, id := range buyers {
		g.Go(func() error {
			<-start
			receipt, err := s.fulfillment.Purchase(context.Background(), domain.PurchaseRequest{AccountID: id, SKU: sku})
			res.record(receipt, err)
			return nil
		})
	}
	close(start)
	s.Require().NoError(g.Wait())
	return res
}

func (s *StoreSuite) TestConcurrentClaimsWithScarceStock() {
	const n, k = 100, 10
	buyers := make([]int64, n)
	for i := range buyers {
		buyers[i] = int64(1000 + i)
		s.account(buyers[i], 300)
	}
	s.product("SCARCE", 300, codes("S", k))

	res := s.purchaseConcurrently("SCARCE", buyers)

	s.Empty(res.other)
	s.Len(res.codes, k)
	for code, count := range res.codes {
		s.Equal(1, count, "code %s handed out more than once", code)
	}
	s.Equal(n-k, res.exhausted)

	stock, err := s.inventory.GetStock(context.Background(), "SCARCE")
	s.Require().NoError(err)
	s.Equal(int64(0), stock.Available)

	s.assertLedgerReplays(buyers...)
}

func (s *StoreSuite) TestConcurrentClaimsWithAmpleStock() {
	const n = 100
	buyers := make([]int64, n)
	for i := range buyers {
		buyers[i] = int64(2000 + i)
		s.account(buyers[i], 300)
	}
	s.product("AMPLE", 300, codes("M", n+5))

	res := s.purchaseConcurrently("AMPLE", buyers)

	s.Empty(res.other)
	s.Zero(res.exhausted)
	s.Len(res.codes, n)

	stock, err := s.inventory.GetStock(context.Background(), "AMPLE")
	s.Require().NoError(err)
	s.Equal(int64(5), stock.Available)

	s.assertLedgerReplays(buyers...)
}

func (s *StoreSuite) TestConcurrentPurchasesOnOneAccount() {
	const n = 20
	s.account(1, 100*(n/2))
	s.product("SAME", 100, codes("X", n))

	res := &outcome{codes: make(map[string]int)}
	var insufficient int
	var mu sync.Mutex
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			receipt, err := s.fulfillment.Purchase(context.Background(), domain.PurchaseRequest{AccountID: 1, SKU: "SAME"})
			if errors.Is(err, domain.ErrInsufficientBalance) {
				mu.Lock()
				insufficient++
				mu.Unlock()
				return nil
			}
			res.record(receipt, err)
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Empty(res.other)
	s.Len(res.codes, n/2)
	s.Equal(n/2, insufficient)

	balance, err := s.balance.GetBalance(context.Background(), 1)
	s.Require().NoError(err)
	s.Equal(int64(0), balance)

	s.assertLedgerReplays(1)
}

func (s *StoreSuite) TestLedgerAuditFindsDrift() {
	ctx := context.Background()
	s.product("AUDIT", 100, []string{"C1", "C2"})
	for _, id := range []int64{1, 2, 3} {
		s.account(id, 500)
	}
	_, err := s.fulfillment.Purchase(ctx, domain.PurchaseRequest{AccountID: 1, SKU: "AUDIT"})
	s.Require().NoError(err)

	report, err := s.auditor.RunOnce(ctx)
	s.Require().NoError(err)
	s.Equal(audit.Report{Checked: 3}, report)

	_, err = s.pool.Exec(ctx, `UPDATE accounts SET balance = balance + 1 WHERE id = 2`)
	s.Require().NoError(err)

	report, err = s.auditor.RunOnce(ctx)
	s.Require().NoError(err)
	s.Equal(audit.Report{Checked: 3, Mismatched: 1}, report)
}
