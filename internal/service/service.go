package service

import (
	"github.com/GlebRadaev/codeshop/internal/config"
	"github.com/GlebRadaev/codeshop/internal/handlers/account"
	"github.com/GlebRadaev/codeshop/internal/handlers/admin"
	"github.com/GlebRadaev/codeshop/internal/handlers/catalog"
	"github.com/GlebRadaev/codeshop/internal/handlers/purchase"
	"github.com/GlebRadaev/codeshop/internal/pg"
	"github.com/GlebRadaev/codeshop/internal/repo"
	"github.com/GlebRadaev/codeshop/internal/service/balanceservice"
	"github.com/GlebRadaev/codeshop/internal/service/catalogservice"
	"github.com/GlebRadaev/codeshop/internal/service/fulfillmentservice"
	"github.com/GlebRadaev/codeshop/internal/service/inventoryservice"
)

type Services struct {
	AccountService   account.Service
	PurchaseService  purchase.Service
	CatalogService   catalog.Service
	LedgerService    admin.LedgerService
	InventoryService admin.InventoryService
}

func New(cfg *config.Config, repo *repo.Repositories, txManager pg.TXManager, alerter fulfillmentservice.Alerter) *Services {
	balanceService := balanceservice.New(repo.AccountRepo, repo.MovementRepo, txManager)
	inventoryService := inventoryservice.New(repo.InventoryRepo, repo.CatalogRepo, txManager)
	catalogService := catalogservice.New(repo.CatalogRepo)
	fulfillmentService := fulfillmentservice.New(
		repo.CatalogRepo,
		repo.OrderRepo,
		inventoryService,
		balanceService,
		fulfillmentservice.NewLuhnIDGenerator(),
		txManager,
		alerter,
		fulfillmentservice.Config{
			TxTimeout:         cfg.TxTimeout,
			RecentOrdersLimit: cfg.RecentOrdersLimit,
			MaxOrdersLimit:    cfg.MaxOrdersLimit,
		},
	)

	return &Services{
		AccountService:   balanceService,
		PurchaseService:  fulfillmentService,
		CatalogService:   catalogService,
		LedgerService:    balanceService,
		InventoryService: inventoryService,
	}
}
