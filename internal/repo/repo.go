package repo

import (
	"github.com/GlebRadaev/codeshop/internal/audit"
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
)

type AccountRepo interface {
	balanceservice.AccountRepo
	audit.AccountRepo
}

type CatalogRepo interface {
	catalogservice.Repo
	inventoryservice.CatalogRepo
}

type MovementRepo interface {
	balanceservice.MovementRepo
	audit.MovementRepo
}

type Repositories struct {
	AccountRepo   AccountRepo
	CatalogRepo   CatalogRepo
	InventoryRepo inventoryservice.InventoryRepo
	OrderRepo     fulfillmentservice.OrderRepo
	MovementRepo  MovementRepo
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		AccountRepo:   accountrepo.New(conn),
		CatalogRepo:   catalogrepo.New(conn),
		InventoryRepo: inventoryrepo.New(conn),
		OrderRepo:     orderrepo.New(conn),
		MovementRepo:  movementrepo.New(conn),
	}
}
