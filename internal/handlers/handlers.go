package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/codeshop/docs"
	"github.com/GlebRadaev/codeshop/internal/config"
	accounthandlers "github.com/GlebRadaev/codeshop/internal/handlers/account"
	adminhandlers "github.com/GlebRadaev/codeshop/internal/handlers/admin"
	cataloghandlers "github.com/GlebRadaev/codeshop/internal/handlers/catalog"
	purchasehandlers "github.com/GlebRadaev/codeshop/internal/handlers/purchase"
	"github.com/GlebRadaev/codeshop/internal/service"
	"github.com/GlebRadaev/codeshop/pkg/auth"
)

type AccountHandler interface {
	Seen(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetMovements(w http.ResponseWriter, r *http.Request)
}

type PurchaseHandler interface {
	Purchase(w http.ResponseWriter, r *http.Request)
	GetOrders(w http.ResponseWriter, r *http.Request)
}

type CatalogHandler interface {
	ListCatalog(w http.ResponseWriter, r *http.Request)
	ListAll(w http.ResponseWriter, r *http.Request)
	CreateProduct(w http.ResponseWriter, r *http.Request)
	SetPrice(w http.ResponseWriter, r *http.Request)
	SetName(w http.ResponseWriter, r *http.Request)
	SetActive(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	GetAccountBalance(w http.ResponseWriter, r *http.Request)
	GetAccountMovements(w http.ResponseWriter, r *http.Request)
	Adjust(w http.ResponseWriter, r *http.Request)
	Lookup(w http.ResponseWriter, r *http.Request)
	LoadCodes(w http.ResponseWriter, r *http.Request)
	ListStock(w http.ResponseWriter, r *http.Request)
	GetStock(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AccountHandler  AccountHandler
	PurchaseHandler PurchaseHandler
	CatalogHandler  CatalogHandler
	AdminHandler    AdminHandler

	Validator auth.TokenValidator
	Operators []int64
}

func New(s *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		AccountHandler:  accounthandlers.New(s.AccountService, cfg.Currency),
		PurchaseHandler: purchasehandlers.New(s.PurchaseService, cfg.Currency),
		CatalogHandler:  cataloghandlers.New(s.CatalogService, cfg.Currency),
		AdminHandler:    adminhandlers.New(s.LedgerService, s.InventoryService, cfg.Currency),
		Validator:       auth.NewJWTService(cfg.JWTSecret),
		Operators:       cfg.OperatorIDs,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(h.Validator))

		r.Get("/catalog", h.CatalogHandler.ListCatalog)

		r.Route("/user", func(r chi.Router) {
			r.Post("/seen", h.AccountHandler.Seen)
			r.Get("/balance", h.AccountHandler.GetBalance)
			r.Get("/movements", h.AccountHandler.GetMovements)
			r.Get("/orders", h.PurchaseHandler.GetOrders)
			r.Post("/purchases", h.PurchaseHandler.Purchase)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.OperatorOnly(h.Operators))

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/lookup", h.AdminHandler.Lookup)
				r.Get("/{accountID}/balance", h.AdminHandler.GetAccountBalance)
				r.Get("/{accountID}/movements", h.AdminHandler.GetAccountMovements)
				r.Post("/{accountID}/adjustments", h.AdminHandler.Adjust)
			})
			r.Route("/catalog", func(r chi.Router) {
				r.Get("/", h.CatalogHandler.ListAll)
				r.Post("/", h.CatalogHandler.CreateProduct)
				r.Put("/{sku}/price", h.CatalogHandler.SetPrice)
				r.Put("/{sku}/name", h.CatalogHandler.SetName)
				r.Put("/{sku}/active", h.CatalogHandler.SetActive)
				r.Post("/{sku}/codes", h.AdminHandler.LoadCodes)
			})
			r.Get("/stock", h.AdminHandler.ListStock)
			r.Get("/stock/{sku}", h.AdminHandler.GetStock)
		})
	})

	return r
}
