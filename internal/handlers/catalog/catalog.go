package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/dto"
	"github.com/GlebRadaev/codeshop/internal/handlers/apierr"
	"github.com/GlebRadaev/codeshop/pkg/money"
	"github.com/GlebRadaev/codeshop/pkg/utils"
)

type Service interface {
	ListCatalog(ctx context.Context) ([]domain.CatalogEntry, error)
	ListAll(ctx context.Context) ([]domain.CatalogEntry, error)
	CreateProduct(ctx context.Context, sku string, name string, price int64, active bool) (*domain.CatalogEntry, error)
	SetPrice(ctx context.Context, sku string, price int64) error
	SetName(ctx context.Context, sku string, name string) error
	SetActive(ctx context.Context, sku string, active bool) error
}

type CatalogHandler struct {
	catalogService Service
	currency       string
}

func New(catalogService Service, currency string) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		currency:       currency,
	}
}

// ListCatalog godoc
//
//	@Summary		List products on sale
//	@Description	Active products ordered by name.
//	@Tags			Catalog
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.ProductResponseDTO	"Active products"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/catalog [get]
func (h *CatalogHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalogService.ListCatalog(r.Context())
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewProducts(entries, h.currency))
}

// ListAll godoc
//
//	@Summary		List every product
//	@Description	Active and inactive products, for operators.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.ProductResponseDTO	"All products"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		403	{object}	utils.Response			"Caller is not an operator"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/catalog [get]
func (h *CatalogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalogService.ListAll(r.Context())
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewProducts(entries, h.currency))
}

// CreateProduct godoc
//
//	@Summary		Create a product
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateProductRequestDTO	true	"New product, price in major units"
//	@Success		201		{object}	dto.ProductResponseDTO		"Created"
//	@Failure		400		{object}	utils.Response				"Invalid request body"
//	@Failure		403		{object}	utils.Response				"Caller is not an operator"
//	@Failure		409		{object}	utils.Response				"SKU already exists"
//	@Failure		422		{object}	utils.Response				"Invalid SKU or price"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/admin/catalog [post]
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var price int64
	if req.Price != "" {
		var err error
		if price, err = money.ParseMinor(req.Price); err != nil {
			apierr.Respond(w, err, h.currency)
			return
		}
	}

	entry, err := h.catalogService.CreateProduct(r.Context(), req.SKU, req.Name, price, req.Active)
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewProduct(entry, h.currency))
}

// SetPrice godoc
//
//	@Summary		Change a product price
//	@Description	Affects future purchases only; past orders keep their price.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			sku		path		string					true	"Product SKU"
//	@Param			request	body		dto.SetPriceRequestDTO	true	"Price in major units"
//	@Success		200		{object}	utils.Response			"Updated"
//	@Failure		400		{object}	utils.Response			"Invalid request body"
//	@Failure		403		{object}	utils.Response			"Caller is not an operator"
//	@Failure		404		{object}	utils.Response			"Unknown product"
//	@Failure		422		{object}	utils.Response			"Invalid price"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/catalog/{sku}/price [put]
func (h *CatalogHandler) SetPrice(w http.ResponseWriter, r *http.Request) {
	var req dto.SetPriceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	price, err := money.ParseMinor(req.Price)
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	h.respondUpdate(w, h.catalogService.SetPrice(r.Context(), chi.URLParam(r, "sku"), price))
}

// SetName godoc
//
//	@Summary		Rename a product
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			sku		path		string					true	"Product SKU"
//	@Param			request	body		dto.SetNameRequestDTO	true	"New display name"
//	@Success		200		{object}	utils.Response			"Updated"
//	@Failure		400		{object}	utils.Response			"Invalid request body"
//	@Failure		403		{object}	utils.Response			"Caller is not an operator"
//	@Failure		404		{object}	utils.Response			"Unknown product"
//	@Failure		422		{object}	utils.Response			"Blank name"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/catalog/{sku}/name [put]
func (h *CatalogHandler) SetName(w http.ResponseWriter, r *http.Request) {
	var req dto.SetNameRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respondUpdate(w, h.catalogService.SetName(r.Context(), chi.URLParam(r, "sku"), req.Name))
}

// SetActive godoc
//
//	@Summary		Put a product on or off sale
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			sku		path		string					true	"Product SKU"
//	@Param			request	body		dto.SetActiveRequestDTO	true	"Sale flag"
//	@Success		200		{object}	utils.Response			"Updated"
//	@Failure		400		{object}	utils.Response			"Invalid request body"
//	@Failure		403		{object}	utils.Response			"Caller is not an operator"
//	@Failure		404		{object}	utils.Response			"Unknown product"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/catalog/{sku}/active [put]
func (h *CatalogHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req dto.SetActiveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respondUpdate(w, h.catalogService.SetActive(r.Context(), chi.URLParam(r, "sku"), req.Active))
}

func (h *CatalogHandler) respondUpdate(w http.ResponseWriter, err error) {
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithError(w, http.StatusOK, "updated")
}
