package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/dto"
	"github.com/GlebRadaev/codeshop/internal/handlers/apierr"
	"github.com/GlebRadaev/codeshop/pkg/auth"
	"github.com/GlebRadaev/codeshop/pkg/money"
	"github.com/GlebRadaev/codeshop/pkg/utils"
)

const (
	maxCodesBody          = 4 << 20
	defaultMovementsLimit = 50
	maxMovementsLimit     = 500
)

type LedgerService interface {
	GetBalance(ctx context.Context, accountID int64) (int64, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	AdjustBalance(ctx context.Context, accountID int64, kind domain.MovementKind, amount int64, reason string) (*domain.BalanceMovement, error)
	GetMovements(ctx context.Context, accountID int64, limit int) ([]domain.BalanceMovement, error)
}

type InventoryService interface {
	LoadInventory(ctx context.Context, sku string, payloads []string) (*domain.LoadResult, error)
	GetStock(ctx context.Context, sku string) (*domain.Stock, error)
	ListStock(ctx context.Context) ([]domain.Stock, error)
}

type AdminHandler struct {
	ledger    LedgerService
	inventory InventoryService
	currency  string
}

func New(ledger LedgerService, inventory InventoryService, currency string) *AdminHandler {
	return &AdminHandler{
		ledger:    ledger,
		inventory: inventory,
		currency:  currency,
	}
}

func accountIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	return id, err == nil && id > 0
}

// GetAccountBalance godoc
//
//	@Summary		Get an account balance
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			accountID	path		int						true	"Account id"
//	@Success		200			{object}	dto.BalanceResponseDTO	"Current balance"
//	@Failure		400			{object}	utils.Response			"Invalid account id"
//	@Failure		403			{object}	utils.Response			"Caller is not an operator"
//	@Failure		500			{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/accounts/{accountID}/balance [get]
func (h *AdminHandler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	balance, err := h.ledger.GetBalance(r.Context(), accountID)
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBalance(accountID, balance, h.currency))
}

// GetAccountMovements godoc
//
//	@Summary		Get an account's balance history
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			accountID	path		int						true	"Account id"
//	@Param			limit		query		int						false	"Max movements (default 50, max 500)"
//	@Success		200			{array}		dto.MovementResponseDTO	"Movements, newest first"
//	@Failure		400			{object}	utils.Response			"Invalid account id or limit"
//	@Failure		403			{object}	utils.Response			"Caller is not an operator"
//	@Failure		500			{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/accounts/{accountID}/movements [get]
func (h *AdminHandler) GetAccountMovements(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	limit, err := utils.QueryInt(r, "limit", defaultMovementsLimit)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	movements, err := h.ledger.GetMovements(r.Context(), accountID, min(limit, maxMovementsLimit))
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewMovements(movements, h.currency))
}

// Adjust godoc
//
//	@Summary		Credit or correct an account balance
//	@Description	kind=topup requires a positive amount; kind=adjustment accepts either sign and may take the balance below zero.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			accountID	path		int							true	"Account id"
//	@Param			request		body		dto.AdjustmentRequestDTO	true	"Amount in major units"
//	@Success		201			{object}	dto.MovementResponseDTO		"Recorded movement"
//	@Failure		400			{object}	utils.Response				"Invalid account id or body"
//	@Failure		401			{object}	utils.Response				"User not authorized"
//	@Failure		403			{object}	utils.Response				"Caller is not an operator"
//	@Failure		404			{object}	utils.Response				"Account not found"
//	@Failure		422			{object}	utils.Response				"Invalid amount or kind"
//	@Failure		503			{object}	utils.Response				"Contention, retry later"
//	@Failure		500			{object}	utils.Response				"Internal server error"
//	@Router			/api/admin/accounts/{accountID}/adjustments [post]
func (h *AdminHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID, ok := accountIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req dto.AdjustmentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := money.ParseMinor(req.Amount)
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	kind := domain.MovementKind(req.Kind)
	if kind == "" {
		kind = domain.MovementTopup
	}

	movement, err := h.ledger.AdjustBalance(r.Context(), accountID, kind, amount, adjustmentReference(operatorID, req.Reason))
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewMovement(movement, h.currency))
}

// adjustmentReference names the operator on the ledger row, followed by the free-text reason.
func adjustmentReference(operatorID int64, reason string) string {
	ref := fmt.Sprintf("admin:%d", operatorID)
	if reason = strings.TrimSpace(reason); reason != "" {
		ref += " " + reason
	}
	return ref
}

// Lookup godoc
//
//	@Summary		Find an account by username
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			username	query		string					true	"Chat username, with or without @"
//	@Success		200			{object}	dto.AccountResponseDTO	"Account"
//	@Failure		400			{object}	utils.Response			"Missing username"
//	@Failure		403			{object}	utils.Response			"Caller is not an operator"
//	@Failure		404			{object}	utils.Response			"Account not found"
//	@Failure		500			{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/accounts/lookup [get]
func (h *AdminHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimPrefix(strings.TrimSpace(r.URL.Query().Get("username")), "@")
	if username == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "username is required")
		return
	}
	account, err := h.ledger.FindByUsername(r.Context(), username)
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewAccount(account, h.currency))
}

// LoadCodes godoc
//
//	@Summary		Load redeemable codes for a product
//	@Description	One code per line. Blank lines and duplicates within the batch are skipped. A missing product is created inactive with price 0.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			plain
//	@Produce		json
//	@Param			sku		path		string						true	"Product SKU"
//	@Param			codes	body		string						true	"Codes, one per line"
//	@Success		201		{object}	dto.LoadResultResponseDTO	"Load summary"
//	@Failure		400		{object}	utils.Response				"Unreadable body"
//	@Failure		403		{object}	utils.Response				"Caller is not an operator"
//	@Failure		422		{object}	utils.Response				"Invalid SKU"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/admin/catalog/{sku}/codes [post]
func (h *AdminHandler) LoadCodes(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCodesBody))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result, err := h.inventory.LoadInventory(r.Context(), chi.URLParam(r, "sku"), strings.Split(string(body), "\n"))
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewLoadResult(result))
}

// ListStock godoc
//
//	@Summary		Available units per product
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.StockResponseDTO	"Stock"
//	@Failure		403	{object}	utils.Response			"Caller is not an operator"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/stock [get]
func (h *AdminHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.inventory.ListStock(r.Context())
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewStock(stock))
}

// GetStock godoc
//
//	@Summary		Available units of one product
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			sku	path		string					true	"Product SKU"
//	@Success		200	{object}	dto.StockResponseDTO	"Stock"
//	@Failure		403	{object}	utils.Response			"Caller is not an operator"
//	@Failure		404	{object}	utils.Response			"Unknown product"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/stock/{sku} [get]
func (h *AdminHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.inventory.GetStock(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.StockResponseDTO{SKU: stock.SKU, Available: stock.Available})
}
