package purchase

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/dto"
	"github.com/GlebRadaev/codeshop/internal/handlers/apierr"
	"github.com/GlebRadaev/codeshop/pkg/auth"
	"github.com/GlebRadaev/codeshop/pkg/utils"
)

const IdempotencyHeader = "Idempotency-Key"

type Service interface {
	Purchase(ctx context.Context, req domain.PurchaseRequest) (*domain.Receipt, error)
	ListRecentOrders(ctx context.Context, accountID int64, limit int) ([]domain.Order, error)
}

type PurchaseHandler struct {
	purchaseService Service
	currency        string
}

func New(purchaseService Service, currency string) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		currency:        currency,
	}
}

// Purchase godoc
//
//	@Summary		Buy one unit of a product
//	@Description	Debits the product price and delivers one code. The code appears only in this response. With an Idempotency-Key a repeated request never buys twice and answers 409 with the original order id.
//	@Tags			Purchases
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string					false	"UUID identifying this purchase attempt"
//	@Param			request			body		dto.PurchaseRequestDTO	true	"Product to buy"
//	@Success		201				{object}	dto.ReceiptResponseDTO	"Purchase fulfilled"
//	@Failure		400				{object}	utils.Response			"Invalid request body or idempotency key"
//	@Failure		401				{object}	utils.Response			"User not authorized"
//	@Failure		402				{object}	dto.ErrorResponseDTO	"Insufficient balance, with shortfall"
//	@Failure		404				{object}	utils.Response			"Unknown product or account"
//	@Failure		409				{object}	dto.ErrorResponseDTO	"Product inactive, out of stock, or already purchased"
//	@Failure		422				{object}	utils.Response			"Malformed SKU"
//	@Failure		503				{object}	utils.Response			"Contention, retry later"
//	@Failure		500				{object}	utils.Response			"Internal server error"
//	@Router			/api/user/purchases [post]
func (h *PurchaseHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var key string
	if raw := r.Header.Get(IdempotencyHeader); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Idempotency-Key must be a UUID")
			return
		}
		key = parsed.String()
	}

	var req dto.PurchaseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := h.purchaseService.Purchase(r.Context(), domain.PurchaseRequest{
		AccountID:      accountID,
		SKU:            req.SKU,
		IdempotencyKey: key,
	})
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewReceipt(receipt, h.currency))
}

// GetOrders godoc
//
//	@Summary		Get recent orders
//	@Description	Most recent fulfilled orders first. Delivered codes are never repeated here.
//	@Tags			Purchases
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int						false	"Max orders (default 10, capped at 50)"
//	@Success		200		{array}		dto.OrderResponseDTO	"Orders"
//	@Failure		400		{object}	utils.Response			"Invalid limit"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/user/orders [get]
func (h *PurchaseHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, err := utils.QueryInt(r, "limit", 0)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	orders, err := h.purchaseService.ListRecentOrders(r.Context(), accountID, limit)
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrders(orders, h.currency))
}
