package account

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/dto"
	"github.com/GlebRadaev/codeshop/internal/handlers/apierr"
	"github.com/GlebRadaev/codeshop/pkg/auth"
	"github.com/GlebRadaev/codeshop/pkg/utils"
)

const (
	defaultMovementsLimit = 20
	maxMovementsLimit     = 100
)

type Service interface {
	EnsureAccount(ctx context.Context, account domain.Account) (*domain.Account, error)
	GetBalance(ctx context.Context, accountID int64) (int64, error)
	GetMovements(ctx context.Context, accountID int64, limit int) ([]domain.BalanceMovement, error)
}

type AccountHandler struct {
	accountService Service
	currency       string
}

func New(accountService Service, currency string) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		currency:       currency,
	}
}

// Seen godoc
//
//	@Summary		Register or refresh the caller's account
//	@Description	Called by the chat gateway on every interaction. Creates the account with a zero balance on first contact and refreshes display metadata afterwards.
//	@Tags			Account
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SeenRequestDTO		true	"Display metadata"
//	@Success		200		{object}	dto.AccountResponseDTO	"Account state"
//	@Failure		400		{object}	utils.Response			"Invalid request body"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/user/seen [post]
func (h *AccountHandler) Seen(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.SeenRequestDTO
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	account, err := h.accountService.EnsureAccount(r.Context(), domain.Account{
		ID:        accountID,
		Username:  req.Username,
		FirstName: req.FirstName,
	})
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewAccount(account, h.currency))
}

// GetBalance godoc
//
//	@Summary		Get current balance
//	@Description	Balance in minor units plus a formatted display string. Unknown accounts read as zero.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO	"Current balance"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/balance [get]
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	balance, err := h.accountService.GetBalance(r.Context(), accountID)
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBalance(accountID, balance, h.currency))
}

// GetMovements godoc
//
//	@Summary		Get balance history
//	@Description	Most recent balance movements first.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int						false	"Max movements (default 20, max 100)"
//	@Success		200		{array}		dto.MovementResponseDTO	"Movements"
//	@Failure		400		{object}	utils.Response			"Invalid limit"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/user/movements [get]
func (h *AccountHandler) GetMovements(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, err := utils.QueryInt(r, "limit", defaultMovementsLimit)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	movements, err := h.accountService.GetMovements(r.Context(), accountID, min(limit, maxMovementsLimit))
	if err != nil {
		apierr.Respond(w, err, h.currency)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewMovements(movements, h.currency))
}
