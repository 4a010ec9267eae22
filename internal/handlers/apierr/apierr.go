// Package apierr maps domain failures onto HTTP responses.
package apierr

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/dto"
	"github.com/GlebRadaev/codeshop/pkg/money"
	"github.com/GlebRadaev/codeshop/pkg/utils"
)

// RetryAfter is the hint sent with 503 responses to contention aborts.
const RetryAfter = "1"

func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrUnknownSku),
		errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProductInactive),
		errors.Is(err, domain.ErrStockExhausted),
		errors.Is(err, domain.ErrDuplicatePurchase),
		errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSku),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, money.ErrMalformed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRetryable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Respond(w http.ResponseWriter, err error, currency string) {
	status := Status(err)
	body := dto.ErrorResponseDTO{Message: err.Error()}

	var insufficient *domain.InsufficientBalanceError
	var duplicate *domain.DuplicatePurchaseError
	switch {
	case errors.As(err, &insufficient):
		body.Shortfall = insufficient.Shortfall()
		body.Display = money.Format(body.Shortfall, currency)
	case errors.As(err, &duplicate):
		body.OrderID = duplicate.OrderID
	case status == http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", RetryAfter)
		body.Message = "Service busy, retry the request"
	case status == http.StatusInternalServerError:
		zap.L().Error("request failed", zap.Error(err))
		utils.RespondWithError(w, status, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, status, body)
}
