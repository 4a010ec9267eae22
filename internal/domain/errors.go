package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSku          = errors.New("unknown sku")
	ErrInvalidSku          = errors.New("invalid sku")
	ErrProductInactive     = errors.New("product inactive")
	ErrStockExhausted      = errors.New("stock exhausted")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidName         = errors.New("invalid product name")
	ErrAlreadyExists       = errors.New("already exists")
	ErrDuplicatePurchase   = errors.New("duplicate purchase")

	// ErrIntegrity is fatal for the operation and must reach an operator; it is never retried.
	ErrIntegrity = errors.New("integrity violation")
	// ErrRetryable marks contention aborts (lock timeout, deadlock, serialization failure).
	ErrRetryable = errors.New("transient failure, retry the whole operation")
)

type InsufficientBalanceError struct {
	Balance int64
	Price   int64
}

func (e *InsufficientBalanceError) Shortfall() int64 {
	return e.Price - e.Balance
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: short by %d", ErrInsufficientBalance, e.Shortfall())
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

type DuplicatePurchaseError struct {
	OrderID string
}

func (e *DuplicatePurchaseError) Error() string {
	return fmt.Sprintf("%s: already fulfilled as order %s", ErrDuplicatePurchase, e.OrderID)
}

func (e *DuplicatePurchaseError) Unwrap() error {
	return ErrDuplicatePurchase
}

// IsBusiness reports rejections that are expected outcomes of a purchase rather than faults.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrUnknownSku) ||
		errors.Is(err, ErrInvalidSku) ||
		errors.Is(err, ErrProductInactive) ||
		errors.Is(err, ErrStockExhausted) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrDuplicatePurchase)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}
