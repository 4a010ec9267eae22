package dto

import (
	"time"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/pkg/money"
)

type SeenRequestDTO struct {
	Username  string `json:"username" example:"alice"`
	FirstName string `json:"first_name" example:"Alice"`
}

type AccountResponseDTO struct {
	ID        int64  `json:"id" example:"123456789"`
	Username  string `json:"username,omitempty" example:"alice"`
	FirstName string `json:"first_name,omitempty" example:"Alice"`
	Balance   int64  `json:"balance" example:"50000"`
	Display   string `json:"display" example:"$500.00 MXN"`
}

type BalanceResponseDTO struct {
	AccountID int64  `json:"account_id" example:"123456789"`
	Balance   int64  `json:"balance" example:"50000"`
	Display   string `json:"display" example:"$500.00 MXN"`
}

type MovementResponseDTO struct {
	ID            int64     `json:"id" example:"17"`
	Kind          string    `json:"kind" example:"purchase"`
	Amount        int64     `json:"amount" example:"-30000"`
	BalanceBefore int64     `json:"balance_before" example:"50000"`
	BalanceAfter  int64     `json:"balance_after" example:"20000"`
	Display       string    `json:"display" example:"-$300.00 MXN"`
	Reference     string    `json:"reference" example:"48213377120498716553"`
	CreatedAt     time.Time `json:"created_at" example:"2024-05-01T12:00:00Z"`
}

// AdjustmentRequestDTO carries an operator amount in major units, e.g. "200.50".
type AdjustmentRequestDTO struct {
	Kind   string `json:"kind" example:"topup" enums:"topup,adjustment"`
	Amount string `json:"amount" example:"200.50"`
	Reason string `json:"reason" example:"bank transfer 0042"`
}

func NewAccount(a *domain.Account, currency string) AccountResponseDTO {
	return AccountResponseDTO{
		ID:        a.ID,
		Username:  a.Username,
		FirstName: a.FirstName,
		Balance:   a.Balance,
		Display:   money.Format(a.Balance, currency),
	}
}

func NewBalance(accountID, balance int64, currency string) BalanceResponseDTO {
	return BalanceResponseDTO{
		AccountID: accountID,
		Balance:   balance,
		Display:   money.Format(balance, currency),
	}
}

func NewMovement(m *domain.BalanceMovement, currency string) MovementResponseDTO {
	return MovementResponseDTO{
		ID:            m.ID,
		Kind:          string(m.Kind),
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Display:       money.Format(m.Amount, currency),
		Reference:     m.Reference,
		CreatedAt:     m.CreatedAt,
	}
}

func NewMovements(movements []domain.BalanceMovement, currency string) []MovementResponseDTO {
	out := make([]MovementResponseDTO, len(movements))
	for i := range movements {
		out[i] = NewMovement(&movements[i], currency)
	}
	return out
}
