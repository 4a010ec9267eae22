package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyChain(t *testing.T) {
	tests := []struct {
		name      string
		balance   int64
		movements []BalanceMovement
		expectErr bool
	}{
		{
			name:    "Empty ledger with zero balance",
			balance: 0,
		},
		{
			name:      "Empty ledger with non-zero balance",
			balance:   100,
			expectErr: true,
		},
		{
			name:    "Topup then purchase",
			balance: 200,
			movements: []BalanceMovement{
				{ID: 1, Kind: MovementTopup, Amount: 500, BalanceBefore: 0, BalanceAfter: 500},
				{ID: 2, Kind: MovementPurchase, Amount: -300, BalanceBefore: 500, BalanceAfter: 200},
			},
		},
		{
			name:    "Adjustment may go negative",
			balance: -50,
			movements: []BalanceMovement{
				{ID: 3, Kind: MovementAdjustment, Amount: -50, BalanceBefore: 0, BalanceAfter: -50},
			},
		},
		{
			name:    "Broken arithmetic",
			balance: 400,
			movements: []BalanceMovement{
				{ID: 1, Amount: 500, BalanceBefore: 0, BalanceAfter: 400},
			},
			expectErr: true,
		},
		{
			name:    "Gap between movements",
			balance: 300,
			movements: []BalanceMovement{
				{ID: 1, Amount: 500, BalanceBefore: 0, BalanceAfter: 500},
				{ID: 2, Amount: -300, BalanceBefore: 600, BalanceAfter: 300},
			},
			expectErr: true,
		},
		{
			name:    "Replay differs from balance",
			balance: 999,
			movements: []BalanceMovement{
				{ID: 1, Amount: 500, BalanceBefore: 0, BalanceAfter: 500},
			},
			expectErr: true,
		},
		{
			name:    "Ids out of order",
			balance: 700,
			movements: []BalanceMovement{
				{ID: 5, Amount: 500, BalanceBefore: 0, BalanceAfter: 500},
				{ID: 4, Amount: 200, BalanceBefore: 500, BalanceAfter: 700},
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyChain(tt.balance, tt.movements)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrIntegrity)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInsufficientBalanceError(t *testing.T) {
	var err error = &InsufficientBalanceError{Balance: 200, Price: 300}

	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.True(t, IsBusiness(err))
	assert.False(t, IsRetryable(err))

	var target *InsufficientBalanceError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, int64(100), target.Shortfall())
	assert.Contains(t, err.Error(), "short by 100")
}

func TestDuplicatePurchaseError(t *testing.T) {
	var err error = &DuplicatePurchaseError{OrderID: "12345678903"}

	assert.ErrorIs(t, err, ErrDuplicatePurchase)
	assert.Contains(t, err.Error(), "12345678903")
}

func TestNormalizeSKU(t *testing.T) {
	assert.Equal(t, "DISNEY_1M", NormalizeSKU("  disney_1m "))
	assert.Equal(t, "", NormalizeSKU("   "))
}

func TestMovementKindValid(t *testing.T) {
	assert.True(t, MovementTopup.Valid())
	assert.True(t, MovementPurchase.Valid())
	assert.True(t, MovementAdjustment.Valid())
	assert.False(t, MovementKind("admin_adjust").Valid())
}
