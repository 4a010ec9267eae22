package domain

import "fmt"

// VerifyChain checks that movements, ordered by id, reconstruct balance from zero.
func VerifyChain(balance int64, movements []BalanceMovement) error {
	var running int64
	for i, m := range movements {
		if m.BalanceBefore != running {
			return fmt.Errorf("%w: movement %d starts at %d, expected %d", ErrIntegrity, m.ID, m.BalanceBefore, running)
		}
		if m.BalanceAfter != m.BalanceBefore+m.Amount {
			return fmt.Errorf("%w: movement %d: %d + %d != %d", ErrIntegrity, m.ID, m.BalanceBefore, m.Amount, m.BalanceAfter)
		}
		if i > 0 && m.ID <= movements[i-1].ID {
			return fmt.Errorf("%w: movement %d out of order", ErrIntegrity, m.ID)
		}
		running = m.BalanceAfter
	}
	if running != balance {
		return fmt.Errorf("%w: ledger replays to %d, account holds %d", ErrIntegrity, running, balance)
	}
	return nil
}
