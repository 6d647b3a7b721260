package ledger

import "github.com/shopspring/decimal"

// The invariant engine is pure validation and arithmetic. It never touches the
// store; the coordinator persists a wallet only after these checks pass.

// ValidateDeposit checks that amount is strictly positive. Any positive amount
// is acceptable for a deposit.
func ValidateDeposit(_ Wallet, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateWithdrawal checks that amount is strictly positive and covered by
// the wallet's current balance.
func ValidateWithdrawal(w Wallet, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(w.Balance) {
		return ErrInsufficientBalance
	}
	return nil
}

// ApplyDelta returns a copy of the wallet with the signed delta applied to its
// balance. A negative result violates the balance invariant and is reported as
// ErrInsufficientBalance; callers are expected to have validated first.
func ApplyDelta(w Wallet, delta decimal.Decimal) (Wallet, error) {
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return Wallet{}, ErrInsufficientBalance
	}
	w.Balance = next
	return w, nil
}
