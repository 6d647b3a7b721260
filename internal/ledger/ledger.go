package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates an operation amount that is zero, negative or
	// otherwise unusable. Declined before the store is touched.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance occurs when a debit would take the wallet below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrWalletNotFound indicates the referenced wallet does not exist.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrAccountNotFound indicates the owning account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateWallet indicates the account already owns a wallet.
	ErrDuplicateWallet = errors.New("wallet already exists for account")

	// ErrConflict indicates a lock or serialization clash on a wallet row.
	// The coordinator retries these transparently a bounded number of times.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrTimeout indicates the atomic unit could not complete within the
	// configured bound. Distinct from business-rule declines.
	ErrTimeout = errors.New("ledger operation timed out")
)

// TransactionType labels one balance-affecting leg of an operation.
type TransactionType string

const (
	// TypeDeposit credits a wallet.
	TypeDeposit TransactionType = "deposit"
	// TypeWithdraw debits a wallet.
	TypeWithdraw TransactionType = "withdraw"
)

// Wallet is the balance holder, tied 1:1 to an account.
type Wallet struct {
	ID        int64
	AccountID int64
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// HistoryTransaction is an immutable audit record for a single balance change.
// A transfer produces two of these: a withdraw leg on the source wallet and a
// deposit leg on the destination wallet.
type HistoryTransaction struct {
	ID        int64
	WalletID  int64
	Type      TransactionType
	Amount    decimal.Decimal
	Timestamp time.Time
}
