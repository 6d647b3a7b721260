package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Tx exposes the row operations available inside one atomic unit. All reads
// and writes made through a Tx commit or abort together.
type Tx interface {
	// GetWallet fetches a wallet without locking it.
	GetWallet(ctx context.Context, id int64) (Wallet, error)
	// GetWalletForUpdate fetches a wallet and holds a row lock on it until the
	// unit commits or aborts.
	GetWalletForUpdate(ctx context.Context, id int64) (Wallet, error)
	// SaveWallet persists the wallet's balance.
	SaveWallet(ctx context.Context, w Wallet) error
	// AppendHistory writes an immutable history row and returns it with its
	// store-assigned identifier.
	AppendHistory(ctx context.Context, h HistoryTransaction) (HistoryTransaction, error)
}

// Store is the contract the ledger core requires from the durable store.
// Implementations must guarantee that fn's effects in Atomic are all-or-nothing
// and that locking reads serialize concurrent units touching the same wallet.
type Store interface {
	// Atomic executes fn inside a single all-or-nothing unit. A non-nil error
	// from fn aborts the unit; no effect made through the Tx survives.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	// CreateWallet provisions a wallet for the account, enforcing the 1:1
	// account-wallet invariant.
	CreateWallet(ctx context.Context, accountID int64, balance decimal.Decimal) (Wallet, error)

	// GetWallet fetches a wallet outside any unit, for read-only access.
	GetWallet(ctx context.Context, id int64) (Wallet, error)

	// ListHistoryByWallet returns all history rows for a wallet ordered by
	// transaction ID ascending.
	ListHistoryByWallet(ctx context.Context, walletID int64) ([]HistoryTransaction, error)
}
