package ledger

import "github.com/shopspring/decimal"

// Test helpers for the in-memory store, in the spirit of seeding fixtures
// without going through the coordinator.

// SeedAccount registers an account ID so wallet creation can reference it.
func SeedAccount(s Store, accountID int64) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.accounts[accountID] = struct{}{}
	}
}

// SeedWallet force-sets a wallet's balance when using the in-memory store.
func SeedWallet(s Store, walletID int64, balance decimal.Decimal) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		w := mem.wallets[walletID]
		w.Balance = balance
		mem.wallets[walletID] = w
	}
}

// FailAppend arms a one-shot fault: the history append following afterSuccesses
// successful appends fails with err. Used to exercise the all-or-nothing
// guarantee of atomic units.
func FailAppend(s Store, afterSuccesses int, err error) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.appendSkips = afterSuccesses
		mem.appendErr = err
	}
}
