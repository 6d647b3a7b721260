package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type inMemoryStore struct {
	mu       sync.Mutex
	accounts map[int64]struct{}
	wallets  map[int64]Wallet
	byOwner  map[int64]int64
	history  []HistoryTransaction

	nextWalletID int64
	nextTxID     int64

	// fault injection for atomicity tests; appendErr fires once after
	// appendSkips successful appends
	appendSkips int
	appendErr   error
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit
// tests. Atomic units run under one lock, so same-wallet operations are
// trivially serialized; effects are staged and only merged in on success.
func NewInMemory() Store {
	return &inMemoryStore{
		accounts: make(map[int64]struct{}),
		wallets:  make(map[int64]Wallet),
		byOwner:  make(map[int64]int64),
	}
}

func (s *inMemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &memTx{store: s, wallets: make(map[int64]Wallet), nextTxID: s.nextTxID}
	if err := fn(staged); err != nil {
		return err
	}

	for id, w := range staged.wallets {
		s.wallets[id] = w
	}
	s.history = append(s.history, staged.appended...)
	s.nextTxID = staged.nextTxID
	return nil
}

func (s *inMemoryStore) CreateWallet(ctx context.Context, accountID int64, balance decimal.Decimal) (Wallet, error) {
	if err := ctx.Err(); err != nil {
		return Wallet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID]; !ok {
		return Wallet{}, ErrAccountNotFound
	}
	if _, ok := s.byOwner[accountID]; ok {
		return Wallet{}, ErrDuplicateWallet
	}

	s.nextWalletID++
	w := Wallet{ID: s.nextWalletID, AccountID: accountID, Balance: balance}
	s.wallets[w.ID] = w
	s.byOwner[accountID] = w.ID
	return w, nil
}

func (s *inMemoryStore) GetWallet(ctx context.Context, id int64) (Wallet, error) {
	if err := ctx.Err(); err != nil {
		return Wallet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (s *inMemoryStore) ListHistoryByWallet(ctx context.Context, walletID int64) ([]HistoryTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []HistoryTransaction
	for _, h := range s.history {
		if h.WalletID == walletID {
			items = append(items, h)
		}
	}
	return items, nil
}

// memTx stages writes against the store; nothing is visible until Atomic
// merges the staged state after fn succeeds.
type memTx struct {
	store    *inMemoryStore
	wallets  map[int64]Wallet
	appended []HistoryTransaction
	nextTxID int64
}

func (t *memTx) GetWallet(ctx context.Context, id int64) (Wallet, error) {
	if err := ctx.Err(); err != nil {
		return Wallet{}, err
	}
	if w, ok := t.wallets[id]; ok {
		return w, nil
	}
	w, ok := t.store.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (t *memTx) GetWalletForUpdate(ctx context.Context, id int64) (Wallet, error) {
	// The store-wide lock held by Atomic already serializes units.
	return t.GetWallet(ctx, id)
}

func (t *memTx) SaveWallet(ctx context.Context, w Wallet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.wallets[w.ID]; !ok {
		if _, ok := t.store.wallets[w.ID]; !ok {
			return ErrWalletNotFound
		}
	}
	t.wallets[w.ID] = w
	return nil
}

func (t *memTx) AppendHistory(ctx context.Context, h HistoryTransaction) (HistoryTransaction, error) {
	if err := ctx.Err(); err != nil {
		return HistoryTransaction{}, err
	}
	if t.store.appendErr != nil {
		if t.store.appendSkips > 0 {
			t.store.appendSkips--
		} else {
			err := t.store.appendErr
			t.store.appendErr = nil
			return HistoryTransaction{}, err
		}
	}
	t.nextTxID++
	h.ID = t.nextTxID
	t.appended = append(t.appended, h)
	return h, nil
}
