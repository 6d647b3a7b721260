package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryAtomicDiscardsOnError(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	SeedAccount(store, 1)
	w, err := store.CreateWallet(ctx, 1, dec("100"))
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	boom := errors.New("unit aborted")
	err = store.Atomic(ctx, func(tx Tx) error {
		locked, err := tx.GetWalletForUpdate(ctx, w.ID)
		if err != nil {
			return err
		}
		locked.Balance = dec("1")
		if err := tx.SaveWallet(ctx, locked); err != nil {
			return err
		}
		if _, err := tx.AppendHistory(ctx, HistoryTransaction{WalletID: w.ID, Type: TypeWithdraw, Amount: dec("99")}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}

	got, err := store.GetWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if !got.Balance.Equal(dec("100")) {
		t.Fatalf("aborted write visible: %s", got.Balance)
	}
	history, err := store.ListHistoryByWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("aborted append visible: %d rows", len(history))
	}
}

func TestInMemoryStagedWritesReadBack(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	SeedAccount(store, 1)
	w, err := store.CreateWallet(ctx, 1, dec("10"))
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	err = store.Atomic(ctx, func(tx Tx) error {
		locked, err := tx.GetWalletForUpdate(ctx, w.ID)
		if err != nil {
			return err
		}
		locked.Balance = dec("25")
		if err := tx.SaveWallet(ctx, locked); err != nil {
			return err
		}
		// A second read inside the unit observes the staged write.
		again, err := tx.GetWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		if !again.Balance.Equal(dec("25")) {
			t.Fatalf("staged write not visible inside unit: %s", again.Balance)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("atomic: %v", err)
	}

	got, _ := store.GetWallet(ctx, w.ID)
	if !got.Balance.Equal(dec("25")) {
		t.Fatalf("committed write lost: %s", got.Balance)
	}
}

func TestInMemoryAssignsAscendingTransactionIDs(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	SeedAccount(store, 1)
	w, err := store.CreateWallet(ctx, 1, dec("0"))
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := store.Atomic(ctx, func(tx Tx) error {
			_, err := tx.AppendHistory(ctx, HistoryTransaction{WalletID: w.ID, Type: TypeDeposit, Amount: dec("1")})
			return err
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	history, err := store.ListHistoryByWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(history))
	}
	for i, h := range history {
		if h.ID != int64(i+1) {
			t.Fatalf("expected transaction ID %d, got %d", i+1, h.ID)
		}
	}
}
