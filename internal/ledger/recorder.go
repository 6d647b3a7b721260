package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Recorder appends the immutable audit trail. Record is only ever called from
// inside a coordinator-driven atomic unit so that a history row and the
// balance change it documents commit together.
type Recorder struct {
	store Store
	clock func() time.Time
}

// NewRecorder builds a history recorder reading timestamps from the wall clock.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, clock: time.Now}
}

// Record appends one history row for a balance-affecting leg through the
// supplied Tx. The timestamp is taken at append time.
func (r *Recorder) Record(ctx context.Context, tx Tx, walletID int64, typ TransactionType, amount decimal.Decimal) (HistoryTransaction, error) {
	return tx.AppendHistory(ctx, HistoryTransaction{
		WalletID:  walletID,
		Type:      typ,
		Amount:    amount,
		Timestamp: r.clock().UTC(),
	})
}

// ListHistory returns every history row for the wallet, ordered by transaction
// ID ascending. The sequence is stable for identical inputs.
func (r *Recorder) ListHistory(ctx context.Context, walletID int64) ([]HistoryTransaction, error) {
	return r.store.ListHistoryByWallet(ctx, walletID)
}
