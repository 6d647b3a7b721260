package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

const (
	maxConflictRetries = 3
	conflictBackoff    = 25 * time.Millisecond
	defaultOpTimeout   = 5 * time.Second
)

// Coordinator drives every balance-affecting operation as one atomic unit
// against the store. It is the sole owner of the commit boundary: nothing else
// persists a balance change.
type Coordinator struct {
	store     Store
	recorder  *Recorder
	logger    *slog.Logger
	opTimeout time.Duration
}

// NewCoordinator builds a transaction coordinator. opTimeout bounds each
// atomic unit; zero selects a default.
func NewCoordinator(store Store, recorder *Recorder, logger *slog.Logger, opTimeout time.Duration) *Coordinator {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Coordinator{store: store, recorder: recorder, logger: logger, opTimeout: opTimeout}
}

// TransferResult carries both wallets as committed by a transfer.
type TransferResult struct {
	Source      Wallet
	Destination Wallet
}

// CreateWallet provisions the account's single wallet with a non-negative
// starting balance.
func (c *Coordinator) CreateWallet(ctx context.Context, accountID int64, initial decimal.Decimal) (Wallet, error) {
	if initial.IsNegative() {
		return Wallet{}, ErrInvalidAmount
	}
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	w, err := c.store.CreateWallet(ctx, accountID, initial)
	if err != nil {
		return Wallet{}, c.normalize(err)
	}
	return w, nil
}

// GetWallet fetches a wallet for read-only display.
func (c *Coordinator) GetWallet(ctx context.Context, walletID int64) (Wallet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	w, err := c.store.GetWallet(ctx, walletID)
	if err != nil {
		return Wallet{}, c.normalize(err)
	}
	return w, nil
}

// Deposit credits the wallet and appends one deposit history row, atomically.
func (c *Coordinator) Deposit(ctx context.Context, walletID int64, amount decimal.Decimal) (Wallet, error) {
	if amount.Sign() <= 0 {
		return Wallet{}, ErrInvalidAmount
	}
	var updated Wallet
	err := c.atomic(ctx, func(ctx context.Context, tx Tx) error {
		w, err := tx.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if err := ValidateDeposit(w, amount); err != nil {
			return err
		}
		w, err = ApplyDelta(w, amount)
		if err != nil {
			return err
		}
		if err := tx.SaveWallet(ctx, w); err != nil {
			return err
		}
		if _, err := c.recorder.Record(ctx, tx, walletID, TypeDeposit, amount); err != nil {
			return err
		}
		updated = w
		return nil
	})
	if err != nil {
		return Wallet{}, err
	}
	return updated, nil
}

// Withdraw debits the wallet and appends one withdraw history row, atomically.
// An insufficient balance declines the operation with no effect at all.
func (c *Coordinator) Withdraw(ctx context.Context, walletID int64, amount decimal.Decimal) (Wallet, error) {
	if amount.Sign() <= 0 {
		return Wallet{}, ErrInvalidAmount
	}
	var updated Wallet
	err := c.atomic(ctx, func(ctx context.Context, tx Tx) error {
		w, err := tx.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if err := ValidateWithdrawal(w, amount); err != nil {
			return err
		}
		w, err = ApplyDelta(w, amount.Neg())
		if err != nil {
			return err
		}
		if err := tx.SaveWallet(ctx, w); err != nil {
			return err
		}
		if _, err := c.recorder.Record(ctx, tx, walletID, TypeWithdraw, amount); err != nil {
			return err
		}
		updated = w
		return nil
	})
	if err != nil {
		return Wallet{}, err
	}
	return updated, nil
}

// Transfer moves amount from source to destination. The two balance updates
// and the two history rows commit as a single unit; on any failure none of the
// four effects survive. Wallets are locked in ascending ID order so that
// opposite-direction transfers cannot deadlock.
//
// A self-transfer is permitted: the debit and credit cancel out, the balance
// must still cover the amount, and both history rows are written.
func (c *Coordinator) Transfer(ctx context.Context, sourceID, destinationID int64, amount decimal.Decimal) (TransferResult, error) {
	if amount.Sign() <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}
	var result TransferResult
	err := c.atomic(ctx, func(ctx context.Context, tx Tx) error {
		if sourceID == destinationID {
			return c.selfTransfer(ctx, tx, sourceID, amount, &result)
		}

		firstID, secondID := sourceID, destinationID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		first, err := tx.GetWalletForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := tx.GetWalletForUpdate(ctx, secondID)
		if err != nil {
			return err
		}

		source, destination := first, second
		if source.ID != sourceID {
			source, destination = second, first
		}

		if err := ValidateWithdrawal(source, amount); err != nil {
			return err
		}
		source, err = ApplyDelta(source, amount.Neg())
		if err != nil {
			return err
		}
		destination, err = ApplyDelta(destination, amount)
		if err != nil {
			return err
		}
		if err := tx.SaveWallet(ctx, source); err != nil {
			return err
		}
		if err := tx.SaveWallet(ctx, destination); err != nil {
			return err
		}
		if _, err := c.recorder.Record(ctx, tx, source.ID, TypeWithdraw, amount); err != nil {
			return err
		}
		if _, err := c.recorder.Record(ctx, tx, destination.ID, TypeDeposit, amount); err != nil {
			return err
		}
		result = TransferResult{Source: source, Destination: destination}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	return result, nil
}

func (c *Coordinator) selfTransfer(ctx context.Context, tx Tx, walletID int64, amount decimal.Decimal, result *TransferResult) error {
	w, err := tx.GetWalletForUpdate(ctx, walletID)
	if err != nil {
		return err
	}
	if err := ValidateWithdrawal(w, amount); err != nil {
		return err
	}
	// Debit and credit net to zero; the balance is written back unchanged and
	// both legs are still recorded.
	if err := tx.SaveWallet(ctx, w); err != nil {
		return err
	}
	if _, err := c.recorder.Record(ctx, tx, walletID, TypeWithdraw, amount); err != nil {
		return err
	}
	if _, err := c.recorder.Record(ctx, tx, walletID, TypeDeposit, amount); err != nil {
		return err
	}
	*result = TransferResult{Source: w, Destination: w}
	return nil
}

// History lists the wallet's history rows, transaction ID ascending.
func (c *Coordinator) History(ctx context.Context, walletID int64) ([]HistoryTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	items, err := c.recorder.ListHistory(ctx, walletID)
	if err != nil {
		return nil, c.normalize(err)
	}
	return items, nil
}

// atomic runs fn as one bounded atomic unit, retrying transparently on
// conflicts up to maxConflictRetries before surfacing the failure.
func (c *Coordinator) atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	var err error
	for attempt := 0; ; attempt++ {
		err = c.store.Atomic(opCtx, func(tx Tx) error {
			return fn(opCtx, tx)
		})
		if !errors.Is(err, ErrConflict) || attempt >= maxConflictRetries {
			break
		}
		c.logger.Warn("ledger unit conflicted, retrying", "attempt", attempt+1)
		select {
		case <-opCtx.Done():
			return c.normalize(opCtx.Err())
		case <-time.After(conflictBackoff):
		}
	}
	return c.normalize(err)
}

// normalize maps context expiry onto the timeout failure so callers can tell
// it apart from business declines and store faults.
func (c *Coordinator) normalize(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
