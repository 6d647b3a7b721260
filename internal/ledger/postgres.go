package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore implements Store on PostgreSQL. Wallet rows are serialized
// with SELECT ... FOR UPDATE; serialization and deadlock failures surface as
// ErrConflict so the coordinator can retry the unit.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Atomic runs fn inside a database transaction, committing only when fn
// returns nil.
func (s *PostgresStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin ledger unit: %w", translatePgError(err))
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger unit: %w", translatePgError(err))
	}
	return nil
}

// CreateWallet inserts the account's wallet row. The unique constraint on
// account_id enforces the 1:1 invariant and the foreign key catches unknown
// accounts.
func (s *PostgresStore) CreateWallet(ctx context.Context, accountID int64, balance decimal.Decimal) (Wallet, error) {
	row := s.db.QueryRow(ctx, `INSERT INTO wallets (account_id, balance)
        VALUES ($1, $2) RETURNING wallet_id, account_id, balance::text, created_at`, accountID, balance.String())
	w, err := scanWallet(row)
	if err != nil {
		return Wallet{}, translatePgError(err)
	}
	return w, nil
}

// GetWallet fetches a wallet row without locking.
func (s *PostgresStore) GetWallet(ctx context.Context, id int64) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT wallet_id, account_id, balance::text, created_at
        FROM wallets WHERE wallet_id = $1`, id)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, translatePgError(err)
	}
	return w, nil
}

// ListHistoryByWallet returns the wallet's history rows, transaction ID ascending.
func (s *PostgresStore) ListHistoryByWallet(ctx context.Context, walletID int64) ([]HistoryTransaction, error) {
	rows, err := s.db.Query(ctx, `SELECT transaction_id, wallet_id, transaction_type, amount::text, created_at
        FROM history_transactions WHERE wallet_id = $1 ORDER BY transaction_id ASC`, walletID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	var items []HistoryTransaction
	for rows.Next() {
		var (
			h      HistoryTransaction
			typ    string
			amount string
		)
		if err := rows.Scan(&h.ID, &h.WalletID, &typ, &amount, &h.Timestamp); err != nil {
			return nil, translatePgError(err)
		}
		h.Type = TransactionType(typ)
		if h.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode history amount: %w", err)
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err)
	}
	return items, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetWallet(ctx context.Context, id int64) (Wallet, error) {
	return t.get(ctx, id, false)
}

func (t *pgTx) GetWalletForUpdate(ctx context.Context, id int64) (Wallet, error) {
	return t.get(ctx, id, true)
}

func (t *pgTx) get(ctx context.Context, id int64, lock bool) (Wallet, error) {
	query := `SELECT wallet_id, account_id, balance::text, created_at FROM wallets WHERE wallet_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	w, err := scanWallet(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, translatePgError(err)
	}
	return w, nil
}

func (t *pgTx) SaveWallet(ctx context.Context, w Wallet) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE wallets SET balance = $1 WHERE wallet_id = $2`, w.Balance.String(), w.ID)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (t *pgTx) AppendHistory(ctx context.Context, h HistoryTransaction) (HistoryTransaction, error) {
	row := t.tx.QueryRow(ctx, `INSERT INTO history_transactions (wallet_id, transaction_type, amount, created_at)
        VALUES ($1, $2, $3, $4) RETURNING transaction_id`, h.WalletID, string(h.Type), h.Amount.String(), h.Timestamp)
	if err := row.Scan(&h.ID); err != nil {
		return HistoryTransaction{}, translatePgError(err)
	}
	return h, nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w       Wallet
		balance string
	)
	if err := row.Scan(&w.ID, &w.AccountID, &balance, &w.CreatedAt); err != nil {
		return Wallet{}, err
	}
	var err error
	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return Wallet{}, fmt.Errorf("decode wallet balance: %w", err)
	}
	return w, nil
}

// translatePgError maps Postgres failure classes onto the ledger taxonomy:
// unique violations become duplicate-wallet declines, foreign key violations
// missing accounts, and serialization or deadlock failures retryable conflicts.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateWallet
		case "23503":
			return ErrAccountNotFound
		case "40001", "40P01":
			return ErrConflict
		}
	}
	return err
}
