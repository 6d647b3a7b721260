package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Balance and amount columns carry the CHECK constraints backing the ledger
// invariants: balances never negative, history amounts strictly positive, one
// wallet per account.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
        account_id BIGSERIAL PRIMARY KEY,
        username VARCHAR(50) NOT NULL,
        email TEXT NOT NULL UNIQUE,
        password_hash BYTEA NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS wallets (
        wallet_id BIGSERIAL PRIMARY KEY,
        account_id BIGINT NOT NULL UNIQUE REFERENCES accounts (account_id),
        balance NUMERIC(20, 4) NOT NULL CHECK (balance >= 0),
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS history_transactions (
        transaction_id BIGSERIAL PRIMARY KEY,
        wallet_id BIGINT NOT NULL REFERENCES wallets (wallet_id),
        transaction_type TEXT NOT NULL CHECK (transaction_type IN ('deposit', 'withdraw')),
        amount NUMERIC(20, 4) NOT NULL CHECK (amount > 0),
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_history_transactions_wallet
        ON history_transactions (wallet_id, transaction_id)`,
}

// Migrate creates the accounts, wallets and history tables when absent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
