package account

import (
	"errors"
	"time"
)

var (
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotFound indicates the account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidCredentials indicates the email/password pair did not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Account represents a registered wallet owner. The ledger core treats the
// credential as opaque; only this package reads it.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
