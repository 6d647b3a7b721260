package account

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Service manages account registration and credential verification. Verify is
// the auth provider contract consumed by the login flow; the ledger core never
// sees credentials.
type Service struct {
	repo Repository
}

// NewService creates an account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput carries the data required to open an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates an account with a bcrypt-hashed credential. A duplicate
// email is a declined creation, not a fault.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Account, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" {
		return Account{}, errors.New("username and email are required")
	}
	if len(input.Password) < 8 {
		return Account{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	return s.repo.Create(ctx, Account{Username: username, Email: email, PasswordHash: hash})
}

// Verify checks an email/password pair and returns the account ID on success.
// Unknown emails and bad passwords both report ErrInvalidCredentials.
func (s *Service) Verify(ctx context.Context, email, password string) (int64, error) {
	a, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return a.ID, nil
}

// Get fetches an account by ID.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.FindByID(ctx, id)
}
