package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wallet-ledger/wallet_ledger/internal/account"
)

// Handler exposes the login endpoint.
type Handler struct {
	accounts *account.Service
	secret   string
	ttl      time.Duration
}

// NewHandler builds the auth HTTP handler.
func NewHandler(accounts *account.Service, secret string, ttl time.Duration) *Handler {
	return &Handler{accounts: accounts, secret: secret, ttl: ttl}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccountID   int64  `json:"account_id"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login verifies credentials and issues an access token. Any credential
// mismatch answers 401.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	accountID, err := h.accounts.Verify(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	}
	token, err := IssueToken(accountID, h.secret, h.ttl)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(loginResponse{
		AccountID:   accountID,
		AccessToken: token,
		ExpiresIn:   int64(h.ttl.Seconds()),
	})
}
