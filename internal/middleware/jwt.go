package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wallet-ledger/wallet_ledger/internal/auth"
)

// AccountIDKey is the request-local key under which the authenticated account
// ID is stored.
const AccountIDKey = "account_id"

// JWTAuth validates bearer access tokens and stores the account ID in request
// locals for downstream handlers.
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		accountID, err := auth.ParseToken(token, secret)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(AccountIDKey, accountID)
		return c.Next()
	}
}
