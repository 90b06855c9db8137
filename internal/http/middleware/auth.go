package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenLocalKey holds the raw bearer token extracted by BearerToken.
const TokenLocalKey = "bearer_token"

// BearerToken rejects requests without an "Authorization: Bearer <token>" header
// with 401. The token itself is verified by the workflows.
func BearerToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, raw, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		c.Locals(TokenLocalKey, raw)
		return c.Next()
	}
}

// TokenFrom returns the token stored by BearerToken, or "".
func TokenFrom(c *fiber.Ctx) string {
	raw, _ := c.Locals(TokenLocalKey).(string)
	return raw
}
