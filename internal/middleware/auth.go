// Package middleware provides HTTP middleware shared by the API routes.
package middleware

import (
	"crypto/subtle"
	"strings"

	"sharify/internal/models"

	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader carries the public API key issued to clients.
const APIKeyHeader = "apikey"

// APIKey rejects requests that do not present key in the apikey header or
// query parameter. An empty key disables the check. Paths matching skip are
// let through, which keeps health probes and metrics scrapes working.
func APIKey(key string, skip ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" || c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		for _, prefix := range skip {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}
		presented := c.Get(APIKeyHeader)
		if presented == "" {
			presented = c.Query(APIKeyHeader)
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid API key"))
		}
		return c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get(fiber.HeaderAuthorization), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
