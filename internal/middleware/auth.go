package middleware

import (
	"strings"

	authsvc "meterinstall-backend/internal/application/auth"
	"meterinstall-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth ensures a principal is present (session or bearer token). Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := authsvc.VerifyUser(GetUser(c)); err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// BearerAuth sets the principal from "Authorization: Bearer <token>" when present.
// A malformed or invalid token is rejected; a missing header falls through to the session user.
func BearerAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || secret == "" {
			return c.Next()
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			return response.Unauthorized(c, "Invalid authorization header format")
		}
		p, err := authsvc.ParseToken(secret, token)
		if err != nil {
			return response.Unauthorized(c, "Invalid token")
		}
		c.Locals(userLocal, p)
		return c.Next()
	}
}

// GetUser returns the raw user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// GetPrincipal returns the authenticated principal, or nil.
func GetPrincipal(c *fiber.Ctx) *authsvc.Principal {
	p, err := authsvc.VerifyUser(GetUser(c))
	if err != nil {
		return nil
	}
	return p
}
