package middleware

import (
	"meterinstall-backend/internal/pkg/constants"
	"meterinstall-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizePermission checks the principal's role set against the configured permission table.
// Unconfigured permission -> 500 "Permission configuration error"; no allowed role -> 403.
func AuthorizePermission(table constants.PermissionRoles, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !table.Configured(permission) {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		if !table.AllowedAny(permission, p.Roles) {
			return response.Forbidden(c, "User is Forbidden from performing this action")
		}
		return c.Next()
	}
}
