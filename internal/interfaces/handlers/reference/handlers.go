package reference

import (
	refsvc "meterinstall-backend/internal/application/reference"
	"meterinstall-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *refsvc.Service
}

// Branches GET /api/v1/branches
func (h *Handlers) Branches(c *fiber.Ctx) error {
	items, err := h.Service.ListBranches(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Branches fetched successfully", items, nil)
}

// InstallationTypes GET /api/v1/installation-types
func (h *Handlers) InstallationTypes(c *fiber.Ctx) error {
	items, err := h.Service.ListInstallationTypes(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Installation types fetched successfully", items, nil)
}
