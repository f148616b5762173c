package targets

import (
	"meterinstall-backend/internal/application/reporting"
	targetsvc "meterinstall-backend/internal/application/targets"
	"meterinstall-backend/internal/interfaces/handlers/params"
	"meterinstall-backend/internal/middleware"
	"meterinstall-backend/internal/pkg/apperrors"
	"meterinstall-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles target endpoints with their services.
type Handlers struct {
	Targets *targetsvc.Service
	Reports *reporting.Service
}

func invalidBody() error {
	return apperrors.Validation("targets.body", "Invalid request body", nil)
}

func parseFilters(c *fiber.Ctx) (targetsvc.Filters, int, int, error) {
	var f targetsvc.Filters
	var err error
	if f.Year, err = params.OptionalInt(c, "year"); err != nil {
		return f, 0, 0, err
	}
	if f.Month, err = params.OptionalInt(c, "month"); err != nil {
		return f, 0, 0, err
	}
	if f.BranchID, err = params.OptionalUUID(c, "branch_id"); err != nil {
		return f, 0, 0, err
	}
	if f.InstallationTypeID, err = params.OptionalUUID(c, "installation_type_id"); err != nil {
		return f, 0, 0, err
	}
	skip, err := params.IntDefault(c, "skip", 0)
	if err != nil {
		return f, 0, 0, err
	}
	limit, err := params.IntDefault(c, "limit", targetsvc.DefaultLimit)
	if err != nil {
		return f, 0, 0, err
	}
	return f, skip, limit, nil
}

// Create POST /api/v1/targets
func (h *Handlers) Create(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	if p == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in targetsvc.CreateTargetInput
	if err := c.BodyParser(&in); err != nil {
		return response.FromError(c, invalidBody())
	}
	t, err := h.Targets.Create(c.UserContext(), in, p.ID())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Target created successfully", t, nil)
}

// List GET /api/v1/targets
func (h *Handlers) List(c *fiber.Ctx) error {
	f, skip, limit, err := parseFilters(c)
	if err != nil {
		return response.FromError(c, err)
	}
	items, total, page, pageSize, err := h.Targets.List(c.UserContext(), f, skip, limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Targets fetched successfully", response.Page[targetsvc.TargetDetail]{
		Items: items, Total: total, Page: page, PageSize: pageSize,
	}, nil)
}

// ListWithProgress GET /api/v1/targets/with-progress
func (h *Handlers) ListWithProgress(c *fiber.Ctx) error {
	f, skip, limit, err := parseFilters(c)
	if err != nil {
		return response.FromError(c, err)
	}
	items, total, page, pageSize, err := h.Reports.ListTargetsWithProgress(c.UserContext(), f, skip, limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Targets fetched successfully", response.Page[reporting.TargetWithProgress]{
		Items: items, Total: total, Page: page, PageSize: pageSize,
	}, nil)
}

// Get GET /api/v1/targets/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	t, err := h.Targets.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Target fetched successfully", t, nil)
}

// GetProgress GET /api/v1/targets/:id/progress
func (h *Handlers) GetProgress(c *fiber.Ctx) error {
	id, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	t, err := h.Reports.GetTargetWithProgress(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Target progress fetched successfully", t, nil)
}

// Update PUT /api/v1/targets/:id (partial)
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in targetsvc.UpdateTargetInput
	if err := c.BodyParser(&in); err != nil {
		return response.FromError(c, invalidBody())
	}
	t, err := h.Targets.Update(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Target updated successfully", t, nil)
}

// Delete DELETE /api/v1/targets/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Targets.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Target deleted successfully", fiber.Map{"id": id}, nil)
}
