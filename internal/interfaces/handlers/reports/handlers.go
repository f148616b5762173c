package reports

import (
	"meterinstall-backend/internal/application/reporting"
	"meterinstall-backend/internal/interfaces/handlers/params"
	"meterinstall-backend/internal/pkg/apperrors"
	"meterinstall-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Reports *reporting.Service
}

// TargetVsActual GET /api/v1/reports/target-vs-actual?year=Y[&month=M][&branch_id=B]
func (h *Handlers) TargetVsActual(c *fiber.Ctx) error {
	year, err := params.OptionalInt(c, "year")
	if err != nil {
		return response.FromError(c, err)
	}
	if year == nil {
		return response.FromError(c, apperrors.Validation("reports.TargetVsActual", "year is required", map[string]string{"year": "required"}))
	}
	q := reporting.SummaryQuery{Year: *year}
	if q.Month, err = params.OptionalInt(c, "month"); err != nil {
		return response.FromError(c, err)
	}
	if q.BranchID, err = params.OptionalUUID(c, "branch_id"); err != nil {
		return response.FromError(c, err)
	}
	sum, err := h.Reports.TargetVsActual(c.UserContext(), q)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Target vs actual report generated", sum, nil)
}

// SLAPerformance GET /api/v1/reports/sla-performance[?start_date=&end_date=&branch_id=&installation_type_id=]
func (h *Handlers) SLAPerformance(c *fiber.Ctx) error {
	var q reporting.SLAQuery
	var err error
	if q.StartDate, err = params.OptionalDate(c, "start_date"); err != nil {
		return response.FromError(c, err)
	}
	if q.EndDate, err = params.OptionalDate(c, "end_date"); err != nil {
		return response.FromError(c, err)
	}
	if q.BranchID, err = params.OptionalUUID(c, "branch_id"); err != nil {
		return response.FromError(c, err)
	}
	if q.InstallationTypeID, err = params.OptionalUUID(c, "installation_type_id"); err != nil {
		return response.FromError(c, err)
	}
	report, err := h.Reports.SLAPerformance(c.UserContext(), q)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "SLA performance report generated", report, nil)
}

// BranchPerformance GET /api/v1/reports/branch-performance?year=Y[&month=M]
func (h *Handlers) BranchPerformance(c *fiber.Ctx) error {
	year, err := params.OptionalInt(c, "year")
	if err != nil {
		return response.FromError(c, err)
	}
	if year == nil {
		return response.FromError(c, apperrors.Validation("reports.BranchPerformance", "year is required", map[string]string{"year": "required"}))
	}
	q := reporting.BranchPerformanceQuery{Year: *year}
	if q.Month, err = params.OptionalInt(c, "month"); err != nil {
		return response.FromError(c, err)
	}
	report, err := h.Reports.BranchPerformance(c.UserContext(), q)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Branch performance report generated", report, nil)
}

// InstallationTrend GET /api/v1/reports/installation-trend?start_date=&end_date=[&branch_id=&installation_type_id=]
func (h *Handlers) InstallationTrend(c *fiber.Ctx) error {
	const op = "reports.InstallationTrend"
	start, err := params.OptionalDate(c, "start_date")
	if err != nil {
		return response.FromError(c, err)
	}
	end, err := params.OptionalDate(c, "end_date")
	if err != nil {
		return response.FromError(c, err)
	}
	if start == nil || end == nil {
		return response.FromError(c, apperrors.Validation(op, "start_date and end_date are required",
			map[string]string{"start_date": "required", "end_date": "required"}))
	}
	q := reporting.TrendQuery{StartDate: *start, EndDate: *end}
	if q.BranchID, err = params.OptionalUUID(c, "branch_id"); err != nil {
		return response.FromError(c, err)
	}
	if q.InstallationTypeID, err = params.OptionalUUID(c, "installation_type_id"); err != nil {
		return response.FromError(c, err)
	}
	report, err := h.Reports.InstallationTrend(c.UserContext(), q)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Installation trend report generated", report, nil)
}
