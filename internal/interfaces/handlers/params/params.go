// Package params parses path and query parameters into typed values.
// Malformed values become Validation errors so handlers answer 400.
package params

import (
	"strconv"
	"time"

	"meterinstall-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const op = "params"

func invalid(name, rule string) error {
	return apperrors.Validation(op, "Invalid parameter: "+name, map[string]string{name: rule})
}

// UUID parses a path parameter.
func UUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, invalid(name, "uuid")
	}
	return id, nil
}

// OptionalInt returns nil when the query parameter is absent.
func OptionalInt(c *fiber.Ctx, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalid(name, "int")
	}
	return &v, nil
}

// OptionalUUID returns nil when the query parameter is absent.
func OptionalUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalid(name, "uuid")
	}
	return &id, nil
}

// IntDefault returns def when the query parameter is absent.
func IntDefault(c *fiber.Ctx, name string, def int) (int, error) {
	v, err := OptionalInt(c, name)
	if err != nil || v == nil {
		return def, err
	}
	return *v, nil
}

// OptionalDate parses a YYYY-MM-DD query parameter as a calendar date; nil when absent.
func OptionalDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, invalid(name, "date")
	}
	return &d, nil
}
