package middleware

import (
	"errors"
	"strconv"
	"time"

	"meterinstall-backend/internal/pkg/apperrors"
	"meterinstall-backend/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records Prometheus request count and latency, labelled by the matched route pattern.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		status := statusOf(c, err)
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
			route = r.Path
		}
		metrics.RecordHTTPRequest(c.Method(), route, strconv.Itoa(status), time.Since(start).Seconds())
		return err
	}
}

// statusOf is the status the response will carry once the global error handler has run.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var ae *apperrors.Error
	if errors.As(err, &ae) {
		return ae.Kind.StatusCode()
	}
	return fiber.StatusInternalServerError
}
