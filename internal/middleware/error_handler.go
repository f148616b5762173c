package middleware

import (
	"encoding/json"
	"errors"
	"time"

	"meterinstall-backend/internal/pkg/apperrors"
	"meterinstall-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const errorLogSize = 50

// ErrorHandler is the global error handler. Application errors keep their kind's status;
// 5xx responses are appended to the capped Redis error log read by /health/errors.
func ErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		var ae *apperrors.Error
		var sendErr error
		code := fiber.StatusInternalServerError
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			sendErr = response.Error(c, fe.Message, code, nil)
		case errors.As(err, &ae):
			code = ae.Kind.StatusCode()
			sendErr = response.FromError(c, err)
		default:
			sendErr = response.Error(c, "Internal Server Error", code, nil)
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("request failed")
			if rdb != nil {
				entry, _ := json.Marshal(map[string]interface{}{
					"time":     time.Now().UTC(),
					"path":     c.OriginalURL(),
					"method":   c.Method(),
					"status":   code,
					"message":  err.Error(),
					"trace_id": GetTraceID(c),
				})
				ctx := c.UserContext()
				pipe := rdb.TxPipeline()
				pipe.LPush(ctx, KeyErrorLog, entry)
				pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
				if _, perr := pipe.Exec(ctx); perr != nil {
					log.Warn().Err(perr).Msg("error log write failed")
				}
			}
		}
		return sendErr
	}
}
