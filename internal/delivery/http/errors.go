package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/carepoint/backend/internal/apperror"
	"github.com/carepoint/backend/internal/logger"
)

// ErrorHandler renders StandardErrors with their code and status, fiber
// errors with their own status, and everything else as a 500.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":   true,
				"message": fe.Message,
			})
		}

		se := apperror.From(err)
		status := se.HTTPStatus()
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", map[string]interface{}{
				"method": c.Method(),
				"path":   c.Path(),
				"code":   string(se.Code),
				"error":  err.Error(),
			})
		}

		body := fiber.Map{
			"error":     true,
			"code":      se.Code,
			"message":   se.Message,
			"retryable": se.Retryable,
		}
		// Internal details stay in the log.
		if se.Details != "" && se.Code != apperror.ErrCodeInternal {
			body["details"] = se.Details
		}
		return c.Status(status).JSON(body)
	}
}
