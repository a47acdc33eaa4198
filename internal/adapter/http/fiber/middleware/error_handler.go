package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
)

// InternalErrorMessage is the only detail a 5xx response carries.
const InternalErrorMessage = "An internal error occurred. Please try again later."

// ErrorHandler renders unhandled errors as {"error": ...}. Domain validation
// errors become 400s; anything unrecognized is logged and hidden behind a 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := InternalErrorMessage

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			if code < fiber.StatusInternalServerError {
				message = fe.Message
			}
		case errors.Is(err, domain.ErrUnsupportedLanguage):
			code = fiber.StatusBadRequest
			message = "Unsupported language"
		case errors.Is(err, domain.ErrBadRequest):
			code = fiber.StatusBadRequest
			message = err.Error()
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("Internal Server Error",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("request_id", requestID(c)),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
