package api

import (
	"errors"
	"strings"

	"github.com/bobby-s-dev/weather-dashboard/internal/dashboard"
	"github.com/bobby-s-dev/weather-dashboard/internal/geo"
	"github.com/bobby-s-dev/weather-dashboard/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders every handler error as {"error", "success": false}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusCode(err)
	message := err.Error()

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" failed "+fe.Tag())
		}
		message = "invalid request: " + strings.Join(fields, ", ")
	}

	if code >= fiber.StatusInternalServerError {
		zap.L().Error("HTTP error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	} else {
		zap.L().Debug("HTTP client error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err))
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   message,
		"success": false,
	})
}

func statusCode(err error) int {
	var fe *fiber.Error
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &verrs), errors.Is(err, geo.ErrEmptyQuery):
		return fiber.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, dashboard.ErrNoLocation):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
