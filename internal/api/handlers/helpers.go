package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/viralflow/internal/platform"
	"github.com/maheshrc27/viralflow/internal/scheduler"
	"github.com/maheshrc27/viralflow/internal/service"
)

// errorResponse maps domain errors to HTTP statuses.
func errorResponse(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"errors": verr.Problems,
		})
	case errors.Is(err, scheduler.ErrInvalidScheduleTime):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, scheduler.ErrPostNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
	case errors.Is(err, platform.ErrNotConnected):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, scheduler.ErrJobAlreadyFired),
		errors.Is(err, scheduler.ErrPostNotScheduled),
		errors.Is(err, scheduler.ErrAlreadyScheduled),
		errors.Is(err, service.ErrPostNotReady):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		slog.Error(err.Error(), "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "something went wrong"})
	}
}
