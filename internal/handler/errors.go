package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/liftrecords/internal/domain"
	"github.com/mansoorceksport/liftrecords/internal/middleware"
)

// respondError writes the JSON error response for domain errors. Anything
// else is returned unchanged so the app error handler logs it and answers 500.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case domain.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFoundMessage(err)})
	case errors.Is(err, domain.ErrRecordNotActive),
		errors.Is(err, domain.ErrSessionAlreadyCompleted),
		errors.Is(err, domain.ErrDuplicateConfiguration):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidAttempt),
		errors.Is(err, domain.ErrInvalidUnit),
		errors.Is(err, domain.ErrInvalidRecordKind),
		errors.Is(err, domain.ErrInvalidEntryType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return err
}

// notFoundMessage never reveals whether the resource exists for another user
func notFoundMessage(err error) string {
	for _, known := range []error{
		domain.ErrRecordNotFound,
		domain.ErrSessionNotFound,
		domain.ErrSetEntryNotFound,
		domain.ErrExerciseConfigurationNotFound,
		domain.ErrMovementNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "not found"
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.UserIDKey).(string)
	return id
}
