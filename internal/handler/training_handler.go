package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/liftrecords/internal/domain"
	"github.com/mansoorceksport/liftrecords/internal/service"
	"github.com/mansoorceksport/liftrecords/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type TrainingHandler struct {
	trainingService *service.TrainingService
}

func NewTrainingHandler(trainingService *service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

// --- Movements & Configurations ---

// CreateMovement POST /v1/me/movements
func (h *TrainingHandler) CreateMovement(c *fiber.Ctx) error {
	var req domain.Movement
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if err := h.trainingService.CreateMovement(c.UserContext(), userID(c), &req); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// ListMovements GET /v1/me/movements
func (h *TrainingHandler) ListMovements(c *fiber.Ctx) error {
	movements, err := h.trainingService.ListMovements(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"movements": movements})
}

// CreateConfiguration POST /v1/me/configurations
func (h *TrainingHandler) CreateConfiguration(c *fiber.Ctx) error {
	var req domain.ExerciseConfiguration
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.MovementID == "" || req.Equipment == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "movement_id and equipment are required"})
	}
	if err := h.trainingService.CreateConfiguration(c.UserContext(), userID(c), &req); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// --- Sessions ---

// CreateSession POST /v1/me/sessions
func (h *TrainingHandler) CreateSession(c *fiber.Ctx) error {
	var req domain.TrainingSession
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if err := h.trainingService.CreateSession(c.UserContext(), userID(c), &req); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// GetSession GET /v1/me/sessions/:id
func (h *TrainingHandler) GetSession(c *fiber.Ctx) error {
	session, entries, err := h.trainingService.GetSession(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"session": session,
		"sets":    entries,
	})
}

// CompleteSession POST /v1/me/sessions/:id/complete
func (h *TrainingHandler) CompleteSession(c *fiber.Ctx) error {
	results, err := h.trainingService.CompleteSession(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	if len(results) > 0 {
		telemetry.AddSpanEvent(c, "records.set", attribute.Int("records.count", len(results)))
	}
	return c.JSON(fiber.Map{
		"session_id":  c.Params("id"),
		"new_records": results,
	})
}

// --- Set Entries ---

// LogSet POST /v1/me/sessions/:id/sets
func (h *TrainingHandler) LogSet(c *fiber.Ctx) error {
	var req domain.SetEntry
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	result, err := h.trainingService.LogSet(c.UserContext(), userID(c), c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	if result.Records != nil && result.Records.HasNewRecord() {
		telemetry.AddSpanEvent(c, "records.set", attribute.String("set_entry.id", result.Entry.ID))
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// UpdateSet PUT /v1/me/sets/:id
func (h *TrainingHandler) UpdateSet(c *fiber.Ctx) error {
	var req service.SetEntryUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	result, err := h.trainingService.UpdateSet(c.UserContext(), userID(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}

	if len(result.Reverted) > 0 {
		telemetry.AddSpanEvent(c, "records.reverted",
			attribute.String("set_entry.id", result.Entry.ID),
			attribute.Int("records.count", len(result.Reverted)))
	}
	return c.JSON(result)
}
