package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/liftrecords/internal/domain"
	"github.com/mansoorceksport/liftrecords/internal/service"
	"github.com/mansoorceksport/liftrecords/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type PersonalRecordHandler struct {
	recordService *service.PersonalRecordService
}

func NewPersonalRecordHandler(recordService *service.PersonalRecordService) *PersonalRecordHandler {
	return &PersonalRecordHandler{recordService: recordService}
}

// ListActive GET /v1/me/records
func (h *PersonalRecordHandler) ListActive(c *fiber.Ctx) error {
	records, err := h.recordService.ListActiveRecords(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"records": records})
}

// GetSummaries GET /v1/me/records/summary
func (h *PersonalRecordHandler) GetSummaries(c *fiber.Ctx) error {
	summaries, err := h.recordService.GetSummaries(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"summaries": summaries})
}

// GetSummary GET /v1/me/records/summary/:configuration_id
func (h *PersonalRecordHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.recordService.GetSummary(c.UserContext(), userID(c), c.Params("configuration_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetHistory GET /v1/me/records/history/:configuration_id/:kind
func (h *PersonalRecordHandler) GetHistory(c *fiber.Ctx) error {
	kind, err := domain.ParseRecordKind(c.Params("kind"))
	if err != nil {
		return respondError(c, err)
	}

	history, err := h.recordService.GetHistory(c.UserContext(), userID(c), c.Params("configuration_id"), kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"records": history})
}

// Revert POST /v1/me/records/:id/revert
// Responds with the restored record, or a null current record when the
// reverted one was the first of its chain.
func (h *PersonalRecordHandler) Revert(c *fiber.Ctx) error {
	recordID := c.Params("id")
	restored, err := h.recordService.RevertToPrevious(c.UserContext(), userID(c), recordID)
	if err != nil {
		return respondError(c, err)
	}

	telemetry.AddSpanEvent(c, "record.reverted", attribute.String("record.id", recordID))
	return c.JSON(fiber.Map{
		"reverted_record_id": recordID,
		"current_record":     restored,
	})
}
