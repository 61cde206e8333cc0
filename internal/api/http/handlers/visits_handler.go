package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/api/dto"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/service"
)

// VisitsHandler exposes agenda-event creation.
type VisitsHandler struct {
	visits *service.VisitService
}

// NewVisitsHandler constructs handler.
func NewVisitsHandler(visits *service.VisitService) *VisitsHandler {
	return &VisitsHandler{visits: visits}
}

// Create POST /run/visit.
func (h *VisitsHandler) Create(c *fiber.Ctx) error {
	submission, err := parseSubmission(c)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	outcome, err := h.visits.CreateVisit(c.UserContext(), runID, submission)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"runId": runID, "data": dto.VisitFrom(outcome)})
}
