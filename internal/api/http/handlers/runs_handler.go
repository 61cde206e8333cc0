package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/api/dto"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/domain"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/service"
	apperrors "github.com/fieldops/kobo-dolibarr-bridge/pkg/util"
)

// RunsHandler exposes the close-ticket runs.
type RunsHandler struct {
	closeRun     *service.CloseRunService
	batchEnabled bool
}

// NewRunsHandler constructs handler.
func NewRunsHandler(closeRun *service.CloseRunService, batchEnabled bool) *RunsHandler {
	return &RunsHandler{closeRun: closeRun, batchEnabled: batchEnabled}
}

// CloseTicket POST /run/close-ticket. Every business outcome (missing
// reference, not found, closed) is HTTP 200; only malformed bodies and
// transport failures surface as errors.
func (h *RunsHandler) CloseTicket(c *fiber.Ctx) error {
	submission, err := parseSubmission(c)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	outcome := h.closeRun.ProcessOne(c.UserContext(), runID, submission)
	return c.JSON(fiber.Map{"runId": runID, "data": dto.OutcomeFrom(outcome)})
}

// CloseBatch POST /run/close-tickets/batch pulls all submissions from
// the survey platform and processes them in one pass.
func (h *RunsHandler) CloseBatch(c *fiber.Ctx) error {
	if !h.batchEnabled {
		return apperrors.NewDomainError("BATCH_DISABLED",
			"survey listing credentials are not configured", http.StatusServiceUnavailable, nil)
	}
	report, err := h.closeRun.ProcessBatch(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReportFrom(report)})
}

// parseSubmission accepts a JSON object body or a form-encoded body and
// returns it as a flat key/value submission.
func parseSubmission(c *fiber.Ctx) (domain.Submission, error) {
	contentType := strings.ToLower(string(c.Request().Header.ContentType()))

	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		submission := domain.Submission{}
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			submission[string(key)] = string(value)
		})
		return submission, nil
	}

	submission := domain.Submission{}
	if len(c.Body()) == 0 {
		return submission, nil
	}
	if err := json.Unmarshal(c.Body(), &submission); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	return submission, nil
}
