package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aiclub-uj/challenge-api/internal/dto"
	"github.com/aiclub-uj/challenge-api/internal/service"
	"github.com/aiclub-uj/challenge-api/internal/utils"
)

// GradingWebhookHandler receives grade reports from the external grading pipeline.
type GradingWebhookHandler struct {
	ingest service.GradingIngestService
	logger zerolog.Logger
}

// NewGradingWebhookHandler builds a webhook handler instance.
func NewGradingWebhookHandler(ingest service.GradingIngestService, logger zerolog.Logger) *GradingWebhookHandler {
	return &GradingWebhookHandler{
		ingest: ingest,
		logger: logger.With().Str("component", "grading_webhook_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *GradingWebhookHandler) Register(router fiber.Router) {
	router.Post("/grading", h.grade)
}

func (h *GradingWebhookHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradingWebhookRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.ingest.Ingest(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *GradingWebhookHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrWebhookUnauthorized):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid webhook secret")
	case errors.Is(err, service.ErrNotebookNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "no eligible submission found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
