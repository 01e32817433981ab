package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aiclub-uj/challenge-api/internal/dto"
	"github.com/aiclub-uj/challenge-api/internal/repository"
	"github.com/aiclub-uj/challenge-api/internal/service"
	"github.com/aiclub-uj/challenge-api/internal/utils"
)

// AdminGradingHandler manages manual grading endpoints for administrators.
type AdminGradingHandler struct {
	grading service.AdminGradingService
	logger  zerolog.Logger
}

// NewAdminGradingHandler builds an admin grading handler instance.
func NewAdminGradingHandler(grading service.AdminGradingService, logger zerolog.Logger) *AdminGradingHandler {
	return &AdminGradingHandler{
		grading: grading,
		logger:  logger.With().Str("component", "admin_grading_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminGradingHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/:id/grade", h.grade)
}

func (h *AdminGradingHandler) list(c *fiber.Ctx) error {
	filter := repository.SubmissionFilter{}
	if challengeID, err := parseQueryUint(c, "challenge_id"); err == nil && challengeID != nil {
		filter.ChallengeID = challengeID
	}
	if userID, err := parseQueryUint(c, "user_id"); err == nil && userID != nil {
		filter.UserID = userID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	submissions, err := h.grading.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *AdminGradingHandler) grade(c *fiber.Ctx) error {
	submissionID := c.Params("id")
	if submissionID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "missing submission id")
	}

	var payload dto.AdminGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	actor := service.GradeActor{ID: userIDFromContext(c), Role: userRoleFromContext(c)}

	submission, err := h.grading.Grade(c.UserContext(), submissionID, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *AdminGradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAttemptNotSubmitted):
		return utils.SendError(c, fiber.StatusConflict, "only submitted or graded attempts can be manually graded")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, "score must be between 0 and 100")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
