package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aiclub-uj/challenge-api/internal/service"
	"github.com/aiclub-uj/challenge-api/internal/utils"
)

// ChallengeHandler manages the learner-facing attempt lifecycle endpoints.
type ChallengeHandler struct {
	attempts     service.ChallengeAttemptService
	leaderboards service.LeaderboardService
	logger       zerolog.Logger
}

// NewChallengeHandler builds a challenge handler instance.
func NewChallengeHandler(attempts service.ChallengeAttemptService, leaderboards service.LeaderboardService, logger zerolog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		attempts:     attempts,
		leaderboards: leaderboards,
		logger:       logger.With().Str("component", "challenge_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ChallengeHandler) Register(router fiber.Router) {
	router.Post("/:id/start", h.start)
	router.Post("/:id/submit", h.submit)
	router.Get("/:id/submission", h.submission)
	router.Get("/:id/leaderboard", h.leaderboard)
}

func (h *ChallengeHandler) start(c *fiber.Ctx) error {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.attempts.Start(c.UserContext(), userID, challengeID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "challenge started", response)
}

func (h *ChallengeHandler) submit(c *fiber.Ctx) error {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.attempts.Submit(c.UserContext(), userID, challengeID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, response.Message, response)
}

func (h *ChallengeHandler) submission(c *fiber.Ctx) error {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.attempts.GetSubmission(c.UserContext(), userID, challengeID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", response)
}

func (h *ChallengeHandler) leaderboard(c *fiber.Ctx) error {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	entries, err := h.leaderboards.Challenge(c.UserContext(), challengeID, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "challenge leaderboard retrieved", entries)
}

func (h *ChallengeHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrChallengeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "challenge not found")
	case errors.Is(err, service.ErrNotebookNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "this challenge does not have a notebook")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrChallengeNotActive):
		return utils.SendError(c, fiber.StatusBadRequest, "challenge is not active")
	case errors.Is(err, service.ErrQuotaExceeded):
		return utils.SendError(c, fiber.StatusConflict, "no attempts remaining for this challenge")
	case errors.Is(err, service.ErrAlreadyGraded):
		return utils.SendError(c, fiber.StatusConflict, "you have already completed this challenge")
	case errors.Is(err, service.ErrNoActiveAttempt):
		return utils.SendError(c, fiber.StatusBadRequest, "you haven't started this challenge yet")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
