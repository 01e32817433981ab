package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aiclub-uj/challenge-api/internal/service"
	"github.com/aiclub-uj/challenge-api/internal/utils"
)

// LeaderboardHandler serves the global points ranking.
type LeaderboardHandler struct {
	leaderboards service.LeaderboardService
	logger       zerolog.Logger
}

// NewLeaderboardHandler builds a leaderboard handler instance.
func NewLeaderboardHandler(leaderboards service.LeaderboardService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboards: leaderboards,
		logger:       logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("", h.global)
}

func (h *LeaderboardHandler) global(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	entries, err := h.leaderboards.Global(c.UserContext(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "leaderboard retrieved", entries)
}
