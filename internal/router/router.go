package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aiclub-uj/challenge-api/internal/config"
	"github.com/aiclub-uj/challenge-api/internal/handler"
	"github.com/aiclub-uj/challenge-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ChallengeHandler      *handler.ChallengeHandler
	GradingWebhookHandler *handler.GradingWebhookHandler
	AdminGradingHandler   *handler.AdminGradingHandler
	LeaderboardHandler    *handler.LeaderboardHandler
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Challenge attempt lifecycle
	if deps.ChallengeHandler != nil {
		challenges := app.Group("/api/v1/challenges", jwtMiddleware)
		deps.ChallengeHandler.Register(challenges)
	}

	// Global leaderboard is public
	if deps.LeaderboardHandler != nil {
		leaderboard := app.Group("/api/v1/leaderboard")
		deps.LeaderboardHandler.Register(leaderboard)
	}

	// Grading pipeline callbacks authenticate via the shared webhook secret,
	// not a bearer token.
	if deps.GradingWebhookHandler != nil {
		webhooks := app.Group("/webhooks")
		deps.GradingWebhookHandler.Register(webhooks)
	}

	// Admin grading
	if deps.AdminGradingHandler != nil {
		admin := app.Group("/api/admin/submissions", jwtMiddleware, middleware.RequireRole("admin", "teacher"))
		deps.AdminGradingHandler.Register(admin)
	}
}
