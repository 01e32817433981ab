package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aiclub-uj/challenge-api/internal/config"
	"github.com/aiclub-uj/challenge-api/internal/database"
	"github.com/aiclub-uj/challenge-api/internal/handler"
	"github.com/aiclub-uj/challenge-api/internal/middleware"
	"github.com/aiclub-uj/challenge-api/internal/models"
	"github.com/aiclub-uj/challenge-api/internal/repository"
	"github.com/aiclub-uj/challenge-api/internal/router"
	"github.com/aiclub-uj/challenge-api/internal/service"
	"github.com/aiclub-uj/challenge-api/pkg/grader"
	"github.com/aiclub-uj/challenge-api/pkg/workspace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Challenge{}, &models.ChallengeNotebook{}, &models.ChallengeSubmission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	graderClient, err := grader.New(grader.Config{
		BaseURL: cfg.GradingServiceURL,
		Timeout: cfg.GradingDispatchTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create grading service client: %v", err)
	}

	workspaces, err := workspace.New(workspace.Config{
		BaseURL:   cfg.WorkspaceBaseURL,
		JWTSecret: cfg.WorkspaceJWTSecret,
		TokenTTL:  cfg.WorkspaceTokenTTL,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create workspace provisioner: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	challengeRepo := repository.NewChallengeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	attemptService := service.NewChallengeAttemptService(challengeRepo, submissionRepo, userRepo, graderClient, workspaces, cfg.GradingDispatchTimeout, logger)
	ingestService := service.NewGradingIngestService(challengeRepo, submissionRepo, userRepo, ledgerRepo, validate, cfg.GradingWebhookSecret, cfg.GradingPolicy, logger)
	adminGradingService := service.NewAdminGradingService(submissionRepo, ledgerRepo, validate, logger)
	leaderboardService := service.NewLeaderboardService(userRepo, submissionRepo, redisClient, cfg.LeaderboardCacheTTL, logger)

	challengeHandler := handler.NewChallengeHandler(attemptService, leaderboardService, logger)
	webhookHandler := handler.NewGradingWebhookHandler(ingestService, logger)
	adminGradingHandler := handler.NewAdminGradingHandler(adminGradingService, logger)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ChallengeHandler:      challengeHandler,
		GradingWebhookHandler: webhookHandler,
		AdminGradingHandler:   adminGradingHandler,
		LeaderboardHandler:    leaderboardHandler,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
