package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/aiclub-uj/challenge-api/internal/config"
	"github.com/aiclub-uj/challenge-api/internal/dto"
	"github.com/aiclub-uj/challenge-api/internal/observability"
	"github.com/aiclub-uj/challenge-api/internal/repository"
)

// ErrWebhookUnauthorized indicates a callback carried the wrong shared secret.
var ErrWebhookUnauthorized = errors.New("webhook secret mismatch")

// ErrSubmissionNotFound indicates no attempt was eligible for the grade.
var ErrSubmissionNotFound = errors.New("submission not found")

// GradingIngestService processes inbound grading callbacks from the external
// pipeline and finalizes the matching attempt.
type GradingIngestService interface {
	Ingest(ctx context.Context, payload dto.GradingWebhookRequest) (dto.GradingWebhookResponse, error)
}

type gradingIngestService struct {
	challenges    repository.ChallengeRepository
	submissions   repository.SubmissionRepository
	users         repository.UserRepository
	ledger        repository.LedgerRepository
	validator     *validator.Validate
	webhookSecret string
	policy        string
	tracer        trace.Tracer
	logger        zerolog.Logger
	now           func() time.Time
}

// NewGradingIngestService constructs a GradingIngestService instance. An
// empty webhookSecret disables callback authentication entirely; that is the
// documented permissive default for development deployments, not an
// oversight, and production must configure a secret.
func NewGradingIngestService(
	challengeRepo repository.ChallengeRepository,
	submissionRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	ledger repository.LedgerRepository,
	validate *validator.Validate,
	webhookSecret string,
	policy string,
	logger zerolog.Logger,
) GradingIngestService {
	if policy == "" {
		policy = config.GradingPolicyAuto
	}

	return &gradingIngestService{
		challenges:    challengeRepo,
		submissions:   submissionRepo,
		users:         userRepo,
		ledger:        ledger,
		validator:     validate,
		webhookSecret: webhookSecret,
		policy:        policy,
		tracer:        otel.Tracer("github.com/aiclub-uj/challenge-api/internal/service/grading_ingest"),
		logger:        logger.With().Str("component", "grading_ingest_service").Logger(),
		now:           time.Now,
	}
}

func (s *gradingIngestService) Ingest(ctx context.Context, payload dto.GradingWebhookRequest) (dto.GradingWebhookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.ingest", trace.WithAttributes(
		attribute.String("grading.assignment", payload.AssignmentName),
		attribute.String("grading.student", payload.StudentID),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradingWebhookResponse{}, err
	}

	if s.webhookSecret != "" && payload.WebhookSecret != s.webhookSecret {
		observability.GradingCallbacks().WithLabelValues("unauthorized").Inc()
		s.logger.Warn().
			Str("assignment", payload.AssignmentName).
			Str("student", payload.StudentID).
			Msg("grading callback rejected: secret mismatch")
		span.SetStatus(codes.Error, "unauthorized")
		return dto.GradingWebhookResponse{}, ErrWebhookUnauthorized
	}

	notebook, err := s.challenges.GetNotebookByAssignment(ctx, payload.AssignmentName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.GradingCallbacks().WithLabelValues("not_found").Inc()
			return dto.GradingWebhookResponse{}, ErrNotebookNotFound
		}
		return dto.GradingWebhookResponse{}, err
	}

	user, err := s.users.GetByWorkspaceUsername(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.GradingCallbacks().WithLabelValues("not_found").Inc()
			return dto.GradingWebhookResponse{}, ErrUserNotFound
		}
		return dto.GradingWebhookResponse{}, err
	}

	submission, err := s.submissions.FindGradable(ctx, user.ID, notebook.ChallengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.GradingCallbacks().WithLabelValues("not_found").Inc()
			return dto.GradingWebhookResponse{}, ErrSubmissionNotFound
		}
		return dto.GradingWebhookResponse{}, err
	}

	span.SetAttributes(attribute.String("grading.submission_id", submission.ID))

	if s.policy == config.GradingPolicyManual {
		if err := s.submissions.RecordPendingGrade(ctx, submission.ID,
			payload.Score, payload.MaxScore, payload.SubmissionID, s.now()); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "record_pending_failed")
			return dto.GradingWebhookResponse{}, err
		}

		observability.GradingCallbacks().WithLabelValues("accepted").Inc()
		s.logger.Info().
			Str("submission_id", submission.ID).
			Str("assignment", payload.AssignmentName).
			Msg("grading callback recorded, awaiting manual grading")

		return dto.GradingWebhookResponse{
			Success: true,
			Message: fmt.Sprintf("Submission received for %s and marked as grading_pending", payload.AssignmentName),
		}, nil
	}

	points := computePointsAwarded(payload.Score, payload.MaxScore, notebook.MaxPoints)

	outcome, err := s.ledger.FinalizeAndCredit(ctx, submission.ID, repository.GradeFinalization{
		Score:         payload.Score,
		MaxScore:      payload.MaxScore,
		PointsAwarded: points,
		GradingRunID:  payload.SubmissionID,
		GradedAt:      s.now(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finalize_failed")
		return dto.GradingWebhookResponse{}, err
	}

	observability.GradingCallbacks().WithLabelValues("accepted").Inc()
	if outcome.Credited {
		observability.PointsCredits().WithLabelValues("callback").Inc()
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("assignment", payload.AssignmentName).
		Int("points_awarded", points).
		Bool("credited", outcome.Credited).
		Msg("grading callback finalized")

	span.SetAttributes(
		attribute.Int("grading.points_awarded", points),
		attribute.Bool("grading.credited", outcome.Credited),
	)

	return dto.GradingWebhookResponse{
		Success:       true,
		PointsAwarded: points,
		Message:       fmt.Sprintf("Submission graded for %s", payload.AssignmentName),
	}, nil
}

// computePointsAwarded derives the ledger award from a reported score on an
// arbitrary basis, clamped to zero. A non-positive basis yields zero rather
// than a division error.
func computePointsAwarded(score, maxScoreBasis float64, maxPoints int) int {
	if maxScoreBasis <= 0 {
		return 0
	}

	points := int(math.Round(score / maxScoreBasis * float64(maxPoints)))
	if points < 0 {
		return 0
	}

	return points
}
