package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/aiclub-uj/challenge-api/internal/dto"
	"github.com/aiclub-uj/challenge-api/internal/models"
	"github.com/aiclub-uj/challenge-api/internal/observability"
	"github.com/aiclub-uj/challenge-api/internal/repository"
)

// ErrAttemptNotSubmitted indicates a manual grade targeted an attempt the
// learner never submitted.
var ErrAttemptNotSubmitted = errors.New("attempt has not been submitted")

// GradeActor identifies the administrator performing a manual grade.
type GradeActor struct {
	ID   uint
	Role string
}

// AdminGradingService encapsulates the manual override and re-grading path.
type AdminGradingService interface {
	Grade(ctx context.Context, submissionID string, payload dto.AdminGradeRequest, actor GradeActor) (dto.AdminSubmissionResponse, error)
	List(ctx context.Context, filter repository.SubmissionFilter) ([]dto.AdminSubmissionResponse, error)
}

type adminGradingService struct {
	submissions repository.SubmissionRepository
	ledger      repository.LedgerRepository
	validator   *validator.Validate
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAdminGradingService constructs the grading service.
func NewAdminGradingService(submissionRepo repository.SubmissionRepository, ledger repository.LedgerRepository, validate *validator.Validate, logger zerolog.Logger) AdminGradingService {
	return &adminGradingService{
		submissions: submissionRepo,
		ledger:      ledger,
		validator:   validate,
		tracer:      otel.Tracer("github.com/aiclub-uj/challenge-api/internal/service/admin_grading"),
		logger:      logger.With().Str("component", "admin_grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *adminGradingService) Grade(ctx context.Context, submissionID string, payload dto.AdminGradeRequest, actor GradeActor) (dto.AdminSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.override", trace.WithAttributes(
		attribute.String("grading.submission_id", submissionID),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AdminSubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.AdminSubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.AdminSubmissionResponse{}, err
	}

	if submission.Status == models.SubmissionStatusInProgress {
		span.SetStatus(codes.Error, "attempt_not_submitted")
		return dto.AdminSubmissionResponse{}, ErrAttemptNotSubmitted
	}

	// Manual grades are a percentage of the notebook's point ceiling, unlike
	// the raw-unit scores reported by the grading pipeline.
	points := computePointsAwarded(payload.Score, 100, submission.Notebook.MaxPoints)

	outcome, err := s.ledger.OverrideAndRecredit(ctx, submissionID, repository.OverrideFinalization{
		Score:         payload.Score,
		PointsAwarded: points,
		ActorID:       actor.ID,
		GradedAt:      s.now(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recredit_failed")
		return dto.AdminSubmissionResponse{}, err
	}

	observability.PointsCredits().WithLabelValues("override").Inc()

	s.logger.Info().
		Str("submission_id", submissionID).
		Uint("actor_id", actor.ID).
		Float64("score", payload.Score).
		Int("points_awarded", points).
		Int("points_delta", outcome.Delta).
		Msg("submission manually graded")

	span.SetAttributes(
		attribute.Float64("grading.score", payload.Score),
		attribute.Int("grading.points_awarded", points),
		attribute.Int("grading.points_delta", outcome.Delta),
	)

	return dto.NewAdminSubmissionResponse(outcome.Submission), nil
}

func (s *adminGradingService) List(ctx context.Context, filter repository.SubmissionFilter) ([]dto.AdminSubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAdminSubmissionResponseSlice(submissions), nil
}
