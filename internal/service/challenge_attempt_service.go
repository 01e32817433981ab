package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aiclub-uj/challenge-api/internal/dto"
	"github.com/aiclub-uj/challenge-api/internal/models"
	"github.com/aiclub-uj/challenge-api/internal/observability"
	"github.com/aiclub-uj/challenge-api/internal/repository"
	"github.com/aiclub-uj/challenge-api/pkg/grader"
	"github.com/aiclub-uj/challenge-api/pkg/workspace"
)

// ErrChallengeNotFound indicates the challenge does not exist or is hidden.
var ErrChallengeNotFound = errors.New("challenge not found")

// ErrNotebookNotFound indicates the challenge has no linked notebook.
var ErrNotebookNotFound = errors.New("challenge notebook not found")

// ErrUserNotFound indicates the learner account could not be located.
var ErrUserNotFound = errors.New("user not found")

// ErrChallengeNotActive indicates the challenge window is closed.
var ErrChallengeNotActive = errors.New("challenge is not active")

// ErrQuotaExceeded indicates every allowed attempt has been consumed.
var ErrQuotaExceeded = errors.New("attempt quota exceeded")

// ErrAlreadyGraded indicates the final allowed attempt has been graded.
var ErrAlreadyGraded = errors.New("challenge already graded")

// ErrNoActiveAttempt indicates a submit without a prior start.
var ErrNoActiveAttempt = errors.New("no active attempt for this challenge")

// GradingDispatcher sends fire-and-forget requests to the grading pipeline.
type GradingDispatcher interface {
	PrepareWorkspace(ctx context.Context, username, assignmentName string, notebook grader.NotebookRef) error
	TriggerGrading(ctx context.Context, username, assignmentName string, notebook grader.NotebookRef) error
}

// WorkspaceProvisioner mints workspace credentials and access URLs.
type WorkspaceProvisioner interface {
	MintToken(userID uint, username string) (string, error)
	AccessURL(username, token, notebookFilename string) string
}

// ChallengeAttemptService drives the attempt lifecycle: quota-gated start,
// the submit transition, and the learner's view of their latest attempt.
type ChallengeAttemptService interface {
	Start(ctx context.Context, userID, challengeID uint) (dto.StartChallengeResponse, error)
	Submit(ctx context.Context, userID, challengeID uint) (dto.SubmitChallengeResponse, error)
	GetSubmission(ctx context.Context, userID, challengeID uint) (dto.SubmissionResponse, error)
}

type challengeAttemptService struct {
	challenges      repository.ChallengeRepository
	submissions     repository.SubmissionRepository
	users           repository.UserRepository
	dispatcher      GradingDispatcher
	workspaces      WorkspaceProvisioner
	dispatchTimeout time.Duration
	logger          zerolog.Logger
	now             func() time.Time
}

// NewChallengeAttemptService constructs a ChallengeAttemptService instance.
func NewChallengeAttemptService(
	challengeRepo repository.ChallengeRepository,
	submissionRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	dispatcher GradingDispatcher,
	workspaces WorkspaceProvisioner,
	dispatchTimeout time.Duration,
	logger zerolog.Logger,
) ChallengeAttemptService {
	if dispatchTimeout <= 0 {
		dispatchTimeout = 10 * time.Second
	}

	return &challengeAttemptService{
		challenges:      challengeRepo,
		submissions:     submissionRepo,
		users:           userRepo,
		dispatcher:      dispatcher,
		workspaces:      workspaces,
		dispatchTimeout: dispatchTimeout,
		logger:          logger.With().Str("component", "challenge_attempt_service").Logger(),
		now:             time.Now,
	}
}

func (s *challengeAttemptService) Start(ctx context.Context, userID, challengeID uint) (dto.StartChallengeResponse, error) {
	challenge, err := s.challenges.GetVisibleByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StartChallengeResponse{}, ErrChallengeNotFound
		}
		return dto.StartChallengeResponse{}, err
	}

	if !challenge.IsActiveAt(s.now()) {
		return dto.StartChallengeResponse{}, ErrChallengeNotActive
	}

	notebook, err := s.challenges.GetNotebookByChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StartChallengeResponse{}, ErrNotebookNotFound
		}
		return dto.StartChallengeResponse{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StartChallengeResponse{}, ErrUserNotFound
		}
		return dto.StartChallengeResponse{}, err
	}

	username := workspace.Username(userID)
	if user.WorkspaceUsername != nil && *user.WorkspaceUsername != "" {
		username = *user.WorkspaceUsername
	} else if err := s.users.EnsureWorkspaceUsername(ctx, userID, username); err != nil {
		return dto.StartChallengeResponse{}, err
	}

	submission, created, err := s.submissions.StartAttempt(ctx, userID, challengeID, notebook.ID, challenge.Quota(), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrQuotaExhausted) {
			return dto.StartChallengeResponse{}, s.quotaError(ctx, userID, challengeID)
		}
		return dto.StartChallengeResponse{}, err
	}

	attemptsUsed, err := s.submissions.CountAttempts(ctx, userID, challengeID)
	if err != nil {
		return dto.StartChallengeResponse{}, err
	}

	token, err := s.workspaces.MintToken(userID, username)
	if err != nil {
		return dto.StartChallengeResponse{}, err
	}

	// The workspace may already hold the notebook when resuming; preparing
	// again is harmless and covers workspaces recreated since the last start.
	s.dispatchPrepare(username, notebook)

	if created {
		s.logger.Info().
			Str("submission_id", submission.ID).
			Uint("user_id", userID).
			Uint("challenge_id", challengeID).
			Int("attempt_number", submission.AttemptNumber).
			Msg("attempt started")
	}

	remaining := challenge.Quota() - int(attemptsUsed)
	if remaining < 0 {
		remaining = 0
	}

	return dto.StartChallengeResponse{
		SubmissionID:      submission.ID,
		AttemptNumber:     submission.AttemptNumber,
		AttemptsUsed:      int(attemptsUsed),
		AttemptsRemaining: remaining,
		WorkspaceURL:      s.workspaces.AccessURL(username, token, notebook.NotebookFilename),
		WorkspaceToken:    token,
	}, nil
}

// quotaError distinguishes a fully graded final attempt from a plain quota
// rejection so callers can message the two cases differently.
func (s *challengeAttemptService) quotaError(ctx context.Context, userID, challengeID uint) error {
	latest, err := s.submissions.Latest(ctx, userID, challengeID)
	if err == nil && latest.IsTerminal() {
		return ErrAlreadyGraded
	}

	return ErrQuotaExceeded
}

func (s *challengeAttemptService) Submit(ctx context.Context, userID, challengeID uint) (dto.SubmitChallengeResponse, error) {
	latest, err := s.submissions.Latest(ctx, userID, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitChallengeResponse{}, ErrNoActiveAttempt
		}
		return dto.SubmitChallengeResponse{}, err
	}

	attemptsUsed, err := s.submissions.CountAttempts(ctx, userID, challengeID)
	if err != nil {
		return dto.SubmitChallengeResponse{}, err
	}

	response := dto.SubmitChallengeResponse{
		AttemptNumber:     latest.AttemptNumber,
		AttemptsUsed:      int(attemptsUsed),
		AttemptsRemaining: s.remaining(latest.Challenge, int(attemptsUsed)),
	}

	switch latest.Status {
	case models.SubmissionStatusGradingPending:
		// Idempotent resubmission: report where the attempt already is.
		response.Status = latest.Status
		response.Message = "Challenge already submitted; grading is in progress."
		return response, nil

	case models.SubmissionStatusGraded:
		response.Status = latest.Status
		response.Message = "Challenge already graded."
		return response, nil
	}

	if err := s.submissions.MarkSubmitted(ctx, latest.ID, s.now()); err != nil {
		return dto.SubmitChallengeResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", latest.ID).
		Uint("user_id", userID).
		Uint("challenge_id", challengeID).
		Msg("attempt submitted for grading")

	// Dispatch after the transition committed; its outcome never affects
	// the submit result. Grading progress arrives via the webhook.
	s.dispatchTrigger(ctx, userID, latest.Notebook)

	response.Status = models.SubmissionStatusGradingPending
	response.Message = "Challenge submitted! Grading will begin shortly."

	return response, nil
}

func (s *challengeAttemptService) GetSubmission(ctx context.Context, userID, challengeID uint) (dto.SubmissionResponse, error) {
	latest, err := s.submissions.Latest(ctx, userID, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrNoActiveAttempt
		}
		return dto.SubmissionResponse{}, err
	}

	attemptsUsed, err := s.submissions.CountAttempts(ctx, userID, challengeID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	response := dto.NewSubmissionResponse(latest, int(attemptsUsed), latest.Challenge.Quota())

	if latest.Status == models.SubmissionStatusInProgress {
		username := workspace.Username(userID)
		if latest.User.WorkspaceUsername != nil && *latest.User.WorkspaceUsername != "" {
			username = *latest.User.WorkspaceUsername
		}

		if token, err := s.workspaces.MintToken(userID, username); err == nil {
			response.WorkspaceURL = s.workspaces.AccessURL(username, token, latest.Notebook.NotebookFilename)
		}
	}

	return response, nil
}

func (s *challengeAttemptService) remaining(challenge models.Challenge, attemptsUsed int) int {
	remaining := challenge.Quota() - attemptsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *challengeAttemptService) dispatchPrepare(username string, notebook models.ChallengeNotebook) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		ref := grader.NotebookRef{Filename: notebook.NotebookFilename, Path: notebook.NotebookPath}
		if err := s.dispatcher.PrepareWorkspace(ctx, username, notebook.AssignmentName, ref); err != nil {
			observability.DispatchFailures().WithLabelValues("prepare").Inc()
			s.logger.Warn().Err(err).
				Str("workspace_username", username).
				Str("assignment", notebook.AssignmentName).
				Msg("failed to prepare workspace notebook")
		}
	}()
}

func (s *challengeAttemptService) dispatchTrigger(ctx context.Context, userID uint, notebook models.ChallengeNotebook) {
	username := workspace.Username(userID)
	if user, err := s.users.GetByID(ctx, userID); err == nil &&
		user.WorkspaceUsername != nil && *user.WorkspaceUsername != "" {
		username = *user.WorkspaceUsername
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		ref := grader.NotebookRef{Filename: notebook.NotebookFilename, Path: notebook.NotebookPath}
		if err := s.dispatcher.TriggerGrading(ctx, username, notebook.AssignmentName, ref); err != nil {
			observability.DispatchFailures().WithLabelValues("trigger").Inc()
			s.logger.Warn().Err(err).
				Str("workspace_username", username).
				Str("assignment", notebook.AssignmentName).
				Msg("failed to trigger grading")
		}
	}()
}
