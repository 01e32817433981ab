package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aiclub-uj/challenge-api/internal/models"
	"github.com/aiclub-uj/challenge-api/internal/repository"
	"github.com/aiclub-uj/challenge-api/pkg/grader"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeChallengeRepo struct {
	challenge    models.Challenge
	challengeErr error
	notebook     models.ChallengeNotebook
	notebookErr  error
}

func (f *fakeChallengeRepo) GetVisibleByID(context.Context, uint) (models.Challenge, error) {
	return f.challenge, f.challengeErr
}

func (f *fakeChallengeRepo) GetNotebookByChallenge(context.Context, uint) (models.ChallengeNotebook, error) {
	return f.notebook, f.notebookErr
}

func (f *fakeChallengeRepo) GetNotebookByAssignment(context.Context, string) (models.ChallengeNotebook, error) {
	return f.notebook, f.notebookErr
}

type fakeUserRepo struct {
	user    models.User
	err     error
	top     []models.User
	ensured []string
}

func (f *fakeUserRepo) GetByID(context.Context, uint) (models.User, error) {
	return f.user, f.err
}

func (f *fakeUserRepo) GetByWorkspaceUsername(context.Context, string) (models.User, error) {
	return f.user, f.err
}

func (f *fakeUserRepo) EnsureWorkspaceUsername(_ context.Context, _ uint, username string) error {
	f.ensured = append(f.ensured, username)
	return nil
}

func (f *fakeUserRepo) ListTopByPoints(context.Context, int) ([]models.User, error) {
	return f.top, nil
}

type fakeSubmissionRepo struct {
	byID         map[string]models.ChallengeSubmission
	latest       *models.ChallengeSubmission
	gradable     *models.ChallengeSubmission
	count        int64
	startResult  models.ChallengeSubmission
	startCreated bool
	startErr     error
	graded       []models.ChallengeSubmission
	submitted    []string
	pending      []string
	listResult   []models.ChallengeSubmission
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id string) (models.ChallengeSubmission, error) {
	if submission, ok := f.byID[id]; ok {
		return submission, nil
	}
	return models.ChallengeSubmission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) CountAttempts(context.Context, uint, uint) (int64, error) {
	return f.count, nil
}

func (f *fakeSubmissionRepo) Latest(context.Context, uint, uint) (models.ChallengeSubmission, error) {
	if f.latest == nil {
		return models.ChallengeSubmission{}, gorm.ErrRecordNotFound
	}
	return *f.latest, nil
}

func (f *fakeSubmissionRepo) StartAttempt(context.Context, uint, uint, uint, int, time.Time) (models.ChallengeSubmission, bool, error) {
	return f.startResult, f.startCreated, f.startErr
}

func (f *fakeSubmissionRepo) MarkSubmitted(_ context.Context, id string, _ time.Time) error {
	f.submitted = append(f.submitted, id)
	return nil
}

func (f *fakeSubmissionRepo) FindGradable(context.Context, uint, uint) (models.ChallengeSubmission, error) {
	if f.gradable == nil {
		return models.ChallengeSubmission{}, gorm.ErrRecordNotFound
	}
	return *f.gradable, nil
}

func (f *fakeSubmissionRepo) RecordPendingGrade(_ context.Context, id string, _, _ float64, _ *string, _ time.Time) error {
	f.pending = append(f.pending, id)
	return nil
}

func (f *fakeSubmissionRepo) List(context.Context, repository.SubmissionFilter) ([]models.ChallengeSubmission, error) {
	return f.listResult, nil
}

func (f *fakeSubmissionRepo) ListGradedByChallenge(context.Context, uint) ([]models.ChallengeSubmission, error) {
	return f.graded, nil
}

type fakeLedger struct {
	finalizations []repository.GradeFinalization
	overrides     []repository.OverrideFinalization
	outcome       repository.CreditOutcome
	err           error
}

func (f *fakeLedger) FinalizeAndCredit(_ context.Context, _ string, grade repository.GradeFinalization) (repository.CreditOutcome, error) {
	f.finalizations = append(f.finalizations, grade)
	return f.outcome, f.err
}

func (f *fakeLedger) OverrideAndRecredit(_ context.Context, _ string, grade repository.OverrideFinalization) (repository.CreditOutcome, error) {
	f.overrides = append(f.overrides, grade)
	return f.outcome, f.err
}

// fakeDispatcher records grading-pipeline calls and signals each one on a
// channel so tests can wait for the detached dispatch goroutines.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []string
	done  chan string
	err   error
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{done: make(chan string, 8)}
}

func (f *fakeDispatcher) record(operation string) error {
	f.mu.Lock()
	f.calls = append(f.calls, operation)
	f.mu.Unlock()
	f.done <- operation
	return f.err
}

func (f *fakeDispatcher) PrepareWorkspace(context.Context, string, string, grader.NotebookRef) error {
	return f.record("prepare")
}

func (f *fakeDispatcher) TriggerGrading(context.Context, string, string, grader.NotebookRef) error {
	return f.record("trigger")
}

func (f *fakeDispatcher) wait(timeout time.Duration) (string, bool) {
	select {
	case operation := <-f.done:
		return operation, true
	case <-time.After(timeout):
		return "", false
	}
}

type fakeWorkspaces struct{}

func (fakeWorkspaces) MintToken(_ uint, username string) (string, error) {
	return "token-" + username, nil
}

func (fakeWorkspaces) AccessURL(username, token, notebookFilename string) string {
	return fmt.Sprintf("https://hub.test/login?token=%s&user=%s&notebook=%s", token, username, notebookFilename)
}
