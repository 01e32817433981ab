package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aiclub-uj/challenge-api/internal/models"
)

// ErrQuotaExhausted indicates every allowed attempt for a (user, challenge)
// pair has been consumed.
var ErrQuotaExhausted = errors.New("attempt quota exhausted")

// startAttemptRetries bounds retries when two concurrent starts race past the
// quota count and collide on the attempt-number unique index.
const startAttemptRetries = 3

// SubmissionFilter narrows admin submission queries.
type SubmissionFilter struct {
	ChallengeID *uint
	UserID      *uint
	Status      *string
}

// SubmissionRepository defines data operations for challenge attempts.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id string) (models.ChallengeSubmission, error)
	CountAttempts(ctx context.Context, userID, challengeID uint) (int64, error)
	Latest(ctx context.Context, userID, challengeID uint) (models.ChallengeSubmission, error)
	// StartAttempt returns an existing non-terminal attempt unchanged, or
	// atomically inserts the next numbered attempt while enforcing the quota.
	// The returned bool reports whether a new row was created.
	StartAttempt(ctx context.Context, userID, challengeID, notebookID uint, quota int, now time.Time) (models.ChallengeSubmission, bool, error)
	MarkSubmitted(ctx context.Context, id string, at time.Time) error
	// FindGradable selects the attempt a grading result should land on: the
	// highest-numbered non-terminal attempt, falling back to the most
	// recently graded one so that re-grades have a target.
	FindGradable(ctx context.Context, userID, challengeID uint) (models.ChallengeSubmission, error)
	// RecordPendingGrade stores a reported score without finalizing, used by
	// the manual grading policy.
	RecordPendingGrade(ctx context.Context, id string, score, maxScore float64, runID *string, at time.Time) error
	List(ctx context.Context, filter SubmissionFilter) ([]models.ChallengeSubmission, error)
	ListGradedByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeSubmission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ChallengeSubmission{}).
		Preload("User").
		Preload("Challenge").
		Preload("Notebook")
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.ChallengeSubmission, error) {
	var submission models.ChallengeSubmission
	if err := r.baseQuery(ctx).Where("id = ?", id).First(&submission).Error; err != nil {
		return models.ChallengeSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) CountAttempts(ctx context.Context, userID, challengeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChallengeSubmission{}).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Count(&count).Error

	return count, err
}

func (r *submissionRepository) Latest(ctx context.Context, userID, challengeID uint) (models.ChallengeSubmission, error) {
	var submission models.ChallengeSubmission
	if err := r.baseQuery(ctx).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Order("attempt_number DESC").
		First(&submission).Error; err != nil {
		return models.ChallengeSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) StartAttempt(ctx context.Context, userID, challengeID, notebookID uint, quota int, now time.Time) (models.ChallengeSubmission, bool, error) {
	for attempt := 0; attempt < startAttemptRetries; attempt++ {
		var (
			created    models.ChallengeSubmission
			reusedID   string
			quotaError bool
		)

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var open models.ChallengeSubmission
			err := tx.Where("user_id = ? AND challenge_id = ? AND status <> ?",
				userID, challengeID, models.SubmissionStatusGraded).
				Order("attempt_number DESC").
				First(&open).Error
			if err == nil {
				reusedID = open.ID
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			var used int64
			if err := tx.Model(&models.ChallengeSubmission{}).
				Where("user_id = ? AND challenge_id = ?", userID, challengeID).
				Count(&used).Error; err != nil {
				return err
			}

			if used >= int64(quota) {
				quotaError = true
				return nil
			}

			startedAt := now
			created = models.ChallengeSubmission{
				UserID:        userID,
				ChallengeID:   challengeID,
				NotebookID:    notebookID,
				AttemptNumber: int(used) + 1,
				Status:        models.SubmissionStatusInProgress,
				StartedAt:     &startedAt,
			}

			return tx.Create(&created).Error
		})

		if err != nil {
			// A concurrent start won the attempt-number slot; re-evaluate
			// from a fresh count so the quota check stays authoritative.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return models.ChallengeSubmission{}, false, err
		}

		if quotaError {
			return models.ChallengeSubmission{}, false, ErrQuotaExhausted
		}

		if reusedID != "" {
			existing, err := r.GetByID(ctx, reusedID)
			return existing, false, err
		}

		full, err := r.GetByID(ctx, created.ID)
		return full, true, err
	}

	return models.ChallengeSubmission{}, false, gorm.ErrDuplicatedKey
}

func (r *submissionRepository) MarkSubmitted(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ChallengeSubmission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusInProgress).
		Updates(map[string]interface{}{
			"status":       models.SubmissionStatusGradingPending,
			"submitted_at": at,
		}).Error
}

func (r *submissionRepository) FindGradable(ctx context.Context, userID, challengeID uint) (models.ChallengeSubmission, error) {
	var submission models.ChallengeSubmission
	err := r.baseQuery(ctx).
		Where("user_id = ? AND challenge_id = ? AND status <> ?",
			userID, challengeID, models.SubmissionStatusGraded).
		Order("attempt_number DESC").
		First(&submission).Error
	if err == nil {
		return submission, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ChallengeSubmission{}, err
	}

	// All attempts terminal: target the most recently graded one for re-grade.
	if err := r.baseQuery(ctx).
		Where("user_id = ? AND challenge_id = ? AND status = ?",
			userID, challengeID, models.SubmissionStatusGraded).
		Order("graded_at DESC").
		First(&submission).Error; err != nil {
		return models.ChallengeSubmission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) RecordPendingGrade(ctx context.Context, id string, score, maxScore float64, runID *string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ChallengeSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         models.SubmissionStatusGradingPending,
			"score":          score,
			"max_score":      maxScore,
			"grading_run_id": runID,
			"submitted_at":   gorm.Expr("COALESCE(submitted_at, ?)", at),
		}).Error
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.ChallengeSubmission, error) {
	query := r.baseQuery(ctx)

	if filter.ChallengeID != nil {
		query = query.Where("challenge_id = ?", *filter.ChallengeID)
	}

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.ChallengeSubmission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListGradedByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeSubmission, error) {
	var submissions []models.ChallengeSubmission
	if err := r.baseQuery(ctx).
		Where("challenge_id = ? AND status = ?", challengeID, models.SubmissionStatusGraded).
		Order("points_awarded DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
