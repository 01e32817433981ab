package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/aiclub-uj/challenge-api/internal/models"
)

// GradeFinalization carries the grading-pipeline result applied by the ledger.
type GradeFinalization struct {
	Score         float64
	MaxScore      float64
	PointsAwarded int
	GradingRunID  *string
	GradedAt      time.Time
}

// OverrideFinalization carries a manual re-grade. Score is a percentage of
// the notebook point ceiling, which is why the stored max score becomes 100.
type OverrideFinalization struct {
	Score         float64
	PointsAwarded int
	ActorID       uint
	GradedAt      time.Time
}

// CreditOutcome reports what a ledger operation changed.
type CreditOutcome struct {
	Submission models.ChallengeSubmission
	Credited   bool
	Delta      int
	UserPoints int
}

// LedgerRepository applies point awards to user accounts. Every method runs
// the submission update, the point delta, the credit guard flip, and the rank
// recompute inside a single transaction so a commit failure leaves no partial
// ledger state.
type LedgerRepository interface {
	// FinalizeAndCredit persists the grading result on the submission
	// (last-write-wins on repeat callbacks) and credits the user's account
	// exactly once per submission.
	FinalizeAndCredit(ctx context.Context, submissionID string, grade GradeFinalization) (CreditOutcome, error)
	// OverrideAndRecredit applies a manual grade. If the submission was
	// already credited the user's total changes by the delta between new and
	// previous award, never by a re-add.
	OverrideAndRecredit(ctx context.Context, submissionID string, grade OverrideFinalization) (CreditOutcome, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository instantiates the repository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) FinalizeAndCredit(ctx context.Context, submissionID string, grade GradeFinalization) (CreditOutcome, error) {
	var outcome CreditOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.ChallengeSubmission
		if err := tx.Where("id = ?", submissionID).First(&submission).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":         models.SubmissionStatusGraded,
			"score":          grade.Score,
			"max_score":      grade.MaxScore,
			"points_awarded": grade.PointsAwarded,
			"graded_at":      grade.GradedAt,
			"submitted_at":   gorm.Expr("COALESCE(submitted_at, ?)", grade.GradedAt),
		}
		if grade.GradingRunID != nil {
			updates["grading_run_id"] = grade.GradingRunID
		}

		if err := tx.Model(&models.ChallengeSubmission{}).
			Where("id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return err
		}

		// The guard flip doubles as the race arbiter: only the statement that
		// actually transitions false->true may touch the user's total.
		guard := tx.Model(&models.ChallengeSubmission{}).
			Where("id = ? AND points_credited = ?", submissionID, false).
			Update("points_credited", true)
		if guard.Error != nil {
			return guard.Error
		}

		if guard.RowsAffected == 1 {
			outcome.Credited = true
			outcome.Delta = grade.PointsAwarded

			if err := tx.Model(&models.User{}).
				Where("id = ?", submission.UserID).
				Update("points", gorm.Expr("points + ?", grade.PointsAwarded)).Error; err != nil {
				return err
			}

			if err := recomputeRanks(tx); err != nil {
				return err
			}
		}

		return r.loadOutcome(tx, submissionID, &outcome)
	})
	if err != nil {
		return CreditOutcome{}, err
	}

	return outcome, nil
}

func (r *ledgerRepository) OverrideAndRecredit(ctx context.Context, submissionID string, grade OverrideFinalization) (CreditOutcome, error) {
	var outcome CreditOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.ChallengeSubmission
		if err := tx.Where("id = ?", submissionID).First(&submission).Error; err != nil {
			return err
		}

		delta := grade.PointsAwarded
		if submission.PointsCredited {
			delta = grade.PointsAwarded - submission.PointsAwarded
		}

		// Compare-and-swap against the snapshot read above so a concurrent
		// credit cannot be folded into a stale delta.
		update := tx.Model(&models.ChallengeSubmission{}).
			Where("id = ? AND points_awarded = ? AND points_credited = ?",
				submissionID, submission.PointsAwarded, submission.PointsCredited).
			Updates(map[string]interface{}{
				"status":          models.SubmissionStatusGraded,
				"score":           grade.Score,
				"max_score":       100.0,
				"points_awarded":  grade.PointsAwarded,
				"points_credited": true,
				"graded_at":       grade.GradedAt,
				"override_by":     grade.ActorID,
				"override_at":     grade.GradedAt,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return gorm.ErrInvalidTransaction
		}

		outcome.Credited = true
		outcome.Delta = delta

		if delta != 0 {
			if err := tx.Model(&models.User{}).
				Where("id = ?", submission.UserID).
				Update("points", gorm.Expr("points + ?", delta)).Error; err != nil {
				return err
			}
		}

		if err := recomputeRanks(tx); err != nil {
			return err
		}

		return r.loadOutcome(tx, submissionID, &outcome)
	})
	if err != nil {
		return CreditOutcome{}, err
	}

	return outcome, nil
}

func (r *ledgerRepository) loadOutcome(tx *gorm.DB, submissionID string, outcome *CreditOutcome) error {
	var submission models.ChallengeSubmission
	if err := tx.Preload("User").Preload("Challenge").Preload("Notebook").
		Where("id = ?", submissionID).
		First(&submission).Error; err != nil {
		return err
	}

	outcome.Submission = submission
	outcome.UserPoints = submission.User.Points

	return nil
}

// recomputeRanks assigns a dense rank 1..N over all users ordered by points
// descending, within the transaction that changed the totals. Ordering among
// equal point totals is deliberately left unspecified; ties share a rank.
func recomputeRanks(tx *gorm.DB) error {
	var users []models.User
	if err := tx.Model(&models.User{}).
		Select("id", "points", "rank").
		Order("points DESC").
		Find(&users).Error; err != nil {
		return err
	}

	rank := 0
	lastPoints := 0
	for i, user := range users {
		if i == 0 || user.Points != lastPoints {
			rank++
			lastPoints = user.Points
		}

		if user.Rank == rank {
			continue
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("rank", rank).Error; err != nil {
			return err
		}
	}

	return nil
}
