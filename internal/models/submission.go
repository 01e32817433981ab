package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChallengeSubmission is one numbered attempt by a user at a challenge.
// Rows are never deleted; the attempt sequence is the audit trail.
type ChallengeSubmission struct {
	ID             string            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uint              `gorm:"not null;uniqueIndex:idx_user_challenge_attempt,priority:1" json:"user_id"`
	ChallengeID    uint              `gorm:"not null;uniqueIndex:idx_user_challenge_attempt,priority:2" json:"challenge_id"`
	NotebookID     uint              `gorm:"not null" json:"notebook_id"`
	AttemptNumber  int               `gorm:"not null;uniqueIndex:idx_user_challenge_attempt,priority:3" json:"attempt_number"`
	Status         string            `gorm:"size:32;not null" json:"status"`
	Score          *float64          `json:"score"`
	MaxScore       *float64          `json:"max_score"`
	PointsAwarded  int               `gorm:"not null;default:0" json:"points_awarded"`
	PointsCredited bool              `gorm:"not null;default:false" json:"points_credited"`
	GradingRunID   *string           `gorm:"size:255" json:"grading_run_id"`
	StartedAt      *time.Time        `json:"started_at"`
	SubmittedAt    *time.Time        `json:"submitted_at"`
	GradedAt       *time.Time        `json:"graded_at"`
	OverrideBy     *uint             `json:"override_by"`
	OverrideAt     *time.Time        `json:"override_at"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	User           User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	Challenge      Challenge         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"challenge"`
	Notebook       ChallengeNotebook `gorm:"foreignKey:NotebookID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"notebook"`
}

const (
	// SubmissionStatusInProgress marks an attempt whose workspace is open.
	SubmissionStatusInProgress = "in_progress"
	// SubmissionStatusGradingPending marks an attempt handed to the grading pipeline.
	SubmissionStatusGradingPending = "grading_pending"
	// SubmissionStatusGraded is terminal, though re-grading mutates it in place.
	SubmissionStatusGraded = "graded"
)

// BeforeCreate assigns the opaque submission identifier.
func (s *ChallengeSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsTerminal reports whether the attempt has reached a graded state.
func (s ChallengeSubmission) IsTerminal() bool {
	return s.Status == SubmissionStatusGraded
}
