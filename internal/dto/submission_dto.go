package dto

import (
	"time"

	"github.com/aiclub-uj/challenge-api/internal/models"
)

// SubmissionResponse is the learner-facing view of one attempt.
type SubmissionResponse struct {
	ID                string     `json:"id"`
	ChallengeID       uint       `json:"challenge_id"`
	AttemptNumber     int        `json:"attempt_number"`
	AttemptsUsed      int        `json:"attempts_used"`
	AttemptsRemaining int        `json:"attempts_remaining"`
	Status            string     `json:"status"`
	Score             *float64   `json:"score"`
	MaxScore          *float64   `json:"max_score"`
	PointsAwarded     int        `json:"points_awarded"`
	PointsCredited    bool       `json:"points_credited"`
	StartedAt         *time.Time `json:"started_at"`
	SubmittedAt       *time.Time `json:"submitted_at"`
	GradedAt          *time.Time `json:"graded_at"`
	WorkspaceURL      string     `json:"workspace_url,omitempty"`
}

// NewSubmissionResponse converts an attempt model into a DTO.
func NewSubmissionResponse(model models.ChallengeSubmission, attemptsUsed, quota int) SubmissionResponse {
	remaining := quota - attemptsUsed
	if remaining < 0 {
		remaining = 0
	}

	return SubmissionResponse{
		ID:                model.ID,
		ChallengeID:       model.ChallengeID,
		AttemptNumber:     model.AttemptNumber,
		AttemptsUsed:      attemptsUsed,
		AttemptsRemaining: remaining,
		Status:            model.Status,
		Score:             model.Score,
		MaxScore:          model.MaxScore,
		PointsAwarded:     model.PointsAwarded,
		PointsCredited:    model.PointsCredited,
		StartedAt:         model.StartedAt,
		SubmittedAt:       model.SubmittedAt,
		GradedAt:          model.GradedAt,
	}
}
