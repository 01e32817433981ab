package dto

import (
	"time"

	"github.com/aiclub-uj/challenge-api/internal/models"
)

// AdminGradeRequest carries a manual grade as a percentage of the notebook's
// point ceiling. This differs from the webhook path, whose score and maxScore
// are raw grading-pipeline units.
type AdminGradeRequest struct {
	Score float64 `json:"score" validate:"gte=0,lte=100"`
}

// AdminSubmissionResponse is the administrator's view of one attempt.
type AdminSubmissionResponse struct {
	ID             string     `json:"id"`
	UserID         uint       `json:"user_id"`
	UserName       string     `json:"user_name"`
	UserEmail      string     `json:"user_email"`
	UserPoints     int        `json:"user_points"`
	ChallengeID    uint       `json:"challenge_id"`
	ChallengeTitle string     `json:"challenge_title"`
	AttemptNumber  int        `json:"attempt_number"`
	Status         string     `json:"status"`
	Score          *float64   `json:"score"`
	MaxScore       *float64   `json:"max_score"`
	PointsAwarded  int        `json:"points_awarded"`
	PointsCredited bool       `json:"points_credited"`
	StartedAt      *time.Time `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	GradedAt       *time.Time `json:"graded_at"`
	OverrideBy     *uint      `json:"override_by"`
	OverrideAt     *time.Time `json:"override_at"`
}

// NewAdminSubmissionResponse converts an attempt model into the admin DTO.
func NewAdminSubmissionResponse(model models.ChallengeSubmission) AdminSubmissionResponse {
	response := AdminSubmissionResponse{
		ID:             model.ID,
		UserID:         model.UserID,
		ChallengeID:    model.ChallengeID,
		AttemptNumber:  model.AttemptNumber,
		Status:         model.Status,
		Score:          model.Score,
		MaxScore:       model.MaxScore,
		PointsAwarded:  model.PointsAwarded,
		PointsCredited: model.PointsCredited,
		StartedAt:      model.StartedAt,
		SubmittedAt:    model.SubmittedAt,
		GradedAt:       model.GradedAt,
		OverrideBy:     model.OverrideBy,
		OverrideAt:     model.OverrideAt,
	}

	if model.User.ID != 0 {
		response.UserName = model.User.Name
		response.UserEmail = model.User.Email
		response.UserPoints = model.User.Points
	}

	if model.Challenge.ID != 0 {
		response.ChallengeTitle = model.Challenge.Title
	}

	return response
}

// NewAdminSubmissionResponseSlice converts attempt models into admin DTOs.
func NewAdminSubmissionResponseSlice(submissions []models.ChallengeSubmission) []AdminSubmissionResponse {
	responses := make([]AdminSubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewAdminSubmissionResponse(submission))
	}

	return responses
}
