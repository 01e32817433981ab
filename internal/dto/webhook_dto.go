package dto

// GradingWebhookRequest is the callback payload posted by the external
// grading pipeline. Field names mirror that pipeline's JSON contract.
type GradingWebhookRequest struct {
	AssignmentName string  `json:"assignmentName" validate:"required"`
	StudentID      string  `json:"studentId" validate:"required"`
	SubmissionID   *string `json:"submissionId"`
	Score          float64 `json:"score" validate:"gte=0"`
	MaxScore       float64 `json:"maxScore" validate:"gte=0"`
	Timestamp      *string `json:"timestamp"`
	WebhookSecret  string  `json:"webhookSecret"`
}

// GradingWebhookResponse acknowledges a processed callback.
type GradingWebhookResponse struct {
	Success       bool   `json:"success"`
	PointsAwarded int    `json:"pointsAwarded"`
	Message       string `json:"message"`
}
