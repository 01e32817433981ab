package dto

// StartChallengeResponse is returned when a learner opens (or resumes) an attempt.
type StartChallengeResponse struct {
	SubmissionID      string `json:"submission_id"`
	AttemptNumber     int    `json:"attempt_number"`
	AttemptsUsed      int    `json:"attempts_used"`
	AttemptsRemaining int    `json:"attempts_remaining"`
	WorkspaceURL      string `json:"workspace_url"`
	WorkspaceToken    string `json:"workspace_token"`
}

// SubmitChallengeResponse reports the submit transition result.
type SubmitChallengeResponse struct {
	Status            string `json:"status"`
	AttemptNumber     int    `json:"attempt_number"`
	AttemptsUsed      int    `json:"attempts_used"`
	AttemptsRemaining int    `json:"attempts_remaining"`
	Message           string `json:"message"`
}
