package models

import "time"

// Challenge is the read-only configuration for one bounded-retry challenge.
// The submission engine never mutates challenges; they are managed elsewhere.
type Challenge struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	AllowedAttempts int        `gorm:"not null;default:3" json:"allowed_attempts"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	Visible         bool       `gorm:"not null;default:true" json:"visible"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Quota returns the attempt quota, defaulting to 3 when unset.
func (c Challenge) Quota() int {
	if c.AllowedAttempts < 1 {
		return 3
	}
	return c.AllowedAttempts
}

// IsActiveAt reports whether the challenge window is open at the given time.
func (c Challenge) IsActiveAt(now time.Time) bool {
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return false
	}
	return true
}

// ChallengeNotebook links a challenge to its externally graded assignment.
// The assignment name is the grading pipeline's globally unique identifier.
// Resource limits are informational only; the workspace host enforces them.
type ChallengeNotebook struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ChallengeID      uint      `gorm:"uniqueIndex;not null" json:"challenge_id"`
	AssignmentName   string    `gorm:"size:255;uniqueIndex;not null" json:"assignment_name"`
	NotebookFilename string    `gorm:"size:255;not null" json:"notebook_filename"`
	NotebookPath     string    `gorm:"size:512" json:"notebook_path"`
	MaxPoints        int       `gorm:"not null;default:100" json:"max_points"`
	CPULimit         float64   `gorm:"default:1" json:"cpu_limit"`
	MemoryLimit      string    `gorm:"size:32" json:"memory_limit"`
	TimeLimitMinutes int       `gorm:"default:60" json:"time_limit_minutes"`
	NetworkDisabled  bool      `gorm:"default:true" json:"network_disabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
