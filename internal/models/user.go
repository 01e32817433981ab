package models

import "time"

// User represents a learner account holding the point ledger total and rank.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:255;not null" json:"name"`
	Email             string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role              string    `gorm:"size:32;not null;default:student" json:"role"`
	Points            int       `gorm:"not null;default:0" json:"points"`
	Rank              int       `gorm:"not null;default:0" json:"rank"`
	WorkspaceUsername *string   `gorm:"size:128;uniqueIndex" json:"workspace_username"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

const (
	// UserRoleStudent is the default learner role.
	UserRoleStudent = "student"
	// UserRoleAdmin marks accounts that may grade submissions manually.
	UserRoleAdmin = "admin"
)
