package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aiclub-uj/challenge-api/internal/models"
)

// ChallengeRepository exposes the read-only challenge registry. Challenge and
// notebook rows are owned by the content management system, never by this
// service.
type ChallengeRepository interface {
	GetVisibleByID(ctx context.Context, id uint) (models.Challenge, error)
	GetNotebookByChallenge(ctx context.Context, challengeID uint) (models.ChallengeNotebook, error)
	GetNotebookByAssignment(ctx context.Context, assignmentName string) (models.ChallengeNotebook, error)
}

type challengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository instantiates the repository.
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) GetVisibleByID(ctx context.Context, id uint) (models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.WithContext(ctx).
		Where("visible = ?", true).
		First(&challenge, id).Error; err != nil {
		return models.Challenge{}, err
	}

	return challenge, nil
}

func (r *challengeRepository) GetNotebookByChallenge(ctx context.Context, challengeID uint) (models.ChallengeNotebook, error) {
	var notebook models.ChallengeNotebook
	if err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		First(&notebook).Error; err != nil {
		return models.ChallengeNotebook{}, err
	}

	return notebook, nil
}

func (r *challengeRepository) GetNotebookByAssignment(ctx context.Context, assignmentName string) (models.ChallengeNotebook, error) {
	var notebook models.ChallengeNotebook
	if err := r.db.WithContext(ctx).
		Where("assignment_name = ?", assignmentName).
		First(&notebook).Error; err != nil {
		return models.ChallengeNotebook{}, err
	}

	return notebook, nil
}
