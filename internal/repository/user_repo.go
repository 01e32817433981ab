package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aiclub-uj/challenge-api/internal/models"
)

// UserRepository defines data operations for learner accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByWorkspaceUsername(ctx context.Context, username string) (models.User, error)
	EnsureWorkspaceUsername(ctx context.Context, userID uint, username string) error
	ListTopByPoints(ctx context.Context, limit int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByWorkspaceUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("workspace_username = ?", username).
		First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

// EnsureWorkspaceUsername persists the deterministically generated workspace
// identity, but never overwrites one that is already set.
func (r *userRepository) EnsureWorkspaceUsername(ctx context.Context, userID uint, username string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND workspace_username IS NULL", userID).
		Update("workspace_username", username).Error
}

func (r *userRepository) ListTopByPoints(ctx context.Context, limit int) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Order("points DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}
