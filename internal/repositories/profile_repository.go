package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/flexible-healthcare/training-service/internal/models"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, userID string) (*models.Profile, error)
	// Create ignores an existing row for the same id
	Create(ctx context.Context, tx *gorm.DB, profile *models.Profile) error
	Update(ctx context.Context, tx *gorm.DB, profile *models.Profile) error
}

type WeeklyGoalRepository interface {
	GetByWeek(ctx context.Context, tx *gorm.DB, userID string, weekStart time.Time) (*models.WeeklyGoal, error)
	// Upsert writes targets for (user, week_start)
	Upsert(ctx context.Context, tx *gorm.DB, goal *models.WeeklyGoal) error
}

type AchievementRepository interface {
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Achievement, error)
	ListEarned(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserAchievement, error)
	// Grant records an earned achievement once; false if it was already earned
	Grant(ctx context.Context, tx *gorm.DB, earned *models.UserAchievement) (bool, error)
}

type FavoriteRepository interface {
	List(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserFavorite, error)
	// Add is idempotent per (user, module)
	Add(ctx context.Context, tx *gorm.DB, favorite *models.UserFavorite) error
	Remove(ctx context.Context, tx *gorm.DB, userID, moduleID string) error
	Exists(ctx context.Context, tx *gorm.DB, userID, moduleID string) (bool, error)
}
