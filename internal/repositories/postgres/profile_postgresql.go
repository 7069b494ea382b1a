package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flexible-healthcare/training-service/internal/cache"
	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

// ===== PROFILE =====

type ProfilePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProfilePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ProfileRepository {
	return &ProfilePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *ProfilePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ProfilePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, userID string) (*models.Profile, error) {
	var profile models.Profile

	err := r.cacheManager.Profile.CacheOrExecute(ctx, userID, &profile, cache.ProfileCacheConfig.TTL, func() (interface{}, error) {
		var dbProfile models.Profile
		if err := r.getDB(tx).WithContext(ctx).Where("id = ?", userID).First(&dbProfile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		return &dbProfile, nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfilePostgreSQL) Create(ctx context.Context, tx *gorm.DB, profile *models.Profile) error {
	err := r.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Update saves every column, so cleared optional fields are written as NULL
func (r *ProfilePostgreSQL) Update(ctx context.Context, tx *gorm.DB, profile *models.Profile) error {
	result := r.getDB(tx).WithContext(ctx).
		Model(profile).
		Select("*").
		Omit("id", "email", "created_at").
		Updates(profile)
	if result.Error != nil {
		return fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.SafeDelete(ctx, r.cacheManager.Profile, profile.ID)
	return nil
}

// ===== WEEKLY GOALS =====

type WeeklyGoalPostgreSQL struct {
	db *gorm.DB
}

func NewWeeklyGoalPostgreSQL(db *gorm.DB) repositories.WeeklyGoalRepository {
	return &WeeklyGoalPostgreSQL{db: db}
}

func (r *WeeklyGoalPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *WeeklyGoalPostgreSQL) GetByWeek(ctx context.Context, tx *gorm.DB, userID string, weekStart time.Time) (*models.WeeklyGoal, error) {
	var goal models.WeeklyGoal
	err := r.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, datatypes.Date(weekStart)).
		First(&goal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get weekly goal: %w", err)
	}
	return &goal, nil
}

func (r *WeeklyGoalPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, goal *models.WeeklyGoal) error {
	err := r.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_start"}},
			DoUpdates: clause.AssignmentColumns([]string{"target_modules", "target_minutes", "updated_at"}),
		}).
		Create(goal).Error
	if err != nil {
		return fmt.Errorf("failed to upsert weekly goal: %w", err)
	}
	return nil
}

// ===== ACHIEVEMENTS =====

type AchievementPostgreSQL struct {
	db *gorm.DB
}

func NewAchievementPostgreSQL(db *gorm.DB) repositories.AchievementRepository {
	return &AchievementPostgreSQL{db: db}
}

func (r *AchievementPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *AchievementPostgreSQL) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Achievement, error) {
	var achievements []*models.Achievement
	err := r.getDB(tx).WithContext(ctx).
		Order("requirement_type ASC").
		Order("requirement_value ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return achievements, nil
}

func (r *AchievementPostgreSQL) ListEarned(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserAchievement, error) {
	var earned []*models.UserAchievement
	err := r.getDB(tx).WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&earned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list earned achievements: %w", err)
	}
	return earned, nil
}

func (r *AchievementPostgreSQL) Grant(ctx context.Context, tx *gorm.DB, earned *models.UserAchievement) (bool, error) {
	result := r.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(earned)
	if result.Error != nil {
		return false, fmt.Errorf("failed to grant achievement: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ===== FAVORITES =====

type FavoritePostgreSQL struct {
	db *gorm.DB
}

func NewFavoritePostgreSQL(db *gorm.DB) repositories.FavoriteRepository {
	return &FavoritePostgreSQL{db: db}
}

func (r *FavoritePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *FavoritePostgreSQL) List(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserFavorite, error) {
	var favorites []*models.UserFavorite
	err := r.getDB(tx).WithContext(ctx).
		Preload("Module").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

func (r *FavoritePostgreSQL) Add(ctx context.Context, tx *gorm.DB, favorite *models.UserFavorite) error {
	err := r.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
			DoNothing: true,
		}).
		Create(favorite).Error
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (r *FavoritePostgreSQL) Remove(ctx context.Context, tx *gorm.DB, userID, moduleID string) error {
	err := r.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Delete(&models.UserFavorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (r *FavoritePostgreSQL) Exists(ctx context.Context, tx *gorm.DB, userID, moduleID string) (bool, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.UserFavorite{}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}
