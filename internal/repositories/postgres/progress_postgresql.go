package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

type ProgressPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewProgressPostgreSQL(db *gorm.DB, helpers *SharedHelpers) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:      db,
		helpers: helpers,
	}
}

func (r *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ProgressPostgreSQL) Create(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	if err := r.getDB(tx).WithContext(ctx).Create(progress).Error; err != nil {
		return fmt.Errorf("failed to create progress: %w", err)
	}
	return nil
}

// Update writes the mutable progress columns, always scoped by owner
func (r *ProgressPostgreSQL) Update(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.UserProgress{}).
		Where("id = ? AND user_id = ?", progress.ID, progress.UserID).
		Updates(map[string]interface{}{
			"status":              progress.Status,
			"progress_percentage": progress.ProgressPercentage,
			"completed_at":        progress.CompletedAt,
			"due_date":            progress.DueDate,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *ProgressPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, userID, id string) (*models.UserProgress, error) {
	return r.first(r.getDB(tx).WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

// GetByIDForUpdate takes a row lock; only meaningful inside a transaction
func (r *ProgressPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, userID, id string) (*models.UserProgress, error) {
	return r.first(r.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID))
}

func (r *ProgressPostgreSQL) GetActive(ctx context.Context, tx *gorm.DB, userID, moduleID string) (*models.UserProgress, error) {
	return r.first(r.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND module_id = ? AND status <> ?", userID, moduleID, models.ProgressCompleted).
		Order("started_at DESC"))
}

func (r *ProgressPostgreSQL) GetLatest(ctx context.Context, tx *gorm.DB, userID, moduleID string) (*models.UserProgress, error) {
	return r.first(r.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("started_at DESC NULLS LAST").
		Order("created_at DESC"))
}

func (r *ProgressPostgreSQL) first(query *gorm.DB) (*models.UserProgress, error) {
	var progress models.UserProgress
	if err := query.First(&progress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &progress, nil
}

// ListLatestByUser picks one row per module with DISTINCT ON
func (r *ProgressPostgreSQL) ListLatestByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserProgress, error) {
	var rows []*models.UserProgress
	err := r.getDB(tx).WithContext(ctx).
		Select("DISTINCT ON (module_id) *").
		Where("user_id = ?", userID).
		Order("module_id").
		Order("started_at DESC NULLS LAST").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list latest progress: %w", err)
	}
	return rows, nil
}

func (r *ProgressPostgreSQL) List(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ProgressFilters) ([]*models.UserProgress, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.UserProgress{}).Where("user_id = ?", userID)
	query = r.helpers.ApplyProgressFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count progress: %w", err)
	}

	var rows []*models.UserProgress
	query = r.helpers.ApplyPaginationAndSort(query, "started_at", "desc", filters.Limit, filters.Offset)
	if err := query.Preload("Module").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list progress: %w", err)
	}
	return rows, total, nil
}

func (r *ProgressPostgreSQL) ListDueBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.UserProgress, error) {
	var rows []*models.UserProgress
	err := r.getDB(tx).WithContext(ctx).
		Preload("Module").
		Where("user_id = ? AND status = ?", userID, models.ProgressInProgress).
		Where("due_date >= ? AND due_date <= ?", from, to).
		Order("due_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due progress: %w", err)
	}
	return rows, nil
}

func (r *ProgressPostgreSQL) ListCompletedBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.UserProgress, error) {
	var rows []*models.UserProgress
	err := r.getDB(tx).WithContext(ctx).
		Preload("Module").
		Where("user_id = ? AND status = ?", userID, models.ProgressCompleted).
		Where("completed_at >= ? AND completed_at < ?", from, to).
		Order("completed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed progress: %w", err)
	}
	return rows, nil
}

// CompletionTotals counts each completed module once, with its duration or the default
func (r *ProgressPostgreSQL) CompletionTotals(ctx context.Context, tx *gorm.DB, userID string, category *string) (*repositories.CompletionTotals, error) {
	completed := r.getDB(tx).
		Model(&models.UserProgress{}).
		Distinct("module_id").
		Where("user_id = ? AND status = ?", userID, models.ProgressCompleted)

	query := r.getDB(tx).WithContext(ctx).
		Table("(?) AS done", completed).
		Joins("JOIN training_modules m ON m.id = done.module_id").
		Select("COUNT(*) AS modules, COALESCE(SUM(COALESCE(NULLIF(m.duration_minutes, 0), ?)), 0) AS minutes",
			models.DefaultModuleDuration)
	if category != nil {
		query = query.Where("m.category = ?", *category)
	}

	var totals repositories.CompletionTotals
	if err := query.Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to compute completion totals: %w", err)
	}
	return &totals, nil
}
