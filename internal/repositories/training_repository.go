package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/flexible-healthcare/training-service/internal/models"
)

// TrainingModuleRepository reads the module catalog. Writes are admin only.
type TrainingModuleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error
	Update(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TrainingModule, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.TrainingModule, error)

	// List supports search, category and pagination
	List(ctx context.Context, tx *gorm.DB, filters ModuleFilters) ([]*models.TrainingModule, int64, error)
	// ListAll returns the whole catalog, high priority first
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.TrainingModule, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

// ProgressRepository is always scoped by user id
type ProgressRepository interface {
	Create(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error
	Update(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error
	GetByID(ctx context.Context, tx *gorm.DB, userID, id string) (*models.UserProgress, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, userID, id string) (*models.UserProgress, error)

	// GetActive returns the in-progress row for (user, module)
	GetActive(ctx context.Context, tx *gorm.DB, userID, moduleID string) (*models.UserProgress, error)
	// GetLatest returns the most recently started row for (user, module)
	GetLatest(ctx context.Context, tx *gorm.DB, userID, moduleID string) (*models.UserProgress, error)
	// ListLatestByUser returns one row per module, the most recently started
	ListLatestByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserProgress, error)
	List(ctx context.Context, tx *gorm.DB, userID string, filters ProgressFilters) ([]*models.UserProgress, int64, error)

	// ListDueBetween returns in-progress rows whose due date falls in [from, to], module preloaded
	ListDueBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.UserProgress, error)
	// ListCompletedBetween returns rows completed in [from, to), module preloaded
	ListCompletedBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.UserProgress, error)

	// CompletionTotals counts distinct completed modules and their minutes, optionally in one category
	CompletionTotals(ctx context.Context, tx *gorm.DB, userID string, category *string) (*CompletionTotals, error)
}

// ComplianceRepository holds one record per (user, module)
type ComplianceRepository interface {
	// Upsert inserts or refreshes validity and expiry for (user, module)
	Upsert(ctx context.Context, tx *gorm.DB, record *models.ComplianceRecord) error
	GetByID(ctx context.Context, tx *gorm.DB, userID, id string) (*models.ComplianceRecord, error)
	GetByModule(ctx context.Context, tx *gorm.DB, userID, moduleID string) (*models.ComplianceRecord, error)
	// ListByUser returns records newest first, module preloaded
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.ComplianceRecord, error)
	// ListExpiringBetween returns valid records whose expiry falls in [from, to], module preloaded
	ListExpiringBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.ComplianceRecord, error)
	CountValid(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}
