package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/flexible-healthcare/training-service/internal/cache"
	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

type TrainingModulePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewTrainingModulePostgreSQL(db *gorm.DB, helpers *SharedHelpers, cacheManager *cache.CacheManager) repositories.TrainingModuleRepository {
	return &TrainingModulePostgreSQL{
		db:           db,
		helpers:      helpers,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *TrainingModulePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *TrainingModulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error {
	if err := r.getDB(tx).WithContext(ctx).Create(module).Error; err != nil {
		return fmt.Errorf("failed to create training module: %w", err)
	}
	cache.InvalidateModuleCache(ctx, r.cacheManager, module.ID)
	return nil
}

func (r *TrainingModulePostgreSQL) Update(ctx context.Context, tx *gorm.DB, module *models.TrainingModule) error {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.TrainingModule{}).
		Where("id = ?", module.ID).
		Select("title", "category", "description", "duration_minutes", "is_mandatory", "priority", "updated_at").
		Updates(module)
	if result.Error != nil {
		return fmt.Errorf("failed to update training module: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.InvalidateModuleCache(ctx, r.cacheManager, module.ID)
	return nil
}

// GetByID retrieves a module by ID with caching
func (r *TrainingModulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TrainingModule, error) {
	var module models.TrainingModule

	err := r.cacheManager.Module.CacheOrExecute(ctx, "id:"+id, &module, cache.ModuleCacheConfig.TTL, func() (interface{}, error) {
		var dbModule models.TrainingModule
		err := r.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&dbModule).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get training module: %w", err)
		}
		return &dbModule, nil
	})
	if err != nil {
		return nil, err
	}

	return &module, nil
}

func (r *TrainingModulePostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.TrainingModule, error) {
	if len(ids) == 0 {
		return []*models.TrainingModule{}, nil
	}

	var modules []*models.TrainingModule
	err := r.getDB(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Order(priorityOrder).
		Order("title ASC").
		Find(&modules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get training modules: %w", err)
	}
	return modules, nil
}

type moduleListPage struct {
	Modules []*models.TrainingModule `json:"modules"`
	Total   int64                    `json:"total"`
}

// List retrieves a filtered page of the catalog with caching
func (r *TrainingModulePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ModuleFilters) ([]*models.TrainingModule, int64, error) {
	cacheKey := fmt.Sprintf("list:%s:%s:%s:%s:%d:%d",
		filters.Search, filters.Category, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var page moduleListPage
	err := r.cacheManager.Module.CacheOrExecute(ctx, cacheKey, &page, cache.ModuleCacheConfig.TTL, func() (interface{}, error) {
		query := r.helpers.ApplyModuleFilters(r.getDB(tx).WithContext(ctx).Model(&models.TrainingModule{}), filters)

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return nil, fmt.Errorf("failed to count training modules: %w", err)
		}

		var modules []*models.TrainingModule
		sortBy := filters.SortBy
		if sortBy == "" {
			sortBy, filters.SortOrder = "priority", "asc"
		}
		query = r.helpers.ApplyPaginationAndSort(query, sortBy, filters.SortOrder, filters.Limit, filters.Offset)
		if err := query.Order("title ASC").Find(&modules).Error; err != nil {
			return nil, fmt.Errorf("failed to list training modules: %w", err)
		}

		return &moduleListPage{Modules: modules, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return page.Modules, page.Total, nil
}

// ListAll returns the catalog ordered high priority first, then by title
func (r *TrainingModulePostgreSQL) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.TrainingModule, error) {
	var modules []*models.TrainingModule

	err := r.cacheManager.Module.CacheOrExecute(ctx, "all", &modules, cache.ModuleCacheConfig.TTL, func() (interface{}, error) {
		var dbModules []*models.TrainingModule
		err := r.getDB(tx).WithContext(ctx).
			Order(priorityOrder).
			Order("title ASC").
			Find(&dbModules).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list training modules: %w", err)
		}
		return dbModules, nil
	})
	if err != nil {
		return nil, err
	}

	return modules, nil
}

func (r *TrainingModulePostgreSQL) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).Model(&models.TrainingModule{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count training modules: %w", err)
	}
	return count, nil
}
