package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
	"github.com/flexible-healthcare/training-service/internal/validator"
)

type catalogService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewCatalogService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CatalogService {
	return &catalogService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

func (s *catalogService) ListModules(ctx context.Context, params *models.ListModulesParams) (*models.PaginatedResponse, error) {
	if params == nil {
		params = &models.ListModulesParams{}
	}
	page, size, offset := normalizePage(params.Page, params.Size, 20)
	params.Page, params.Size = page, size
	if err := s.validator.Validate(params); err != nil {
		return nil, err
	}

	modules, total, err := s.repo.TrainingModule().List(ctx, nil, repositories.ModuleFilters{
		Search:    params.Search,
		Category:  params.Category,
		SortBy:    params.SortBy,
		SortOrder: params.SortDir,
		Limit:     size,
		Offset:    offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list training modules: %w", err)
	}

	return models.NewPaginatedResponse(modules, len(modules), total, page, size), nil
}

func (s *catalogService) GetModuleDetail(ctx context.Context, userID, moduleID string) (*models.ModuleDetail, error) {
	module, err := s.repo.TrainingModule().GetByID(ctx, nil, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get training module: %w", err)
	}

	progress, err := s.repo.Progress().GetLatest(ctx, nil, userID, moduleID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	detail := &models.ModuleDetail{FeedItem: *NewFeedItem(module, progress)}

	record, err := s.repo.Compliance().GetByModule(ctx, nil, userID, moduleID)
	switch {
	case err == nil:
		status := record.Status(s.now())
		detail.Compliance = record
		detail.ComplianceStatus = &status
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to get compliance record: %w", err)
	}

	detail.IsFavorite, err = s.repo.Favorite().Exists(ctx, nil, userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check favorite: %w", err)
	}

	return detail, nil
}

// Feed pairs every module with the user's latest progress and ranks them.
// A positive limit keeps only the top entries; PendingCount always covers the whole catalog.
func (s *catalogService) Feed(ctx context.Context, userID string, limit int) (*models.FeedResponse, error) {
	modules, err := s.repo.TrainingModule().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list training modules: %w", err)
	}

	rows, err := s.repo.Progress().ListLatestByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	latest := make(map[string]*models.UserProgress, len(rows))
	for _, row := range rows {
		latest[row.ModuleID] = row
	}

	items := make([]*models.FeedItem, 0, len(modules))
	pending := 0
	for _, module := range modules {
		progress := latest[module.ID]
		if !progress.IsCompleted() {
			pending++
		}
		items = append(items, NewFeedItem(module, progress))
	}

	SortFeedItems(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	return &models.FeedResponse{PendingCount: pending, Items: items}, nil
}

// ===== ADMIN OPERATIONS =====

func (s *catalogService) CreateModule(ctx context.Context, req *models.ModuleUpsertRequest) (*models.TrainingModule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	module := &models.TrainingModule{}
	applyModuleRequest(module, req)
	if err := s.repo.TrainingModule().Create(ctx, nil, module); err != nil {
		return nil, fmt.Errorf("failed to create training module: %w", err)
	}

	s.logger.Info("Training module created", "module_id", module.ID, "title", module.Title)
	return module, nil
}

func (s *catalogService) UpdateModule(ctx context.Context, moduleID string, req *models.ModuleUpsertRequest) (*models.TrainingModule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	module, err := s.repo.TrainingModule().GetByID(ctx, nil, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get training module: %w", err)
	}

	applyModuleRequest(module, req)
	module.UpdatedAt = s.now().UTC()
	if err := s.repo.TrainingModule().Update(ctx, nil, module); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to update training module: %w", err)
	}

	s.logger.Info("Training module updated", "module_id", module.ID)
	return module, nil
}

func applyModuleRequest(module *models.TrainingModule, req *models.ModuleUpsertRequest) {
	module.Title = strings.TrimSpace(req.Title)
	module.Category = strings.TrimSpace(req.Category)
	module.Description = req.Description
	module.DurationMinutes = req.DurationMinutes
	module.IsMandatory = req.IsMandatory
	module.Priority = req.Priority
}
