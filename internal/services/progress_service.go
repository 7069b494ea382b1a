package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flexible-healthcare/training-service/internal/cache"
	"github.com/flexible-healthcare/training-service/internal/events"
	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
	"github.com/flexible-healthcare/training-service/internal/validator"
)

type progressService struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	logger       *slog.Logger
	validator    *validator.Validator
	publisher    events.EventPublisher

	// certificateValidity of zero issues certificates that never expire
	certificateValidity time.Duration
	now                 func() time.Time
}

func NewProgressService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, certificateValidity time.Duration) ProgressService {
	return &progressService{
		repo:                repo,
		cacheManager:        cacheManager,
		logger:              logger,
		validator:           validator,
		publisher:           publisher,
		certificateValidity: certificateValidity,
		now:                 time.Now,
	}
}

// ===== CORE PROGRESS OPERATIONS =====

func (s *progressService) Start(ctx context.Context, userID, moduleID string, req *models.StartModuleRequest) (*models.UserProgress, error) {
	s.logger.Info("Starting training module", "user_id", userID, "module_id", moduleID)

	if req == nil {
		req = &models.StartModuleRequest{}
	}

	if _, err := s.repo.TrainingModule().GetByID(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get training module: %w", err)
	}

	var progress *models.UserProgress
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		active, err := txRepo.Progress().GetActive(ctx, nil, userID, moduleID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to check active progress: %w", err)
		}
		if active != nil {
			return ErrAlreadyStarted
		}

		startedAt := s.now().UTC()
		progress = &models.UserProgress{
			UserID:             userID,
			ModuleID:           moduleID,
			Status:             models.ProgressInProgress,
			ProgressPercentage: 0,
			StartedAt:          &startedAt,
			DueDate:            req.DueDate,
		}
		if err := txRepo.Progress().Create(ctx, nil, progress); err != nil {
			// Lost a race with a concurrent start
			if repositories.IsDuplicateKeyError(err) {
				return ErrAlreadyStarted
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyStarted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to start module: %w", err)
	}

	cache.InvalidateUserStats(ctx, s.cacheManager, userID)
	s.logger.Info("Training module started", "user_id", userID, "module_id", moduleID, "progress_id", progress.ID)
	return progress, nil
}

// Advance locks the row, applies the increment and, on completion, refreshes
// the compliance record in the same transaction.
func (s *progressService) Advance(ctx context.Context, userID, progressID string, req *models.AdvanceProgressRequest) (*models.UserProgress, error) {
	if req == nil {
		req = &models.AdvanceProgressRequest{}
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.logger.Info("Advancing progress", "user_id", userID, "progress_id", progressID, "increment", req.Increment)

	var (
		progress  *models.UserProgress
		completed bool
	)
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		progress, err = txRepo.Progress().GetByIDForUpdate(ctx, nil, userID, progressID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrProgressNotFound
			}
			return fmt.Errorf("failed to get progress: %w", err)
		}

		// Completed rows stay at 100 until a new start
		if progress.IsCompleted() {
			return nil
		}

		now := s.now().UTC()
		ApplyAdvance(progress, req.Increment, now)
		if err := txRepo.Progress().Update(ctx, nil, progress); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}

		if !progress.IsCompleted() {
			return nil
		}
		completed = true

		record := &models.ComplianceRecord{
			UserID:   userID,
			ModuleID: progress.ModuleID,
			IsValid:  true,
		}
		if s.certificateValidity > 0 {
			expiry := now.Add(s.certificateValidity)
			record.ExpiryDate = &expiry
		}
		if err := txRepo.Compliance().Upsert(ctx, nil, record); err != nil {
			return fmt.Errorf("failed to record compliance: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProgressNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to advance progress: %w", err)
	}

	cache.InvalidateUserStats(ctx, s.cacheManager, userID)

	if completed {
		s.logger.Info("Training module completed", "user_id", userID, "module_id", progress.ModuleID)
		s.publishCompleted(ctx, progress)
	}

	return progress, nil
}

// publishCompleted runs after commit; a failed publish does not undo the completion
func (s *progressService) publishCompleted(ctx context.Context, progress *models.UserProgress) {
	if s.publisher == nil {
		return
	}

	event, err := events.NewEvent(events.TypeModuleCompleted, events.ModuleCompletedData{
		UserID:      progress.UserID,
		ModuleID:    progress.ModuleID,
		ProgressID:  progress.ID,
		CompletedAt: *progress.CompletedAt,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Error("Failed to publish module completion", "progress_id", progress.ID, "error", err)
	}
}

func (s *progressService) List(ctx context.Context, userID string, params *ListProgressParams) (*models.PaginatedResponse, error) {
	if params == nil {
		params = &ListProgressParams{}
	}
	if err := s.validator.Validate(params); err != nil {
		return nil, err
	}

	page, size, offset := normalizePage(params.Page, params.Size, 20)
	rows, total, err := s.repo.Progress().List(ctx, nil, userID, repositories.ProgressFilters{
		Status:   params.Status,
		ModuleID: params.ModuleID,
		Limit:    size,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	return models.NewPaginatedResponse(rows, len(rows), total, page, size), nil
}
