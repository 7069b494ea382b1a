package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
	"github.com/flexible-healthcare/training-service/internal/validator"
)

type goalService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewGoalService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) GoalService {
	return &goalService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// GetCurrent returns the goal for now's week, or the defaults when none was set
func (s *goalService) GetCurrent(ctx context.Context, userID string, now time.Time) (*models.WeeklyGoalResponse, error) {
	weekStart := models.WeekStartOf(now)

	response := &models.WeeklyGoalResponse{
		WeekStart:     weekStart,
		TargetModules: models.DefaultTargetModules,
		TargetMinutes: models.DefaultTargetMinutes,
		IsDefault:     true,
	}

	goal, err := s.repo.WeeklyGoal().GetByWeek(ctx, nil, userID, weekStart)
	switch {
	case err == nil:
		response.TargetModules = goal.TargetModules
		response.TargetMinutes = goal.TargetMinutes
		response.IsDefault = false
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to get weekly goal: %w", err)
	}

	if err := s.fillWeekProgress(ctx, userID, weekStart, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (s *goalService) SetCurrent(ctx context.Context, userID string, req *models.WeeklyGoalRequest, now time.Time) (*models.WeeklyGoalResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	weekStart := models.WeekStartOf(now)
	goal := &models.WeeklyGoal{
		UserID:        userID,
		WeekStart:     datatypes.Date(weekStart),
		TargetModules: req.TargetModules,
		TargetMinutes: req.TargetMinutes,
	}
	if err := s.repo.WeeklyGoal().Upsert(ctx, nil, goal); err != nil {
		return nil, fmt.Errorf("failed to save weekly goal: %w", err)
	}

	s.logger.Info("Weekly goal set",
		"user_id", userID,
		"week_start", weekStart.Format("2006-01-02"),
		"target_modules", req.TargetModules,
		"target_minutes", req.TargetMinutes)

	response := &models.WeeklyGoalResponse{
		WeekStart:     weekStart,
		TargetModules: req.TargetModules,
		TargetMinutes: req.TargetMinutes,
	}
	if err := s.fillWeekProgress(ctx, userID, weekStart, response); err != nil {
		return nil, err
	}
	return response, nil
}

// fillWeekProgress counts distinct modules completed during the week and their minutes
func (s *goalService) fillWeekProgress(ctx context.Context, userID string, weekStart time.Time, response *models.WeeklyGoalResponse) error {
	rows, err := s.repo.Progress().ListCompletedBetween(ctx, nil, userID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return fmt.Errorf("failed to list completed progress: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if seen[row.ModuleID] {
			continue
		}
		seen[row.ModuleID] = true
		response.CompletedModules++
		if row.Module != nil {
			response.CompletedMinutes += row.Module.Duration()
		} else {
			response.CompletedMinutes += models.DefaultModuleDuration
		}
	}
	return nil
}
