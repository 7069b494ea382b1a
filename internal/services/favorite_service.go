package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

type favoriteService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewFavoriteService(repo repositories.Repository, logger *slog.Logger) FavoriteService {
	return &favoriteService{repo: repo, logger: logger}
}

func (s *favoriteService) List(ctx context.Context, userID string) ([]*models.UserFavorite, error) {
	favorites, err := s.repo.Favorite().List(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

func (s *favoriteService) Add(ctx context.Context, userID, moduleID string) error {
	if _, err := s.repo.TrainingModule().GetByID(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to get training module: %w", err)
	}

	if err := s.repo.Favorite().Add(ctx, nil, &models.UserFavorite{UserID: userID, ModuleID: moduleID}); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	s.logger.Info("Favorite added", "user_id", userID, "module_id", moduleID)
	return nil
}

func (s *favoriteService) Remove(ctx context.Context, userID, moduleID string) error {
	if err := s.repo.Favorite().Remove(ctx, nil, userID, moduleID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	s.logger.Info("Favorite removed", "user_id", userID, "module_id", moduleID)
	return nil
}
