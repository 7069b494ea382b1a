package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flexible-healthcare/training-service/internal/events"
	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

type achievementService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewAchievementService(repo repositories.Repository, logger *slog.Logger) AchievementService {
	return &achievementService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *achievementService) List(ctx context.Context, userID string) ([]*models.AchievementView, error) {
	all, err := s.repo.Achievement().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}

	earned, err := s.earnedAt(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.AchievementView, 0, len(all))
	for _, achievement := range all {
		view := &models.AchievementView{Achievement: achievement}
		if at, ok := earned[achievement.ID]; ok {
			view.Earned = true
			view.EarnedAt = &at
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *achievementService) earnedAt(ctx context.Context, userID string) (map[string]time.Time, error) {
	rows, err := s.repo.Achievement().ListEarned(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned achievements: %w", err)
	}
	earned := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		earned[row.AchievementID] = row.EarnedAt
	}
	return earned, nil
}

// Evaluate checks every unearned achievement against the user's totals
func (s *achievementService) Evaluate(ctx context.Context, userID string) ([]*models.Achievement, error) {
	all, err := s.repo.Achievement().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	earned, err := s.earnedAt(ctx, userID)
	if err != nil {
		return nil, err
	}

	m := &achievementMetrics{repo: s.repo, userID: userID, byCategory: make(map[string]*repositories.CompletionTotals)}

	var granted []*models.Achievement
	for _, achievement := range all {
		if _, ok := earned[achievement.ID]; ok {
			continue
		}

		met, err := m.meets(ctx, achievement)
		if err != nil {
			return nil, err
		}
		if !met {
			continue
		}

		inserted, err := s.repo.Achievement().Grant(ctx, nil, &models.UserAchievement{
			UserID:        userID,
			AchievementID: achievement.ID,
			EarnedAt:      s.now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to grant achievement: %w", err)
		}
		if !inserted {
			continue
		}

		granted = append(granted, achievement)
		s.notifyUnlocked(ctx, userID, achievement)
	}

	if len(granted) > 0 {
		s.logger.Info("Achievements granted", "user_id", userID, "count", len(granted))
	}
	return granted, nil
}

func (s *achievementService) notifyUnlocked(ctx context.Context, userID string, achievement *models.Achievement) {
	link := "/achievements"
	err := s.repo.Notification().Create(ctx, nil, &models.Notification{
		UserID:  userID,
		Title:   "Achievement Unlocked",
		Message: fmt.Sprintf("You earned %q", achievement.Name),
		Type:    models.NotificationSuccess,
		Link:    &link,
	})
	if err != nil {
		s.logger.Warn("Failed to notify achievement", "user_id", userID, "achievement_id", achievement.ID, "error", err)
	}
}

// HandleModuleCompleted re-evaluates achievements for the user who completed a module
func (s *achievementService) HandleModuleCompleted(ctx context.Context, event *events.Event) error {
	var data events.ModuleCompletedData
	if err := event.Decode(&data); err != nil {
		return err
	}
	if data.UserID == "" {
		s.logger.Warn("Ignoring module completion without user", "event_id", event.ID)
		return nil
	}

	_, err := s.Evaluate(ctx, data.UserID)
	return err
}

// achievementMetrics loads each total at most once per evaluation
type achievementMetrics struct {
	repo   repositories.Repository
	userID string

	overall      *repositories.CompletionTotals
	byCategory   map[string]*repositories.CompletionTotals
	certificates *int64
}

func (m *achievementMetrics) meets(ctx context.Context, achievement *models.Achievement) (bool, error) {
	target := int64(achievement.RequirementValue)

	switch achievement.RequirementType {
	case models.RequirementModulesCompleted:
		totals, err := m.totals(ctx, achievement.RequirementCategory)
		if err != nil {
			return false, err
		}
		return totals.Modules >= target, nil

	case models.RequirementMinutesTrained:
		totals, err := m.totals(ctx, achievement.RequirementCategory)
		if err != nil {
			return false, err
		}
		return totals.Minutes >= target, nil

	case models.RequirementCertificatesEarned:
		if m.certificates == nil {
			count, err := m.repo.Compliance().CountValid(ctx, nil, m.userID)
			if err != nil {
				return false, fmt.Errorf("failed to count certificates: %w", err)
			}
			m.certificates = &count
		}
		return *m.certificates >= target, nil
	}

	return false, nil
}

func (m *achievementMetrics) totals(ctx context.Context, category *string) (*repositories.CompletionTotals, error) {
	if category == nil || *category == "" {
		if m.overall == nil {
			totals, err := m.repo.Progress().CompletionTotals(ctx, nil, m.userID, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to load completion totals: %w", err)
			}
			m.overall = totals
		}
		return m.overall, nil
	}

	if totals, ok := m.byCategory[*category]; ok {
		return totals, nil
	}
	totals, err := m.repo.Progress().CompletionTotals(ctx, nil, m.userID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to load completion totals: %w", err)
	}
	m.byCategory[*category] = totals
	return totals, nil
}
