package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/flexible-healthcare/training-service/internal/cache"
	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

type dashboardService struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	logger       *slog.Logger
	now          func() time.Time
}

func NewDashboardService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:         repo,
		cacheManager: cacheManager,
		logger:       logger,
		now:          time.Now,
	}
}

// dashboardAggregates is the cached part of the summary; unread counts change too often to cache
type dashboardAggregates struct {
	TotalModules int64                             `json:"total_modules"`
	Progress     repositories.ProgressStatusCounts `json:"progress"`
	Certificates repositories.CertificateCounts    `json:"certificates"`
}

func (s *dashboardService) Summary(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	var agg dashboardAggregates
	err := s.cacheManager.Stats.CacheOrExecute(ctx, userID+":summary", &agg, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.loadAggregates(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.Notification().CountUnread(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	summary := &models.DashboardSummary{
		TotalModules:         int(agg.TotalModules),
		CompletedModules:     int(agg.Progress.Completed),
		InProgressModules:    int(agg.Progress.InProgress),
		PendingModules:       int(max(agg.TotalModules-agg.Progress.Completed, 0)),
		ValidCertificates:    int(agg.Certificates.Valid),
		ExpiringCertificates: int(agg.Certificates.Expiring),
		ExpiredCertificates:  int(agg.Certificates.Expired),
		UnreadNotifications:  int(unread),
	}
	summary.OverallProgress = overallProgress(agg.Progress.Completed, agg.TotalModules)

	return summary, nil
}

func (s *dashboardService) loadAggregates(ctx context.Context, userID string) (*dashboardAggregates, error) {
	total, err := s.repo.TrainingModule().Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count training modules: %w", err)
	}

	progress, err := s.repo.Dashboard().GetProgressStatusCounts(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	certificates, err := s.repo.Dashboard().GetCertificateCounts(ctx, nil, userID, s.now())
	if err != nil {
		return nil, err
	}

	return &dashboardAggregates{
		TotalModules: total,
		Progress:     *progress,
		Certificates: *certificates,
	}, nil
}

// overallProgress is the rounded share of catalog modules completed
func overallProgress(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completed) / float64(total) * 100))
	return min(pct, 100)
}
