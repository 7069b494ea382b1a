package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

const (
	dueSoonWindow       = 7 * 24 * time.Hour
	expiryAlertWindow   = 30 * 24 * time.Hour
	recentNotifications = 20
	maxNotifications    = 100

	alertDateLayout = "Jan 2, 2006"
)

type notificationService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewNotificationService(repo repositories.Repository, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		logger: logger,
	}
}

// Scan inserts alerts keyed by (user, module, class, UTC day); the unique
// dedup key makes repeated and concurrent scans insert nothing new.
func (s *notificationService) Scan(ctx context.Context, userID string, now time.Time) ([]*models.Notification, error) {
	s.logger.Info("Scanning for training alerts", "user_id", userID)

	due, err := s.repo.Progress().ListDueBetween(ctx, nil, userID, now, now.Add(dueSoonWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list due training: %w", err)
	}

	expiring, err := s.repo.Compliance().ListExpiringBetween(ctx, nil, userID, now, now.Add(expiryAlertWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring certificates: %w", err)
	}

	created := 0
	for _, progress := range due {
		title := moduleTitle(progress.Module, "Training")
		n := newAlert(userID, progress.ModuleID, models.AlertDueSoon, now,
			models.NotificationWarning,
			"Training Due Soon",
			fmt.Sprintf("%q is due on %s", title, progress.DueDate.Format(alertDateLayout)))

		inserted, err := s.repo.Notification().CreateIfAbsent(ctx, nil, n)
		if err != nil {
			return nil, fmt.Errorf("failed to create due soon alert: %w", err)
		}
		if inserted {
			created++
		}
	}

	for _, record := range expiring {
		title := moduleTitle(record.Module, "Certificate")
		n := newAlert(userID, record.ModuleID, models.AlertCertificateExpiring, now,
			models.NotificationError,
			"Certificate Expiring",
			fmt.Sprintf("%q expires on %s", title, record.ExpiryDate.Format(alertDateLayout)))

		inserted, err := s.repo.Notification().CreateIfAbsent(ctx, nil, n)
		if err != nil {
			return nil, fmt.Errorf("failed to create expiry alert: %w", err)
		}
		if inserted {
			created++
		}
	}

	s.logger.Info("Training alert scan finished",
		"user_id", userID,
		"due_soon", len(due),
		"expiring", len(expiring),
		"created", created)

	return s.List(ctx, userID, recentNotifications)
}

func newAlert(userID, moduleID string, class models.AlertClass, now time.Time, kind models.NotificationType, title, message string) *models.Notification {
	link := "/training/" + moduleID
	key := models.AlertDedupKey(userID, moduleID, class, now)
	return &models.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		Type:       kind,
		Link:       &link,
		ModuleID:   &moduleID,
		AlertClass: &class,
		DedupKey:   &key,
	}
}

func moduleTitle(module *models.TrainingModule, fallback string) string {
	if module == nil || module.Title == "" {
		return fallback
	}
	return module.Title
}

func (s *notificationService) List(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = recentNotifications
	}
	limit = min(limit, maxNotifications)

	notifications, err := s.repo.Notification().ListRecent(ctx, nil, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead is one-way; marking an already read notification changes nothing
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	notification, err := s.repo.Notification().GetByID(ctx, nil, userID, notificationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	if notification.IsRead {
		return notification, nil
	}

	if err := s.repo.Notification().MarkRead(ctx, nil, userID, notificationID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	notification.IsRead = true
	return notification, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	updated, err := s.repo.Notification().MarkAllRead(ctx, nil, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	s.logger.Info("Notifications marked read", "user_id", userID, "count", updated)
	return updated, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.Notification().CountUnread(ctx, nil, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
