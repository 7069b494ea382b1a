package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/flexible-healthcare/training-service/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	// CreateIfAbsent inserts unless a row with the same dedup key exists.
	// Returns false when the insert was skipped.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, notification *models.Notification) (bool, error)

	GetByID(ctx context.Context, tx *gorm.DB, userID, id string) (*models.Notification, error)
	// ListRecent returns the newest notifications first
	ListRecent(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, tx *gorm.DB, userID string) (int64, error)

	MarkRead(ctx context.Context, tx *gorm.DB, userID, id string) error
	MarkAllRead(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}
