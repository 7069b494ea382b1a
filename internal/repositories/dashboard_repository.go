package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardRepository runs the aggregate queries behind the learner dashboard
type DashboardRepository interface {
	// Counts modules by the status of the latest progress row per module
	GetProgressStatusCounts(ctx context.Context, tx *gorm.DB, userID string) (*ProgressStatusCounts, error)

	// Buckets valid compliance records by expiry relative to now
	GetCertificateCounts(ctx context.Context, tx *gorm.DB, userID string, now time.Time) (*CertificateCounts, error)
}
