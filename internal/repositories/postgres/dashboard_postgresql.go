package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// GetProgressStatusCounts classifies each module by the user's latest progress row
func (r *dashboardRepository) GetProgressStatusCounts(ctx context.Context, tx *gorm.DB, userID string) (*repositories.ProgressStatusCounts, error) {
	db := r.getDB(tx)

	latest := db.Model(&models.UserProgress{}).
		Select("DISTINCT ON (module_id) module_id, status").
		Where("user_id = ?", userID).
		Order("module_id").
		Order("started_at DESC NULLS LAST").
		Order("created_at DESC")

	var counts repositories.ProgressStatusCounts
	err := db.WithContext(ctx).
		Table("(?) AS latest", latest).
		Select(`COUNT(*) FILTER (WHERE status = ?) AS completed,
			COUNT(*) FILTER (WHERE status = ?) AS in_progress`,
			models.ProgressCompleted, models.ProgressInProgress).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get progress status counts: %w", err)
	}

	return &counts, nil
}

// GetCertificateCounts buckets valid records with the same rules as ComplianceRecord.Status
func (r *dashboardRepository) GetCertificateCounts(ctx context.Context, tx *gorm.DB, userID string, now time.Time) (*repositories.CertificateCounts, error) {
	db := r.getDB(tx)
	soon := now.Add(models.ExpiringSoonWindow)

	var counts repositories.CertificateCounts
	err := db.WithContext(ctx).
		Model(&models.ComplianceRecord{}).
		Select(`COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date < ?) AS expired,
			COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date < ?) AS expiring,
			COUNT(*) FILTER (WHERE expiry_date IS NULL OR expiry_date >= ?) AS valid`,
			now, now, soon, soon).
		Where("user_id = ? AND is_valid = ?", userID, true).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate counts: %w", err)
	}

	return &counts, nil
}
