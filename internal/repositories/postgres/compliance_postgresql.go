package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

type CompliancePostgreSQL struct {
	db *gorm.DB
}

func NewCompliancePostgreSQL(db *gorm.DB) repositories.ComplianceRepository {
	return &CompliancePostgreSQL{db: db}
}

func (r *CompliancePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Upsert keeps one record per (user, module); a recompletion refreshes validity and expiry
func (r *CompliancePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, record *models.ComplianceRecord) error {
	err := r.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_valid", "expiry_date", "updated_at"}),
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert compliance record: %w", err)
	}
	return nil
}

func (r *CompliancePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, userID, id string) (*models.ComplianceRecord, error) {
	return r.first(r.getDB(tx).WithContext(ctx).
		Preload("Module").
		Where("id = ? AND user_id = ?", id, userID))
}

func (r *CompliancePostgreSQL) GetByModule(ctx context.Context, tx *gorm.DB, userID, moduleID string) (*models.ComplianceRecord, error) {
	return r.first(r.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID))
}

func (r *CompliancePostgreSQL) first(query *gorm.DB) (*models.ComplianceRecord, error) {
	var record models.ComplianceRecord
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get compliance record: %w", err)
	}
	return &record, nil
}

func (r *CompliancePostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.ComplianceRecord, error) {
	var records []*models.ComplianceRecord
	err := r.getDB(tx).WithContext(ctx).
		Preload("Module").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list compliance records: %w", err)
	}
	return records, nil
}

func (r *CompliancePostgreSQL) ListExpiringBetween(ctx context.Context, tx *gorm.DB, userID string, from, to time.Time) ([]*models.ComplianceRecord, error) {
	var records []*models.ComplianceRecord
	err := r.getDB(tx).WithContext(ctx).
		Preload("Module").
		Where("user_id = ? AND is_valid = ?", userID, true).
		Where("expiry_date >= ? AND expiry_date <= ?", from, to).
		Order("expiry_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring compliance records: %w", err)
	}
	return records, nil
}

func (r *CompliancePostgreSQL) CountValid(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.ComplianceRecord{}).
		Where("user_id = ? AND is_valid = ?", userID, true).
		Where("expiry_date IS NULL OR expiry_date >= ?", time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count valid certificates: %w", err)
	}
	return count, nil
}
