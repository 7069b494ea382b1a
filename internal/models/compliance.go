package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplianceStatus string

const (
	ComplianceValid        ComplianceStatus = "valid"
	ComplianceExpiringSoon ComplianceStatus = "expiring_soon"
	ComplianceExpired      ComplianceStatus = "expired"
)

// ExpiringSoonWindow is how far ahead an expiry counts as imminent
const ExpiringSoonWindow = 30 * 24 * time.Hour

type ComplianceRecord struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid"`
	UserID         string     `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_compliance_user_module"`
	ModuleID       string     `json:"module_id" gorm:"not null;type:uuid;uniqueIndex:idx_compliance_user_module"`
	IsValid        bool       `json:"is_valid" gorm:"not null"`
	ExpiryDate     *time.Time `json:"expiry_date" gorm:"index"`
	CertificateURL *string    `json:"certificate_url" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Module *TrainingModule `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
}

func (ComplianceRecord) TableName() string {
	return "compliance_records"
}

func (r *ComplianceRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// IsExpired reports an expiry strictly before now. No expiry never expires.
func (r *ComplianceRecord) IsExpired(now time.Time) bool {
	return r.ExpiryDate != nil && r.ExpiryDate.Before(now)
}

// IsExpiringSoon is true inside the 30 day window and false once expired.
func (r *ComplianceRecord) IsExpiringSoon(now time.Time) bool {
	return r.ExpiryDate != nil &&
		r.ExpiryDate.Before(now.Add(ExpiringSoonWindow)) &&
		!r.IsExpired(now)
}

// Status classifies the record for display
func (r *ComplianceRecord) Status(now time.Time) ComplianceStatus {
	switch {
	case r.IsExpired(now):
		return ComplianceExpired
	case r.IsExpiringSoon(now):
		return ComplianceExpiringSoon
	default:
		return ComplianceValid
	}
}
