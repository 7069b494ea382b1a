package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ModulePriority string

const (
	PriorityHigh   ModulePriority = "high"
	PriorityMedium ModulePriority = "medium"
	PriorityLow    ModulePriority = "low"
)

// DefaultModuleDuration is shown for modules without a duration
const DefaultModuleDuration = 30

// TrainingModule is managed by administrators; the service only reads it.
type TrainingModule struct {
	ID              string          `json:"id" gorm:"primaryKey;type:uuid"`
	Title           string          `json:"title" gorm:"not null;size:255"`
	Category        string          `json:"category" gorm:"not null;size:100;index"`
	Description     *string         `json:"description"`
	DurationMinutes *int            `json:"duration_minutes"`
	IsMandatory     *bool           `json:"is_mandatory"`
	Priority        *ModulePriority `json:"priority" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TrainingModule) TableName() string {
	return "training_modules"
}

func (m *TrainingModule) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// IsHighPriority reports whether priority is set to high
func (m *TrainingModule) IsHighPriority() bool {
	return m.Priority != nil && *m.Priority == PriorityHigh
}

// Mandatory treats an unset flag as false
func (m *TrainingModule) Mandatory() bool {
	return m.IsMandatory != nil && *m.IsMandatory
}

// Duration returns the duration in minutes, falling back to DefaultModuleDuration
func (m *TrainingModule) Duration() int {
	if m.DurationMinutes == nil || *m.DurationMinutes <= 0 {
		return DefaultModuleDuration
	}
	return *m.DurationMinutes
}
