package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProgressStatus string

const (
	// ProgressNotStarted is never stored; it stands for the absence of a row.
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// DefaultProgressIncrement is the percentage added by one advance step
const DefaultProgressIncrement = 25

type UserProgress struct {
	ID                 string         `json:"id" gorm:"primaryKey;type:uuid"`
	UserID             string         `json:"user_id" gorm:"not null;size:255;index:idx_progress_user_module"`
	ModuleID           string         `json:"module_id" gorm:"not null;type:uuid;index:idx_progress_user_module"`
	Status             ProgressStatus `json:"status" gorm:"not null;size:20;index"`
	ProgressPercentage int            `json:"progress_percentage" gorm:"not null;default:0"`
	StartedAt          *time.Time     `json:"started_at"`
	CompletedAt        *time.Time     `json:"completed_at"`
	DueDate            *time.Time     `json:"due_date" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Module *TrainingModule `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

func (p *UserProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *UserProgress) IsCompleted() bool {
	return p != nil && p.Status == ProgressCompleted
}

func (p *UserProgress) IsInProgress() bool {
	return p != nil && p.Status == ProgressInProgress
}
