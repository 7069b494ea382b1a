package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequirementType string

const (
	RequirementModulesCompleted   RequirementType = "modules_completed"
	RequirementMinutesTrained     RequirementType = "minutes_trained"
	RequirementCertificatesEarned RequirementType = "certificates_earned"
)

type Achievement struct {
	ID                  string          `json:"id" gorm:"primaryKey;type:uuid"`
	Name                string          `json:"name" gorm:"not null;size:100"`
	Description         *string         `json:"description"`
	Icon                *string         `json:"icon" gorm:"size:100"`
	RequirementType     RequirementType `json:"requirement_type" gorm:"not null;size:40"`
	RequirementValue    int             `json:"requirement_value" gorm:"not null"`
	RequirementCategory *string         `json:"requirement_category" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type UserAchievement struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_achievement"`
	AchievementID string    `json:"achievement_id" gorm:"not null;type:uuid;uniqueIndex:idx_user_achievement"`
	EarnedAt      time.Time `json:"earned_at" gorm:"not null"`

	Achievement *Achievement `json:"achievement,omitempty" gorm:"foreignKey:AchievementID"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if ua.ID == "" {
		ua.ID = uuid.NewString()
	}
	return nil
}
