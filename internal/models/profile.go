package models

import (
	"math"
	"strings"
	"time"
)

const DefaultReminderDaysBefore = 3

// Profile is keyed by the identity provider's user id
type Profile struct {
	ID         string  `json:"id" gorm:"primaryKey;size:255"`
	Email      string  `json:"email" gorm:"size:255;index"`
	FirstName  *string `json:"first_name" gorm:"size:100"`
	LastName   *string `json:"last_name" gorm:"size:100"`
	Department *string `json:"department" gorm:"size:100"`
	JobTitle   *string `json:"job_title" gorm:"size:100"`
	AvatarURL  *string `json:"avatar_url" gorm:"size:500"`

	// Notification preferences
	EmailTrainingReminders bool `json:"email_training_reminders" gorm:"not null"`
	EmailDeadlineAlerts    bool `json:"email_deadline_alerts" gorm:"not null"`
	EmailCompletionSummary bool `json:"email_completion_summary" gorm:"not null;default:false"`
	ReminderDaysBefore     int  `json:"reminder_days_before" gorm:"not null;default:3"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// NewDefaultProfile builds the row created on first access
func NewDefaultProfile(userID, email string) *Profile {
	return &Profile{
		ID:                     userID,
		Email:                  email,
		EmailTrainingReminders: true,
		EmailDeadlineAlerts:    true,
		ReminderDaysBefore:     DefaultReminderDaysBefore,
	}
}

// CompletionPercentage counts filled fields among name, department, job title and avatar
func (p *Profile) CompletionPercentage() int {
	fields := []*string{p.FirstName, p.LastName, p.Department, p.JobTitle, p.AvatarURL}
	filled := 0
	for _, f := range fields {
		if f != nil && strings.TrimSpace(*f) != "" {
			filled++
		}
	}
	return int(math.Round(float64(filled) / float64(len(fields)) * 100))
}

// DisplayName falls back to the email when no name is set
func (p *Profile) DisplayName() string {
	var parts []string
	if p.FirstName != nil && *p.FirstName != "" {
		parts = append(parts, *p.FirstName)
	}
	if p.LastName != nil && *p.LastName != "" {
		parts = append(parts, *p.LastName)
	}
	if len(parts) == 0 {
		return p.Email
	}
	return strings.Join(parts, " ")
}
