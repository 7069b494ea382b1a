package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultTargetModules = 3
	DefaultTargetMinutes = 60
)

type WeeklyGoal struct {
	ID            string         `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        string         `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_weekly_goal_user_week"`
	WeekStart     datatypes.Date `json:"week_start" gorm:"not null;uniqueIndex:idx_weekly_goal_user_week"`
	TargetModules int            `json:"target_modules" gorm:"not null;default:3"`
	TargetMinutes int            `json:"target_minutes" gorm:"not null;default:60"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WeeklyGoal) TableName() string {
	return "weekly_goals"
}

func (g *WeeklyGoal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// WeekStartOf returns midnight UTC of the Monday of t's week
func WeekStartOf(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
