package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserFavorite struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID   string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_favorite"`
	ModuleID string `json:"module_id" gorm:"not null;type:uuid;uniqueIndex:idx_user_favorite"`

	CreatedAt time.Time `json:"created_at"`

	Module *TrainingModule `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
}

func (UserFavorite) TableName() string {
	return "user_favorites"
}

func (f *UserFavorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
