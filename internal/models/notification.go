package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
	NotificationInfo    NotificationType = "info"
)

type AlertClass string

const (
	AlertDueSoon             AlertClass = "due_soon"
	AlertCertificateExpiring AlertClass = "certificate_expiring"
)

type Notification struct {
	ID      string           `json:"id" gorm:"primaryKey;type:uuid"`
	UserID  string           `json:"user_id" gorm:"not null;size:255;index:idx_notifications_user_created"`
	Title   string           `json:"title" gorm:"not null;size:255"`
	Message string           `json:"message" gorm:"not null"`
	Type    NotificationType `json:"type" gorm:"not null;size:20"`
	Link    *string          `json:"link" gorm:"size:500"`
	IsRead  bool             `json:"is_read" gorm:"not null;default:false;index"`

	// Set for generated alerts only. DedupKey is unique so one alert per day survives races.
	ModuleID   *string     `json:"module_id,omitempty" gorm:"type:uuid"`
	AlertClass *AlertClass `json:"alert_class,omitempty" gorm:"size:40"`
	DedupKey   *string     `json:"-" gorm:"size:255;uniqueIndex"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_notifications_user_created"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// AlertDedupKey identifies one alert class for one module for one user on one UTC day
func AlertDedupKey(userID, moduleID string, class AlertClass, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", userID, moduleID, class, at.UTC().Format("2006-01-02"))
}
