package models

import "time"

// ===== REQUESTS =====

type StartModuleRequest struct {
	DueDate *time.Time `json:"due_date"`
}

type AdvanceProgressRequest struct {
	// Zero means DefaultProgressIncrement
	Increment int `json:"increment" validate:"omitempty,min=1,max=100"`
}

type ProfileUpdateRequest struct {
	FirstName              *string `json:"first_name" validate:"omitempty,max=100"`
	LastName               *string `json:"last_name" validate:"omitempty,max=100"`
	Department             *string `json:"department" validate:"omitempty,max=100"`
	JobTitle               *string `json:"job_title" validate:"omitempty,max=100"`
	EmailTrainingReminders *bool   `json:"email_training_reminders"`
	EmailDeadlineAlerts    *bool   `json:"email_deadline_alerts"`
	EmailCompletionSummary *bool   `json:"email_completion_summary"`
	ReminderDaysBefore     *int    `json:"reminder_days_before" validate:"omitempty,min=1,max=30"`
}

type WeeklyGoalRequest struct {
	TargetModules int `json:"target_modules" validate:"required,min=1,max=50"`
	TargetMinutes int `json:"target_minutes" validate:"required,min=5,max=6000"`
}

type ModuleUpsertRequest struct {
	Title           string          `json:"title" validate:"required,min=1,max=255"`
	Category        string          `json:"category" validate:"required,min=1,max=100"`
	Description     *string         `json:"description" validate:"omitempty,max=5000"`
	DurationMinutes *int            `json:"duration_minutes" validate:"omitempty,min=0,max=1440"`
	IsMandatory     *bool           `json:"is_mandatory"`
	Priority        *ModulePriority `json:"priority" validate:"omitempty,module_priority"`
}

// ===== PAGINATION & FILTERING =====

type ListModulesParams struct {
	Page     int    `json:"page" validate:"min=0"`
	Size     int    `json:"size" validate:"min=1,max=100"`
	Search   string `json:"search" validate:"max=100"`
	Category string `json:"category" validate:"max=100"`
	SortBy   string `json:"sort_by" validate:"omitempty,oneof=title priority created_at"`
	SortDir  string `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// NewPaginatedResponse fills the derived paging fields. page is 1-based.
func NewPaginatedResponse(content interface{}, count int, total int64, page, size int) *PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page <= 1,
		Last:             page >= totalPages,
		NumberOfElements: count,
		Empty:            count == 0,
	}
}

// ===== VIEWS =====

type FeedVariant string

const (
	VariantUrgent    FeedVariant = "urgent"
	VariantNew       FeedVariant = "new"
	VariantProgress  FeedVariant = "progress"
	VariantCompleted FeedVariant = "completed"
)

type FeedItem struct {
	Module          *TrainingModule `json:"module"`
	Progress        *UserProgress   `json:"progress,omitempty"`
	Variant         FeedVariant     `json:"variant"`
	Tag             string          `json:"tag"`
	DurationMinutes int             `json:"duration_minutes"`
}

type FeedResponse struct {
	PendingCount int         `json:"pending_count"`
	Items        []*FeedItem `json:"items"`
}

type ModuleDetail struct {
	FeedItem
	Compliance       *ComplianceRecord `json:"compliance,omitempty"`
	ComplianceStatus *ComplianceStatus `json:"compliance_status,omitempty"`
	IsFavorite       bool              `json:"is_favorite"`
}

type CertificateView struct {
	ID             string           `json:"id"`
	ModuleID       string           `json:"module_id"`
	ModuleTitle    string           `json:"module_title"`
	Category       string           `json:"category"`
	Status         ComplianceStatus `json:"status"`
	IsValid        bool             `json:"is_valid"`
	IssuedAt       time.Time        `json:"issued_at"`
	ExpiryDate     *time.Time       `json:"expiry_date"`
	CertificateURL *string          `json:"certificate_url"`
}

type ProfileResponse struct {
	*Profile
	CompletionPercentage int `json:"completion_percentage"`
}

type WeeklyGoalResponse struct {
	WeekStart        time.Time `json:"week_start"`
	TargetModules    int       `json:"target_modules"`
	TargetMinutes    int       `json:"target_minutes"`
	CompletedModules int       `json:"completed_modules"`
	CompletedMinutes int       `json:"completed_minutes"`
	IsDefault        bool      `json:"is_default"`
}

type AchievementView struct {
	*Achievement
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

type DashboardSummary struct {
	OverallProgress      int `json:"overall_progress"`
	TotalModules         int `json:"total_modules"`
	CompletedModules     int `json:"completed_modules"`
	InProgressModules    int `json:"in_progress_modules"`
	PendingModules       int `json:"pending_modules"`
	ValidCertificates    int `json:"valid_certificates"`
	ExpiringCertificates int `json:"expiring_certificates"`
	ExpiredCertificates  int `json:"expired_certificates"`
	UnreadNotifications  int `json:"unread_notifications"`
}
