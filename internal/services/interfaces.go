package services

import (
	"context"
	"io"
	"time"

	"github.com/flexible-healthcare/training-service/internal/events"
	"github.com/flexible-healthcare/training-service/internal/models"
)

// ===== REQUEST/RESPONSE DTOs =====

type ListProgressParams struct {
	Status   *models.ProgressStatus `form:"status" validate:"omitempty,oneof=in_progress completed"`
	ModuleID *string                `form:"module_id" validate:"omitempty,uuid"`
	Page     int                    `form:"page" validate:"min=0"`
	Size     int                    `form:"size" validate:"min=0,max=100"`
}

// CertificateDocument is either a redirect to a stored file or a generated text body
type CertificateDocument struct {
	RedirectURL string
	Filename    string
	ContentType string
	Content     []byte
}

type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// SessionListener is called after every sign in and sign out
type SessionListener func(ctx context.Context, event models.SessionEvent)

// ===== SERVICE INTERFACES =====

type ProgressService interface {
	// Start fails with ErrAlreadyStarted while an unfinished row exists for the module
	Start(ctx context.Context, userID, moduleID string, req *models.StartModuleRequest) (*models.UserProgress, error)
	Advance(ctx context.Context, userID, progressID string, req *models.AdvanceProgressRequest) (*models.UserProgress, error)
	List(ctx context.Context, userID string, params *ListProgressParams) (*models.PaginatedResponse, error)
}

type CatalogService interface {
	ListModules(ctx context.Context, params *models.ListModulesParams) (*models.PaginatedResponse, error)
	GetModuleDetail(ctx context.Context, userID, moduleID string) (*models.ModuleDetail, error)
	Feed(ctx context.Context, userID string, limit int) (*models.FeedResponse, error)

	// Admin only
	CreateModule(ctx context.Context, req *models.ModuleUpsertRequest) (*models.TrainingModule, error)
	UpdateModule(ctx context.Context, moduleID string, req *models.ModuleUpsertRequest) (*models.TrainingModule, error)
}

type NotificationService interface {
	// Scan creates due-soon and expiring alerts at most once per module per day,
	// then returns the newest notifications.
	Scan(ctx context.Context, userID string, now time.Time) ([]*models.Notification, error)
	List(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type CertificateService interface {
	List(ctx context.Context, userID string) ([]*models.CertificateView, error)
	Document(ctx context.Context, userID, recordID string) (*CertificateDocument, error)
	Export(ctx context.Context, userID string) (*ExportFile, error)
}

type ProfileService interface {
	// Get creates the default profile on first access
	Get(ctx context.Context, userID string) (*models.ProfileResponse, error)
	Update(ctx context.Context, userID string, req *models.ProfileUpdateRequest) (*models.ProfileResponse, error)
	UploadAvatar(ctx context.Context, userID string, file io.Reader, size int64, contentType string) (*models.ProfileResponse, error)
}

type GoalService interface {
	GetCurrent(ctx context.Context, userID string, now time.Time) (*models.WeeklyGoalResponse, error)
	SetCurrent(ctx context.Context, userID string, req *models.WeeklyGoalRequest, now time.Time) (*models.WeeklyGoalResponse, error)
}

type FavoriteService interface {
	List(ctx context.Context, userID string) ([]*models.UserFavorite, error)
	Add(ctx context.Context, userID, moduleID string) error
	Remove(ctx context.Context, userID, moduleID string) error
}

type AchievementService interface {
	List(ctx context.Context, userID string) ([]*models.AchievementView, error)
	// Evaluate grants every achievement whose requirement is now met and returns the new ones
	Evaluate(ctx context.Context, userID string) ([]*models.Achievement, error)
	// HandleModuleCompleted is the event handler for training.module_completed
	HandleModuleCompleted(ctx context.Context, event *events.Event) error
}

type DashboardService interface {
	Summary(ctx context.Context, userID string) (*models.DashboardSummary, error)
}

type AuthService interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.Session, error)
	SignIn(ctx context.Context, req *models.SignInRequest) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	// GetSession resolves a bearer token, ours or one issued by the identity provider
	GetSession(ctx context.Context, token string) (*models.Session, error)
	// OnSessionChange registers listener and returns a function that removes it
	OnSessionChange(listener SessionListener) func()
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Progress() ProgressService
	Catalog() CatalogService
	Notification() NotificationService
	Certificate() CertificateService
	Profile() ProfileService
	Goal() GoalService
	Favorite() FavoriteService
	Achievement() AchievementService
	Dashboard() DashboardService
	Auth() AuthService

	Initialize(ctx context.Context) error
	// RegisterEventHandlers subscribes services to bus events
	RegisterEventHandlers(router *events.Router)
	Health(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// normalizePage defaults a 1-based page and size and returns the row offset
func normalizePage(page, size, defaultSize int) (int, int, int) {
	if size <= 0 {
		size = defaultSize
	}
	if page <= 0 {
		page = 1
	}
	return page, size, (page - 1) * size
}
