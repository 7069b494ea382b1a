package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/events"
	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ===== FAKE SERVICES =====
// Embedded interfaces panic if a test reaches a method it did not stub.

type fakeAuth struct {
	services.AuthService
	sessions map[string]*models.Session
	signedIn *models.SignInRequest
	revoked  []string
}

func (f *fakeAuth) GetSession(_ context.Context, token string) (*models.Session, error) {
	if s, ok := f.sessions[token]; ok {
		return s, nil
	}
	return nil, services.ErrSessionNotFound
}

func (f *fakeAuth) SignIn(_ context.Context, req *models.SignInRequest) (*models.Session, error) {
	f.signedIn = req
	if req.Password != "secret1" {
		return nil, services.NewAuthError("Invalid email or password.")
	}
	return &models.Session{Token: "issued", TokenType: "Bearer", User: &models.User{ID: "u-1", Email: req.Email}}, nil
}

func (f *fakeAuth) SignUp(_ context.Context, req *models.SignUpRequest) (*models.Session, error) {
	if req.Email == "taken@example.com" {
		return nil, &services.AuthError{Reason: "An account with this email already exists.", Conflict: true}
	}
	return &models.Session{Token: "issued", TokenType: "Bearer", User: &models.User{ID: "u-2", Email: req.Email}}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	if _, ok := f.sessions[token]; !ok {
		return services.ErrSessionNotFound
	}
	f.revoked = append(f.revoked, token)
	return nil
}

type fakeProgress struct {
	services.ProgressService
	started  []string
	startErr error
	advanced *models.AdvanceProgressRequest
}

func (f *fakeProgress) Start(_ context.Context, userID, moduleID string, _ *models.StartModuleRequest) (*models.UserProgress, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = append(f.started, userID+"/"+moduleID)
	return &models.UserProgress{ID: "p-1", UserID: userID, ModuleID: moduleID, Status: models.ProgressInProgress}, nil
}

func (f *fakeProgress) Advance(_ context.Context, userID, progressID string, req *models.AdvanceProgressRequest) (*models.UserProgress, error) {
	f.advanced = req
	if progressID != "p-1" {
		return nil, services.ErrProgressNotFound
	}
	return &models.UserProgress{ID: progressID, UserID: userID, Status: models.ProgressInProgress, ProgressPercentage: 25}, nil
}

type fakeCatalog struct {
	services.CatalogService
	created   *models.ModuleUpsertRequest
	feedLimit int
}

func (f *fakeCatalog) Feed(_ context.Context, _ string, limit int) (*models.FeedResponse, error) {
	f.feedLimit = limit
	return &models.FeedResponse{PendingCount: 8}, nil
}

func (f *fakeCatalog) CreateModule(_ context.Context, req *models.ModuleUpsertRequest) (*models.TrainingModule, error) {
	f.created = req
	return &models.TrainingModule{ID: "mod-1", Title: req.Title, Category: req.Category}, nil
}

type fakeNotifications struct {
	services.NotificationService
	scannedAt time.Time
}

func (f *fakeNotifications) Scan(_ context.Context, userID string, now time.Time) ([]*models.Notification, error) {
	f.scannedAt = now
	return []*models.Notification{{ID: "n-1", UserID: userID, Title: "Training Due Soon"}}, nil
}

func (f *fakeNotifications) UnreadCount(context.Context, string) (int64, error) {
	return 3, nil
}

type fakeCertificates struct {
	services.CertificateService
	docs map[string]*services.CertificateDocument
}

func (f *fakeCertificates) Document(_ context.Context, _ string, recordID string) (*services.CertificateDocument, error) {
	if doc, ok := f.docs[recordID]; ok {
		return doc, nil
	}
	return nil, services.ErrCertificateNotFound
}

type fakeProfile struct {
	services.ProfileService
	uploadedType string
	uploadedSize int64
	uploaded     string
}

func (f *fakeProfile) UploadAvatar(_ context.Context, userID string, file io.Reader, size int64, contentType string) (*models.ProfileResponse, error) {
	body, _ := io.ReadAll(file)
	f.uploaded = string(body)
	f.uploadedSize = size
	f.uploadedType = contentType
	url := "https://cdn.example.com/" + userID + "/avatar"
	return &models.ProfileResponse{Profile: &models.Profile{ID: userID, AvatarURL: &url}}, nil
}

type fakeDashboard struct {
	services.DashboardService
}

func (fakeDashboard) Summary(context.Context, string) (*models.DashboardSummary, error) {
	return &models.DashboardSummary{TotalModules: 4, CompletedModules: 1, OverallProgress: 25}, nil
}

// ===== FAKE SERVICE MANAGER =====

type fakeManager struct {
	auth          *fakeAuth
	progress      *fakeProgress
	catalog       *fakeCatalog
	notifications *fakeNotifications
	certificates  *fakeCertificates
	profile       *fakeProfile
	healthErr     error
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		auth: &fakeAuth{sessions: map[string]*models.Session{
			"learner-token": {Token: "learner-token", User: &models.User{ID: "learner-1", Email: "l@example.com", Role: models.RoleLearner}},
			"admin-token":   {Token: "admin-token", User: &models.User{ID: "admin-1", Email: "a@example.com", Role: models.RoleAdmin}},
		}},
		progress:      &fakeProgress{},
		catalog:       &fakeCatalog{},
		notifications: &fakeNotifications{},
		certificates:  &fakeCertificates{docs: map[string]*services.CertificateDocument{}},
		profile:       &fakeProfile{},
	}
}

func (m *fakeManager) Progress() services.ProgressService         { return m.progress }
func (m *fakeManager) Catalog() services.CatalogService           { return m.catalog }
func (m *fakeManager) Notification() services.NotificationService { return m.notifications }
func (m *fakeManager) Certificate() services.CertificateService   { return m.certificates }
func (m *fakeManager) Profile() services.ProfileService           { return m.profile }
func (m *fakeManager) Goal() services.GoalService                 { return nil }
func (m *fakeManager) Favorite() services.FavoriteService         { return nil }
func (m *fakeManager) Achievement() services.AchievementService   { return nil }
func (m *fakeManager) Dashboard() services.DashboardService       { return fakeDashboard{} }
func (m *fakeManager) Auth() services.AuthService                 { return m.auth }

func (m *fakeManager) Initialize(context.Context) error     { return nil }
func (m *fakeManager) RegisterEventHandlers(*events.Router) {}
func (m *fakeManager) Health(context.Context) error         { return m.healthErr }
func (m *fakeManager) Shutdown(context.Context) error       { return nil }

type fakeLimiter struct {
	allow bool
	err   error
	calls int
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, error) {
	f.calls++
	return f.allow, f.err
}

func (f *fakeLimiter) Window() time.Duration { return 90 * time.Second }

// ===== HELPERS =====

func newTestRouter(t *testing.T, sm services.ServiceManager, limiter RateLimiter) *gin.Engine {
	t.Helper()
	return buildRouter(sm, limiter, nil)
}

func buildRouter(sm services.ServiceManager, limiter RateLimiter, origins []string) *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, testLogger(), origins)
	NewHandlerManager(sm, limiter, testLogger()).SetupRoutes(router)
	return router
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
