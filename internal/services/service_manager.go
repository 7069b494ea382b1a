package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flexible-healthcare/training-service/internal/cache"
	"github.com/flexible-healthcare/training-service/internal/events"
	"github.com/flexible-healthcare/training-service/internal/repositories"
	"github.com/flexible-healthcare/training-service/internal/storage"
	"github.com/flexible-healthcare/training-service/internal/validator"
)

// ServiceManagerConfig holds the training rules services need
type ServiceManagerConfig struct {
	// CertificateValidity of zero issues certificates that never expire
	CertificateValidity time.Duration
}

// Dependencies are the shared collaborators handed to every service.
// Publisher and Store may be nil.
type Dependencies struct {
	Repo         repositories.Repository
	CacheManager *cache.CacheManager
	Logger       *slog.Logger
	Validator    *validator.Validator
	Publisher    events.EventPublisher
	Store        storage.ObjectStore
	Tokens       *TokenIssuer
}

type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	progressService     ProgressService
	catalogService      CatalogService
	notificationService NotificationService
	certificateService  CertificateService
	profileService      ProfileService
	goalService         GoalService
	favoriteService     FavoriteService
	achievementService  AchievementService
	dashboardService    DashboardService
	authService         AuthService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	if deps.CacheManager == nil {
		deps.CacheManager = cache.NewCacheManager(nil)
	}
	return &serviceManager{
		deps:   deps,
		config: config,
	}
}

// Initialize sets up all services
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Repo == nil || sm.deps.Logger == nil || sm.deps.Validator == nil || sm.deps.Tokens == nil {
		return fmt.Errorf("service manager is missing required dependencies")
	}

	sm.deps.Logger.Info("Initializing service manager")

	d := sm.deps
	sm.progressService = NewProgressService(d.Repo, d.CacheManager, d.Logger, d.Validator, d.Publisher, sm.config.CertificateValidity)
	sm.catalogService = NewCatalogService(d.Repo, d.Logger, d.Validator)
	sm.notificationService = NewNotificationService(d.Repo, d.Logger)
	sm.certificateService = NewCertificateService(d.Repo, d.Logger)
	sm.profileService = NewProfileService(d.Repo, d.Logger, d.Validator, d.Store)
	sm.goalService = NewGoalService(d.Repo, d.Logger, d.Validator)
	sm.favoriteService = NewFavoriteService(d.Repo, d.Logger)
	sm.achievementService = NewAchievementService(d.Repo, d.Logger)
	sm.dashboardService = NewDashboardService(d.Repo, d.CacheManager, d.Logger)
	sm.authService = NewAuthService(d.Repo.User(), d.Tokens, d.Logger, d.Validator, d.Publisher)

	if d.Store == nil {
		d.Logger.Warn("Object storage not configured, avatar uploads disabled")
	}

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

// RegisterEventHandlers subscribes services to bus events
func (sm *serviceManager) RegisterEventHandlers(router *events.Router) {
	router.Handle("achievement-evaluator", events.TypeModuleCompleted, sm.Achievement().HandleModuleCompleted)
}

func (sm *serviceManager) mustBeReady() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters

func (sm *serviceManager) Progress() ProgressService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.progressService
}

func (sm *serviceManager) Catalog() CatalogService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.catalogService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.notificationService
}

func (sm *serviceManager) Certificate() CertificateService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.certificateService
}

func (sm *serviceManager) Profile() ProfileService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.profileService
}

func (sm *serviceManager) Goal() GoalService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.goalService
}

func (sm *serviceManager) Favorite() FavoriteService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.favoriteService
}

func (sm *serviceManager) Achievement() AchievementService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.achievementService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.dashboardService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.authService
}

// Health and lifecycle

func (sm *serviceManager) Health(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	if sm.deps.CacheManager.Available() {
		if err := sm.deps.CacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache health check failed: %w", err)
		}
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.deps.Logger.Info("Shutting down service manager")

	// The event bus is owned and closed by the caller
	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down successfully")
	return nil
}
