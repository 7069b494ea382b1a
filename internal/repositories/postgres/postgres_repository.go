package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/flexible-healthcare/training-service/internal/cache"
	"github.com/flexible-healthcare/training-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	trainingModule repositories.TrainingModuleRepository
	progress       repositories.ProgressRepository
	compliance     repositories.ComplianceRepository
	notification   repositories.NotificationRepository
	profile        repositories.ProfileRepository
	weeklyGoal     repositories.WeeklyGoalRepository
	achievement    repositories.AchievementRepository
	favorite       repositories.FavoriteRepository
	user           repositories.UserRepository
	dashboard      repositories.DashboardRepository
}

// RepositoryConfig holds configuration for repository initialization.
// Users is the identity store; it lives outside the database.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	Users       repositories.UserRepository
	// CacheManager is shared with services for invalidation; built from RedisClient when nil
	CacheManager *cache.CacheManager
}

// NewPostgreSQLRepository wires every sub-repository on the same connection
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := config.CacheManager
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(config.RedisClient)
	}
	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
		user:         config.Users,
	}
	repo.bind(config.DB)
	return repo
}

func (r *PostgreSQLRepository) bind(db *gorm.DB) {
	helpers := NewSharedHelpers(db)

	r.trainingModule = NewTrainingModulePostgreSQL(db, helpers, r.cacheManager)
	r.progress = NewProgressPostgreSQL(db, helpers)
	r.compliance = NewCompliancePostgreSQL(db)
	r.notification = NewNotificationPostgreSQL(db)
	r.profile = NewProfilePostgreSQL(db, r.cacheManager)
	r.weeklyGoal = NewWeeklyGoalPostgreSQL(db)
	r.achievement = NewAchievementPostgreSQL(db)
	r.favorite = NewFavoritePostgreSQL(db)
	r.dashboard = NewDashboardRepository(db)
}

func (r *PostgreSQLRepository) TrainingModule() repositories.TrainingModuleRepository {
	return r.trainingModule
}

func (r *PostgreSQLRepository) Progress() repositories.ProgressRepository {
	return r.progress
}

func (r *PostgreSQLRepository) Compliance() repositories.ComplianceRepository {
	return r.compliance
}

func (r *PostgreSQLRepository) Notification() repositories.NotificationRepository {
	return r.notification
}

func (r *PostgreSQLRepository) Profile() repositories.ProfileRepository {
	return r.profile
}

func (r *PostgreSQLRepository) WeeklyGoal() repositories.WeeklyGoalRepository {
	return r.weeklyGoal
}

func (r *PostgreSQLRepository) Achievement() repositories.AchievementRepository {
	return r.achievement
}

func (r *PostgreSQLRepository) Favorite() repositories.FavoriteRepository {
	return r.favorite
}

func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

func (r *PostgreSQLRepository) Dashboard() repositories.DashboardRepository {
	return r.dashboard
}

// WithTransaction executes fn with every sub-repository bound to one transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
			// Identity store is external and not transactional
			user: r.user,
		}
		txRepo.bind(tx)

		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize verifies connections and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}
	if rm.config.Users == nil {
		return fmt.Errorf("user repository is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)

	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown closes database and cache connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
