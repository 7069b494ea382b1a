package repositories

import "context"

// Repository aggregates every repository the training service uses
type Repository interface {
	// Catalog
	TrainingModule() TrainingModuleRepository

	// Learner state
	Progress() ProgressRepository
	Compliance() ComplianceRepository
	Notification() NotificationRepository

	// Learner profile
	Profile() ProfileRepository
	WeeklyGoal() WeeklyGoalRepository
	Achievement() AchievementRepository
	Favorite() FavoriteRepository

	// Identity (external, read through Casdoor)
	User() UserRepository

	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
