package pkg

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/flexible-healthcare/training-service/internal/config"
	"github.com/flexible-healthcare/training-service/internal/models"
)

// InitDatabase opens the postgres pool and migrates the schema when enabled
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if cfg.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// AutoMigrate creates or updates every table the service owns
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.TrainingModule{},
		&models.UserProgress{},
		&models.ComplianceRecord{},
		&models.Notification{},
		&models.Profile{},
		&models.WeeklyGoal{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.UserFavorite{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// At most one unfinished progress row per (user, module)
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_progress_one_active
		ON user_progress (user_id, module_id) WHERE status <> 'completed'`).Error; err != nil {
		return fmt.Errorf("failed to create active progress index: %w", err)
	}
	return nil
}
