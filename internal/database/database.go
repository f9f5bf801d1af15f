package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the configured database, retrying the first ping while the
// server comes up
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.ConnectionString())
	case "sqlite":
		dialector = sqlite.Open(cfg.Name)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 1; ; attempt++ {
		err = sqlDB.Ping()
		if err == nil {
			break
		}
		if attempt >= retries {
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
		}
		log.Warn("Database not reachable yet, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		time.Sleep(time.Duration(attempt) * time.Second)
	}

	return db, nil
}

// GormConfig is the gorm configuration shared by the server, tools and tests
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HealthCheck pings the database
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// HealthCheckWithStats pings the database and returns its connection pool statistics
func HealthCheckWithStats(ctx context.Context, db *gorm.DB) (sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return sqlDB.Stats(), err
	}
	return sqlDB.Stats(), nil
}

// AutoMigrate creates or updates the schema from the models. Production uses the
// goose migrations; this serves development and tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Contact{},
		&domain.Lead{},
		&domain.Deal{},
		&domain.DealStageHistory{},
		&domain.Activity{},
	)
}
