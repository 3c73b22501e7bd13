package database

import (
	"context"
	"fmt"
	"time"

	"github.com/fazamuttaqien/ipap-financing/config"
	mysqldb "github.com/fazamuttaqien/ipap-financing/infra/mysql"
	postgresdb "github.com/fazamuttaqien/ipap-financing/infra/postgres"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialector picks the gorm dialector for cfg.DB_DRIVER.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB_DRIVER {
	case DriverMySQL, "":
		return mysqldb.FromConfig(cfg).Dialector(), nil
	case DriverPostgres:
		return postgresdb.FromConfig(cfg).Dialector(), nil
	case DriverSQLite:
		return sqlite.Open(cfg.SQLITE_PATH), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB_DRIVER)
	}
}

// Connect establishes database connection
func Connect(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// ConnectWithRetry connects to database with retry mechanism
func ConnectWithRetry(dialector gorm.Dialector, debug bool, maxRetries int, retryDelay time.Duration) (*gorm.DB, error) {
	var err error
	for i := range maxRetries {
		var db *gorm.DB
		db, err = Connect(dialector, debug)
		if err == nil {
			zap.L().Info("Connected to database", zap.Int("attempt", i+1))
			return db, nil
		}

		zap.L().Warn("Failed to connect to database",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)

		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// Open connects to the database selected by cfg.DB_DRIVER.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return ConnectWithRetry(dialector, cfg.DEVELOPMENT_MODE, 5, 2*time.Second)
}

// Close closes the database connection
func Close(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.WithContext(ctx).DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	return sqlDB.Close()
}

// Ping checks if database connection is alive
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	return sqlDB.PingContext(ctx)
}

// GetStats returns database connection statistics
func GetStats(db *gorm.DB) map[string]any {
	sqlDB, err := db.DB()
	if err != nil {
		return map[string]any{
			"error": err.Error(),
		}
	}

	stats := sqlDB.Stats()
	return map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
	}
}
