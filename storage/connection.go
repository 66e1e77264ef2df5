package storage

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config selects and tunes the SQL backend for session storage
type Config struct {
	Driver      string // "sqlite" or "postgres"
	DSN         string // postgres URL or sqlite path
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// NewConnection opens a database connection for the configured driver
func NewConnection(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres requires a DSN")
		}
		dialector = postgres.Open(cfg.DSN)

	case "sqlite":
		// Path can be a file or ":memory:"
		path := cfg.DSN
		if path == "" {
			path = ":memory:"
		}
		dialector = sqlite.Open(path)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database
	if cfg.Driver == "sqlite" && (cfg.DSN == "" || cfg.DSN == ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Pool settings only matter for postgres
	if cfg.Driver == "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying db: %w", err)
		}
		if cfg.MaxOpen > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpen)
		}
		if cfg.MaxIdle > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdle)
		}
		if cfg.MaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)
		}
	}

	return db, nil
}

// NewTestConnection creates a migrated in-memory SQLite database
func NewTestConnection() (*gorm.DB, error) {
	db, err := NewConnection(Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate test database: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or updates every table used by the server
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&SessionModel{})
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
