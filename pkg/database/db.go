package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/reliability/retry"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database configuration
type Config struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	Path            string // SQLite file, ":memory:" for tests
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionPool manages database connections
type ConnectionPool struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// NewConnectionPool opens the configured database and waits until it answers a ping
func NewConnectionPool(ctx context.Context, config *Config, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver, dsn, err := dataSource(config)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	} else {
		configurePool(db, config)
	}

	// The database container may still be starting when the server boots.
	_, err = retry.Do(ctx, retry.DefaultConfig(), logger, "database ping", func(ctx context.Context) (struct{}, error) {
		ctxTest, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return struct{}{}, classifyPingError(db.PingContext(ctxTest))
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	logger.Info("database connected successfully",
		slog.String("driver", driver),
		slog.String("database", describe(config)),
	)

	return &ConnectionPool{
		db:     db,
		driver: driver,
		logger: logger,
	}, nil
}

// classifyPingError stops retrying when the server rejected the credentials
// or the database does not exist.
func classifyPingError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "28", "3D":
			return retry.Permanent(err)
		}
	}
	return err
}

func dataSource(config *Config) (string, string, error) {
	switch config.Driver {
	case DriverPostgres, "":
		connStr := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			config.Host,
			config.Port,
			config.User,
			config.Password,
			config.Database,
			config.SSLMode,
		)
		return DriverPostgres, connStr, nil
	case DriverSQLite:
		if config.Path == "" {
			return "", "", fmt.Errorf("sqlite path is required")
		}
		if config.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
				return "", "", fmt.Errorf("creating db directory: %w", err)
			}
		}
		return DriverSQLite, config.Path, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

func configurePool(db *sql.DB, config *Config) {
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(25) // default
	}

	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(5) // default
	}

	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute) // default
	}
}

func describe(config *Config) string {
	if config.Driver == DriverSQLite {
		return config.Path
	}
	return fmt.Sprintf("%s@%s:%d", config.Database, config.Host, config.Port)
}

// GetDB returns the underlying sql.DB connection
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

// Driver returns the driver name the pool was opened with
func (cp *ConnectionPool) Driver() string {
	return cp.driver
}

// Close closes the database connection
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Health checks the database health
func (cp *ConnectionPool) Health(ctx context.Context) error {
	ctxTest, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return cp.db.PingContext(ctxTest)
}

// DefaultConfig returns default database configuration for development
func DefaultConfig() *Config {
	return &Config{
		Driver:          DriverPostgres,
		Host:            "localhost",
		Port:            5432,
		User:            "clientdesk",
		Password:        "dev",
		Database:        "clientdesk",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}
