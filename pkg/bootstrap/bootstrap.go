// Package bootstrap wires the process-level dependencies: logging,
// the database pool, schema migrations and the optional redis client.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pharmakit/storefront/pkg/logger"
)

// NewLogger creates a new slog.Logger instance with the specified log level.
// Records are enriched with request and trace IDs taken from the context.
func NewLogger(level string) *slog.Logger {
	logLevel := toLevel(level)
	loggerOpts := &slog.HandlerOptions{
		AddSource: logLevel == slog.LevelDebug,
		Level:     logLevel,
	}
	logHandler := logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, loggerOpts))
	return slog.New(logHandler)
}

// NewDbPool creates a new database connection pool with the provided context and configuration,
func NewDbPool(ctx context.Context, url string, connectTimeout time.Duration) (*pgxpool.Pool, error) {
	// Create context with timeout for database connection
	poolCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	dbPool, errPool := pgxpool.New(poolCtx, url)
	if errPool != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", errPool)
	}
	// Ping the database to ensure the connection is established (fail early if not)
	if err := dbPool.Ping(poolCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbPool, nil
}

// MigrateUp applies all pending schema migrations from the given filesystem.
// A no-op when the schema is already current.
func MigrateUp(url string, migrations fs.FS) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// NewRedisClient creates a redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// toLevel converts a string representation of a log level to slog.Level.
func toLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
