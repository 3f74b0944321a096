// internal/adapters/db/migrations.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// MigrationConfig selects where migrations come from. An empty SourcePath
// uses the migrations compiled into the binary.
type MigrationConfig struct {
	DatabaseURL      string
	SourcePath       string
	TableName        string
	SchemaName       string
	StatementTimeout time.Duration
}

// Migrator applies the items and stock_movements schema
type Migrator struct {
	migrate *migrate.Migrate
	logger  *slog.Logger
	db      *sql.DB
}

func NewMigrator(config *MigrationConfig, logger *slog.Logger) (*Migrator, error) {
	if config == nil {
		return nil, errors.New("migration config is required")
	}
	pgConfig := &postgres.Config{
		MigrationsTable:  orDefault(config.TableName, "schema_migrations"),
		SchemaName:       orDefault(config.SchemaName, "public"),
		StatementTimeout: config.StatementTimeout,
	}
	if pgConfig.StatementTimeout == 0 {
		pgConfig.StatementTimeout = 10 * time.Minute
	}

	conn, err := sql.Open("pgx", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(2)

	m, err := newMigrate(conn, config.SourcePath, pgConfig)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Migrator{migrate: m, logger: logger, db: conn}, nil
}

func newMigrate(conn *sql.DB, sourcePath string, pgConfig *postgres.Config) (*migrate.Migrate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := postgres.WithInstance(conn, pgConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	if sourcePath != "" {
		m, err := migrate.NewWithDatabaseInstance("file://"+sourcePath, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to load migrations from %s: %w", sourcePath, err)
		}
		return m, nil
	}

	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// Up applies every pending migration
func (m *Migrator) Up(ctx context.Context) error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.InfoContext(ctx, "schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if v, _, err := m.migrate.Version(); err == nil {
		m.logger.InfoContext(ctx, "migrations applied", slog.Uint64("version", uint64(v)))
	}
	return nil
}

// Version reports the applied version. A fresh database is version 0.
func (m *Migrator) Version(_ context.Context) (uint, bool, error) {
	v, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return v, dirty, nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr, m.db.Close())
}

// RunMigrationsWithRetry runs Up, backing off linearly while the database
// comes up.
func RunMigrationsWithRetry(ctx context.Context, config *MigrationConfig, logger *slog.Logger, maxRetries int) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * 2 * time.Second
			logger.InfoContext(ctx, "retrying migration",
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		lastErr = runOnce(ctx, config, logger)
		if lastErr == nil {
			return nil
		}
		logger.ErrorContext(ctx, "migration attempt failed",
			"err", lastErr,
			slog.Int("attempt", attempt))
	}
	return fmt.Errorf("migrations failed after %d attempts: %w", maxRetries, lastErr)
}

func runOnce(ctx context.Context, config *MigrationConfig, logger *slog.Logger) error {
	m, err := NewMigrator(config, logger)
	if err != nil {
		return err
	}
	return errors.Join(m.Up(ctx), m.Close())
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
