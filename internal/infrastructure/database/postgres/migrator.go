package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // Postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // File source driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// newMigrate opens a migrate instance. An empty migrationsPath uses the
// schema compiled into the binary; otherwise it is a source URL such as
// "file://migrations".
func newMigrate(dbURL, migrationsPath string) (*migrate.Migrate, error) {
	if migrationsPath == "" {
		src, err := iofs.New(embeddedMigrations, "migrations")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
		}
		m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
		return m, nil
	}
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// RunMigrations: apply all pending migrations
// ─────────────────────────────────────────────────────────────────────────────

// RunMigrations applies all pending migrations. No pending migrations is not
// an error.
func RunMigrations(dbURL string, migrationsPath string) error {
	m, err := newMigrate(dbURL, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Migrate applies pending migrations against the database c was opened on.
func (c *Connection) Migrate() error {
	if err := RunMigrations(c.cfg.DSN(), c.cfg.MigrationsPath); err != nil {
		return err
	}
	version, _, err := MigrationStatus(c.cfg.DSN(), c.cfg.MigrationsPath)
	if err == nil {
		c.logger.Info("database schema up to date", logging.Int64("version", int64(version)))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// RollbackMigration: rollback migrations by specified steps
// ─────────────────────────────────────────────────────────────────────────────

// RollbackMigration rolls the schema back by steps migrations.
func RollbackMigration(dbURL string, migrationsPath string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}

	m, err := newMigrate(dbURL, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MigrationStatus: query current migration state
// ─────────────────────────────────────────────────────────────────────────────

// MigrationStatus returns the applied version and whether a previous run
// left the schema dirty. An empty database reports version 0.
func MigrationStatus(dbURL string, migrationsPath string) (version uint, dirty bool, err error) {
	m, err := newMigrate(dbURL, migrationsPath)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ForceMigrationVersion: manually set migration version (dangerous)
// ─────────────────────────────────────────────────────────────────────────────

// ForceMigrationVersion sets the recorded version without running anything.
// Use it only to recover from a dirty state after fixing the schema by hand.
func ForceMigrationVersion(dbURL string, migrationsPath string, version int) error {
	m, err := newMigrate(dbURL, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

//Personal.AI order the ending
