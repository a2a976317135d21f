package iocache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/oedokumaci/catalogsync/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// Migration sets, each tracked in its own version table.
const (
	cacheMigrations = "cache"
	runsMigrations  = "runs"
)

// MigrateCache runs database migrations for the snapshot cache.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations (to initial state).
// - If targetVersion > 0, it migrates to the specified version.
func MigrateCache(backend schema.DatabaseBackend, connStr string, targetVersion int, w io.Writer) error {
	return runMigrations(cacheMigrations, backend, connStr, GetCacheDBFilePath(), targetVersion, w)
}

// MigrateRuns runs database migrations for the sync run store.
// Version semantics are the same as MigrateCache.
func MigrateRuns(backend schema.DatabaseBackend, connStr string, targetVersion int, w io.Writer) error {
	return runMigrations(runsMigrations, backend, connStr, GetRunsDBFilePath(), targetVersion, w)
}

// runMigrations applies one embedded migration set to the database behind connStr.
func runMigrations(set string, backend schema.DatabaseBackend, connStr, defaultPath string, targetVersion int, w io.Writer) error {
	if backend == schema.NoneBackend {
		return fmt.Errorf("migrations are not supported for NoneBackend")
	}

	db, err := openDatabase(backend, connStr, defaultPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	driver, dir, err := migrationDriver(db, backend, set+"_schema_migrations")
	if err != nil {
		return err
	}

	migrationFS, err := fs.Sub(migrationsFS, "migrations/"+set+"/"+dir)
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "catalogsync", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate to latest version: %w", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			_, _ = fmt.Fprintf(w, "No %s migration needed. Database is already at the latest version.\n", set)
		} else {
			newVersion, _, _ := m.Version()
			_, _ = fmt.Fprintf(w, "Migrated %s schema from version %d to version %d\n", set, currentVersion, newVersion)
		}

	case targetVersion == 0:
		err = m.Down()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back to version 0: %w", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			_, _ = fmt.Fprintf(w, "No %s migration needed. Database is already at version 0\n", set)
		} else {
			_, _ = fmt.Fprintf(w, "Rolled back %s schema from version %d to version 0\n", set, currentVersion)
		}

	default:
		err = m.Migrate(uint(targetVersion))
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate to version %d: %w", targetVersion, err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			_, _ = fmt.Fprintf(w, "No %s migration needed. Database is already at version %d\n", set, targetVersion)
		} else {
			_, _ = fmt.Fprintf(w, "Migrated %s schema from version %d to version %d\n", set, currentVersion, targetVersion)
		}
	}

	return nil
}

// migrationDriver wraps db in the migrate driver for backend and names its migrations directory.
func migrationDriver(db *sql.DB, backend schema.DatabaseBackend, table string) (database.Driver, string, error) {
	switch backend {
	case schema.SQLiteBackend:
		driver, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: table})
		if err != nil {
			return nil, "", fmt.Errorf("failed to create SQLite migrate driver: %w", err)
		}
		return driver, "sqlite", nil

	case schema.MySQLBackend:
		driver, err := mysql.WithInstance(db, &mysql.Config{MigrationsTable: table})
		if err != nil {
			return nil, "", fmt.Errorf("failed to create MySQL migrate driver: %w", err)
		}
		return driver, "mysql", nil

	case schema.PostgreSQLBackend:
		driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
		if err != nil {
			return nil, "", fmt.Errorf("failed to create PostgreSQL migrate driver: %w", err)
		}
		return driver, "postgres", nil
	}
	return nil, "", fmt.Errorf("unsupported backend: %s", backend)
}
