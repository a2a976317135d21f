package cmd

import (
	"fmt"
	"os"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/internal/iocache"
	"github.com/oedokumaci/catalogsync/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := cacheMigrateSetup(); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no run tracking for cache commands)
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheMigrateSetup reads the cache settings without creating any table,
// allowing migrations to run on a fresh database.
func cacheMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	cfg.InstallID = viper.GetString("install-id")
	cfg.CacheSchemaVersion = viper.GetInt("cache-schema-version")
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by the sync commands. This avoids source validation
// and complex config processing for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local catalog snapshot cache",
	Long: `Manage the durable cache that lets a new session show the catalog before the
first fetch completes.

One snapshot is stored per cache key (<install-id>/allAssetNodes) together with the
schema version it was written with. A snapshot written with another version reads as
a miss.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show cache statistics and the stored snapshot
  clear   - Remove all cached data
  migrate - Run database schema migrations

Examples:
  # Check cache status
  catalogsync cache status

  # Clear cache after changing the source
  catalogsync cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached snapshots",
	Long: `Delete all cached snapshots from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  catalogsync cache clear

  # Clear MySQL cache (set connection string via env variable)
  CATALOGSYNC_CACHE_BACKEND=mysql CATALOGSYNC_CACHE_DB_CONNECT="..." catalogsync cache clear`,
	PreRunE: cacheMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, sqliteFilePath(cfg.CacheDBConnect, contract.GetCacheDBFilePath()), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and the stored snapshot",
	Long: `Show detailed information about the snapshot cache.

Displays:
- Backend type and connection status
- Number of cached snapshots and their write times
- Cache database size
- For the configured install id: stored version, entry count and fingerprint

Examples:
  # Check cache status
  catalogsync cache status

  # Check whether a bumped schema version still has a usable snapshot
  catalogsync cache status --cache-schema-version 2`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := cacheManager.GetCacheStore()
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)

		slot, err := iocache.NewSnapshotStore(store, logger).Slot(rootCtx, cfg.CacheKey(), cfg.CacheSchemaVersion)
		if err != nil {
			contract.LogFatal("Failed to read snapshot slot", err)
		}
		iocache.PrintSlotStatus(os.Stdout, slot)
	},
}

// cacheMigrateCmd runs database migrations for the cache store.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations for the cache (upgrades/downgrades)",
	Long: `Manage database schema versions for the snapshot cache.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  catalogsync cache migrate

  # Rollback to initial state
  catalogsync cache migrate --target-version 0`,
	PreRunE: cacheMigrateSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion, _ := cmd.Flags().GetInt("target-version")
		if err := iocache.MigrateCache(cfg.CacheBackend, cfg.CacheDBConnect, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// cacheMigrateSetupWrapper wraps cacheMigrateSetup to provide PreRunE for cache commands.
func cacheMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheMigrateSetup()
}

// sqliteFilePath is the SQLite file behind connStr, or the default file when connStr is empty.
func sqliteFilePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}
