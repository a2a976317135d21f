package cmd

import (
	"fmt"
	"os"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/internal/iocache"
	"github.com/oedokumaci/catalogsync/internal/outwriter"
	"github.com/oedokumaci/catalogsync/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsSetup loads minimal configuration needed for run tracking operations.
func runsSetup() error {
	if err := runsMigrateSetup(); err != nil {
		return err
	}

	// Initialize stores with the loaded config (no snapshot cache for runs commands)
	if err := iocache.InitStores(schema.NoneBackend, "", cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize run tracking: %w", err)
	}
	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetup reads the run tracking settings without creating any table,
// allowing migrations to run on a fresh database.
func runsMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr := viper.GetString("runs-backend"); backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	connStr := viper.GetString("runs-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Output = schema.OutputMode(viper.GetString("output"))
	cfg.Width = viper.GetInt("width")
	cfg.UseColors, _ = contract.ParseBoolString(viper.GetString("color"))
	return nil
}

// runsMigrateSetupWrapper wraps runsMigrateSetup to provide PreRunE for migrate command.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsMigrateSetup()
}

// runsCmd focused on sync run history.
//
// Note: Runs subcommands use minimal initialization (runsSetup) instead of
// the full sharedSetup used by the sync commands.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage sync run history and exports",
	Long: `Manage the history of fetch cycles.

When --runs-backend is set, every fetch cycle is recorded with:
- Start and end time, duration
- Outcome (success, domain_error, failure, progress_violation)
- Pages and entries fetched
- Error message and the controller settings

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run tracking statistics
  list    - Print every recorded run
  export  - Export runs to Parquet for analytics
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  # Record runs in SQLite while watching
  catalogsync watch --source catalog.yaml --runs-backend sqlite

  # Check tracking status
  catalogsync runs status --runs-backend sqlite`,
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all sync run history",
	Long: `Delete all recorded sync runs.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  catalogsync runs export --runs-backend sqlite --output-file runs.parquet
  catalogsync runs clear --runs-backend sqlite`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearRuns(cfg.RunsBackend, sqliteFilePath(cfg.RunsDBConnect, contract.GetRunsDBFilePath()), cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// runsStatusCmd shows run tracking status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show detailed information about sync run tracking.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Number of runs per outcome

Examples:
  # Check run tracking status
  catalogsync runs status --runs-backend sqlite`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := cacheManager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsListCmd prints the run history.
var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every recorded sync run",
	Long: `Print the recorded sync runs, oldest first, in the configured output format.

Examples:
  # Table of runs
  catalogsync runs list --runs-backend sqlite

  # Runs as CSV
  catalogsync runs list --runs-backend sqlite --output csv`,
	PreRunE: runsSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		runs, err := cacheManager.GetRunStore().GetAllRuns()
		if err != nil {
			return fmt.Errorf("failed to retrieve sync runs: %w", err)
		}
		return outwriter.NewOutWriter().WriteRuns(runs, cfg)
	},
}

// runsExportCmd exports run history to Parquet.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sync run history to Parquet for analytics",
	Long: `Export all recorded sync runs to a Parquet file.

Requires: --output-file parameter

Examples:
  # Export all runs
  catalogsync runs export --runs-backend sqlite --output-file runs.parquet

  # Use with DuckDB for analysis
  duckdb -c "SELECT outcome, avg(run_duration_ms) FROM read_parquet('runs.parquet') GROUP BY 1"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteRunsExport(cacheManager, cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations for run tracking (upgrades/downgrades)",
	Long: `Manage database schema versions for the sync run store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  catalogsync runs migrate --runs-backend sqlite

  # Migrate to specific version
  catalogsync runs migrate --runs-backend sqlite --target-version 1`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion, _ := cmd.Flags().GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
