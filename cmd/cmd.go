// Package cmd defines the command-line interface for catalogsync.
package cmd

import (
	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("source", "", "Catalog source: http(s) endpoint or path to a YAML/JSON catalog file")
	rootCmd.PersistentFlags().String("source-timeout", contract.DefaultSourceTimeout.String(), "Timeout for one source request")
	rootCmd.PersistentFlags().Int("batch-limit", contract.DefaultBatchLimit, "Entries requested per page")
	rootCmd.PersistentFlags().String("refresh-interval", contract.DefaultRefreshInterval.String(), "Background refresh period for watch")
	rootCmd.PersistentFlags().Int("cache-schema-version", contract.DefaultCacheSchemaVersion, "Snapshot schema version; bump to ignore older cached snapshots")
	rootCmd.PersistentFlags().String("install-id", contract.DefaultInstallID, "Per-install cache namespace prefix")
	rootCmd.PersistentFlags().String("error-policy", string(schema.SwallowErrors), "Unclassified fetch errors: swallow or surface")
	rootCmd.PersistentFlags().Int("scope-memo-size", contract.DefaultScopeMemoSize, "Capacity of the scoped query memo")
	rootCmd.PersistentFlags().String("scope-group", "", "Scoped query: asset group name")
	rootCmd.PersistentFlags().String("scope-repository", "", "Scoped query: repository name")
	rootCmd.PersistentFlags().String("scope-location", "", "Scoped query: repository location name")
	rootCmd.PersistentFlags().String("view", string(schema.DirectoryView), "Listing view: flat or directory")
	rootCmd.PersistentFlags().StringP("prefix", "p", "", "Slash-separated key prefix to list below")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Sync run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Migrate flags are read straight from each command since both share a name
	cacheMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
}
