package cmd

import (
	"os"

	"github.com/oedokumaci/catalogsync/internal/iocache"
	"github.com/spf13/cobra"
)

// exportCmd exports the cached snapshot to Parquet.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the cached snapshot to Parquet for analytics",
	Long: `Write every entry of the cached snapshot to a Parquet file with the columns
id, key_path, depth, namespace, payload and fetched_at.

Requires: --output-file parameter

Examples:
  # Export the snapshot
  catalogsync export --output-file catalog.parquet

  # Query it with DuckDB
  duckdb -c "SELECT namespace, count(*) FROM read_parquet('catalog.parquet') GROUP BY 1"`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return iocache.ExecuteSnapshotExport(rootCtx, cacheManager, cfg.CacheKey(), cfg.CacheSchemaVersion, cfg.OutputFile, os.Stdout)
	},
}
