package iocache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/internal/parquet"
)

// ExecuteSnapshotExport writes the cached snapshot stored under key to a Parquet file.
func ExecuteSnapshotExport(ctx context.Context, mgr contract.CacheManager, key string, version int, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := mgr.GetCacheStore()
	if store == nil {
		return errors.New("snapshot cache is not initialized")
	}

	snap, ok := NewSnapshotStore(store, nil).Get(ctx, key, version)
	if !ok {
		return fmt.Errorf("no cached snapshot for %s at version %d; run sync first", key, version)
	}

	rows := parquet.ConvertSnapshot(snap)
	if err := parquet.WriteCatalogEntriesParquet(rows, outputFile); err != nil {
		return fmt.Errorf("failed to write catalog entries: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d entries of %s (fetched %s) to: %s\n",
		len(rows), key, snap.FetchedAt.Format("2006-01-02 15:04:05"), outputFile)
	return nil
}

// ExecuteRunsExport writes every recorded sync run to a Parquet file.
func ExecuteRunsExport(mgr contract.CacheManager, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := mgr.GetRunStore()
	if store == nil {
		return errors.New("run tracking is disabled; set --runs-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no sync runs found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total sync runs: %d\n", status.TotalRuns)

	records, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve sync runs: %w", err)
	}

	rows := parquet.ConvertSyncRunRecords(records)
	if err := parquet.WriteSyncRunsParquet(rows, outputFile); err != nil {
		return fmt.Errorf("failed to write sync runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d sync runs to: %s\n", len(rows), outputFile)
	return nil
}
