// Package parquet provides row types and writers for exporting catalog snapshots
// and sync run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oedokumaci/catalogsync/schema"
	"github.com/parquet-go/parquet-go"
)

// SyncRun is one fetch cycle. It maps to the catalogsync_runs table.
type SyncRun struct {
	RunID         int64      `parquet:"run_id,snappy"`
	CacheKey      string     `parquet:"cache_key,snappy,dict"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	Outcome       *string    `parquet:"outcome,optional,snappy,dict"`
	EntryCount    int32      `parquet:"entry_count,snappy"`
	PageCount     int32      `parquet:"page_count,snappy"`
	ErrorMessage  *string    `parquet:"error_message,optional,snappy"`
	ConfigParams  *string    `parquet:"config_params,optional,snappy"`
}

// CatalogEntry is one entry of an exported snapshot.
type CatalogEntry struct {
	ID        string    `parquet:"id,snappy"`
	KeyPath   []string  `parquet:"key_path,snappy"`
	Depth     int32     `parquet:"depth,snappy"`
	Namespace string    `parquet:"namespace,snappy,dict"` // first key segment
	Payload   *string   `parquet:"payload,optional,snappy"`
	FetchedAt time.Time `parquet:"fetched_at,snappy"`
}

// write creates outputPath and writes all rows using the schema inferred from T.
func write[T any](data []T, outputPath string) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteSyncRunsParquet writes run records to a Parquet file.
func WriteSyncRunsParquet(data []SyncRun, outputPath string) error {
	return write(data, outputPath)
}

// WriteCatalogEntriesParquet writes snapshot entries to a Parquet file.
func WriteCatalogEntriesParquet(data []CatalogEntry, outputPath string) error {
	return write(data, outputPath)
}

// ConvertSyncRunRecords converts stored run records to Parquet rows.
func ConvertSyncRunRecords(records []schema.SyncRunRecord) []SyncRun {
	result := make([]SyncRun, len(records))
	for i, record := range records {
		result[i] = SyncRun{
			RunID:         record.RunID,
			CacheKey:      record.CacheKey,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			Outcome:       record.Outcome,
			EntryCount:    record.EntryCount,
			PageCount:     record.PageCount,
			ErrorMessage:  record.ErrorMessage,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertSnapshot converts a snapshot to Parquet rows, keeping entry order.
func ConvertSnapshot(snap schema.Snapshot) []CatalogEntry {
	result := make([]CatalogEntry, len(snap.Entries))
	for i, e := range snap.Entries {
		row := CatalogEntry{
			ID:        e.ID,
			KeyPath:   e.Key,
			Depth:     int32(e.Depth()),
			FetchedAt: snap.FetchedAt,
		}
		if len(e.Key) > 0 {
			row.Namespace = e.Key[0]
		}
		if len(e.Payload) > 0 {
			payload := strings.TrimSpace(string(e.Payload))
			row.Payload = &payload
		}
		result[i] = row
	}
	return result
}
