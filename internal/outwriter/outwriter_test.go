package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleListing() schema.Listing {
	return schema.Listing{
		Prefix: []string{"raw"},
		View:   schema.DirectoryView,
		Rows: []schema.ListingRow{
			{Kind: schema.FolderRow, Path: []string{"raw", "events"}, Count: 12},
			{Kind: schema.EntryRow, Path: []string{"raw", "users"}, ID: "u1"},
		},
		Total:       13,
		FetchedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Fingerprint: 0xabc,
	}
}

func sampleSnapshot() schema.Snapshot {
	return schema.NewSnapshot([]schema.Entry{
		{ID: "u1", Key: []string{"raw", "users"}},
		{ID: "m1", Key: []string{"marts", "revenue"}},
	}, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestWriteListingTable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ow := NewOutWriterTo(&stdout, &stderr)

	err := ow.WriteListing(sampleSnapshot(), sampleListing(), &contract.Config{Width: 120})
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "raw/events")
	assert.Contains(t, out, "raw/users")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "Showing 2 rows under /raw (13 entries, directory view)")
	assert.Contains(t, out, "fingerprint 0000000000000abc")
	assert.Empty(t, stderr.String())
}

func TestWriteListingJSON(t *testing.T) {
	var stdout bytes.Buffer
	ow := NewOutWriterTo(&stdout, &bytes.Buffer{})

	require.NoError(t, ow.WriteListing(sampleSnapshot(), sampleListing(), &contract.Config{Output: schema.JSONOut}))

	var got schema.Listing
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, sampleListing().Rows, got.Rows)
	assert.Equal(t, 13, got.Total)
}

func TestWriteListingCSV(t *testing.T) {
	var stdout bytes.Buffer
	ow := NewOutWriterTo(&stdout, &bytes.Buffer{})

	require.NoError(t, ow.WriteListing(sampleSnapshot(), sampleListing(), &contract.Config{Output: schema.CSVOut}))

	records, err := csv.NewReader(&stdout).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"row", "kind", "path", "id", "count"}, records[0])
	assert.Equal(t, []string{"1", "folder", "raw/events", "", "12"}, records[1])
	assert.Equal(t, []string{"2", "entry", "raw/users", "u1", "0"}, records[2])
}

func TestWriteListingToFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ow := NewOutWriterTo(&stdout, &stderr)
	out := filepath.Join(t.TempDir(), "listing.json")

	require.NoError(t, ow.WriteListing(sampleSnapshot(), sampleListing(), &contract.Config{Output: schema.JSONOut, OutputFile: out}))

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Wrote JSON to "+out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"raw"`)
}

func TestWriteListingParquet(t *testing.T) {
	var stderr bytes.Buffer
	ow := NewOutWriterTo(&bytes.Buffer{}, &stderr)
	out := filepath.Join(t.TempDir(), "listing.parquet")

	require.NoError(t, ow.WriteListing(sampleSnapshot(), sampleListing(), &contract.Config{Output: schema.ParquetOut, OutputFile: out}))
	assert.Contains(t, stderr.String(), "Wrote Parquet")

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteListingReportsCatalogError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ow := NewOutWriterTo(&stdout, &stderr)
	listing := sampleListing()
	listing.Error = &schema.DomainError{TypeName: schema.PythonErrorType, Message: "resolver failed", Stack: []string{"repo.py:10"}}

	require.NoError(t, ow.WriteListing(sampleSnapshot(), listing, &contract.Config{Width: 120}))
	assert.Contains(t, stderr.String(), "resolver failed")
	assert.Contains(t, stderr.String(), "repo.py:10")
	assert.Contains(t, stdout.String(), "raw/users", "data stays visible next to the error")
}

func TestWriteListingFlatTable(t *testing.T) {
	var stdout bytes.Buffer
	ow := NewOutWriterTo(&stdout, &bytes.Buffer{})
	listing := schema.Listing{
		View: schema.FlatView,
		Rows: []schema.ListingRow{{Kind: schema.EntryRow, Path: []string{"a", "b", "c"}, ID: "id-1"}},
	}

	require.NoError(t, ow.WriteListing(schema.Snapshot{}, listing, &contract.Config{Width: 120, View: schema.FlatView}))
	out := stdout.String()
	assert.Contains(t, out, "a/b/c")
	assert.Contains(t, out, "id-1")
	assert.Contains(t, out, "Showing 1 rows under / (0 entries, flat view)")
	assert.NotContains(t, out, "Snapshot fetched at")
}

func TestGetMaxTablePathWidth(t *testing.T) {
	assert.Equal(t, 15, GetMaxTablePathWidth(&contract.Config{Width: 20}))
	assert.Equal(t, 80, GetMaxTablePathWidth(&contract.Config{Width: 120}))
	assert.Equal(t, 60, GetMaxTablePathWidth(&contract.Config{Width: 120, View: schema.FlatView}))
	assert.Equal(t, 90, GetMaxTablePathWidth(&contract.Config{Width: 500}))
}

func sampleRuns() []schema.SyncRunRecord {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Second)
	duration := int32(2000)
	success := string(schema.OutcomeSuccess)
	msg := "dial tcp: connection refused"
	failure := string(schema.OutcomeFailure)
	return []schema.SyncRunRecord{
		{RunID: 1, CacheKey: "local/allAssetNodes", StartTime: start, EndTime: &end, RunDurationMs: &duration, Outcome: &success, EntryCount: 42, PageCount: 1},
		{RunID: 2, CacheKey: "local/allAssetNodes", StartTime: start.Add(time.Minute), Outcome: &failure, ErrorMessage: &msg},
		{RunID: 3, CacheKey: "local/allAssetNodes", StartTime: start.Add(2 * time.Minute)},
	}
}

func TestWriteRunsTable(t *testing.T) {
	var stdout bytes.Buffer
	ow := NewOutWriterTo(&stdout, &bytes.Buffer{})

	require.NoError(t, ow.WriteRuns(sampleRuns(), &contract.Config{}))
	out := stdout.String()
	assert.Contains(t, out, "2s")
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "Showing 3 sync runs")
}

func TestWriteRunsCSV(t *testing.T) {
	var stdout bytes.Buffer
	ow := NewOutWriterTo(&stdout, &bytes.Buffer{})

	require.NoError(t, ow.WriteRuns(sampleRuns(), &contract.Config{Output: schema.CSVOut}))
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "run_id,cache_key"))
	assert.Equal(t, "1,local/allAssetNodes,2026-03-01T12:00:00Z,2026-03-01T12:00:02Z,2000,success,42,1,", lines[1])
	assert.Contains(t, lines[2], "connection refused")
}

func TestWriteRunsJSON(t *testing.T) {
	var stdout bytes.Buffer
	ow := NewOutWriterTo(&stdout, &bytes.Buffer{})

	require.NoError(t, ow.WriteRuns(sampleRuns(), &contract.Config{Output: schema.JSONOut}))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, float64(42), got[0]["EntryCount"])
}
