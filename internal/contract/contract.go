// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/oedokumaci/catalogsync/schema"
)

// PageFetcher returns the page that starts at cursor.
// A nil cursor means "from the beginning". Transport failures are returned as errors;
// failures reported by the data source itself travel in PageResult.Error.
type PageFetcher func(ctx context.Context, cursor schema.Cursor) (schema.PageResult, error)

// ScopeFetcher returns every entry of a selection scope in one request.
type ScopeFetcher func(ctx context.Context, scope schema.Scope) ([]schema.Entry, error)

// CatalogSource is a remote catalog that serves both the paginated and the scoped query.
type CatalogSource interface {
	// FetchPage returns one page of the full catalog.
	FetchPage(ctx context.Context, cursor schema.Cursor) (schema.PageResult, error)

	// FetchScope returns every entry of a selection scope.
	FetchScope(ctx context.Context, scope schema.Scope) ([]schema.Entry, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetCacheStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for durable versioned byte storage.
// Get returns sql.ErrNoRows when the key is missing.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, int, int64, error)
	Set(ctx context.Context, key string, value []byte, version int, timestamp int64) error
	Delete(ctx context.Context, key string) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// SnapshotCache stores one snapshot per cache key, tagged with a schema version.
// A version mismatch or a missing record are indistinguishable to callers.
type SnapshotCache interface {
	Get(ctx context.Context, key string, version int) (schema.Snapshot, bool)
	Set(ctx context.Context, key string, value schema.Snapshot, version int) error
}

// RunStore defines the interface for tracking fetch cycles.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, cacheKey string, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, result schema.RunResult) error

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.SyncRunRecord, error)

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// Close closes the underlying connection
	Close() error
}
