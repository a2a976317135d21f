package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// SlotStatus describes the snapshot stored under one cache key.
type SlotStatus struct {
	Key         string    `json:"key"`
	Present     bool      `json:"present"`
	Version     int       `json:"version"`
	Current     bool      `json:"current"` // stored version equals the requested version
	Entries     int       `json:"entries"`
	Fingerprint uint64    `json:"fingerprint"`
	WrittenAt   time.Time `json:"written_at"`
}

// RunStatus represents the status of the sync run store.
type RunStatus struct {
	Backend       string               `json:"backend"`
	Connected     bool                 `json:"connected"`
	TotalRuns     int                  `json:"total_runs"`
	LastRunID     int64                `json:"last_run_id"`
	LastRunTime   time.Time            `json:"last_run_time"`
	OldestRunTime time.Time            `json:"oldest_run_time"`
	Outcomes      map[RunOutcome]int64 `json:"outcomes"`
}
