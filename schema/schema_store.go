package schema

import "time"

// SyncRunRecord represents a row from the catalogsync_runs table.
type SyncRunRecord struct {
	RunID         int64
	CacheKey      string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	Outcome       *string
	EntryCount    int32
	PageCount     int32
	ErrorMessage  *string
	ConfigParams  *string
}

// RunResult is what a finished fetch cycle reports to the run store.
type RunResult struct {
	Outcome  RunOutcome
	Entries  int
	Pages    int
	ErrorMsg string
}
