package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
)

// runsTable is the name of the table for sync run tracking.
const runsTable = "catalogsync_runs"

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateRunsQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", runsTable, err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// getCreateRunsQuery returns the CREATE TABLE query for catalogsync_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				cache_key VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				outcome VARCHAR(32),
				entry_count INT NOT NULL DEFAULT 0,
				page_count INT NOT NULL DEFAULT 0,
				error_message TEXT,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				cache_key TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				outcome TEXT,
				entry_count INT NOT NULL DEFAULT 0,
				page_count INT NOT NULL DEFAULT 0,
				error_message TEXT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				cache_key TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				outcome TEXT,
				entry_count INTEGER NOT NULL DEFAULT 0,
				page_count INTEGER NOT NULL DEFAULT 0,
				error_message TEXT,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, cacheKey string, configParams map[string]any) (int64, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (cache_key, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, cacheKey, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (cache_key, start_time, config_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, cacheKey, formatTime(startTime, rs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert sync run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, result schema.RunResult) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	selectQuery := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(rs.backend, 1))
	row := rs.db.QueryRow(selectQuery, runID)

	var startTime time.Time
	switch rs.backend {
	case schema.SQLiteBackend:
		var startTimeStr string
		if err := row.Scan(&startTimeStr); err != nil {
			return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
		}
		var err error
		if startTime, err = parseTime(startTimeStr); err != nil {
			return fmt.Errorf("failed to parse start_time: %w", err)
		}
	default: // MySQL and PostgreSQL store as native datetime
		if err := row.Scan(&startTime); err != nil {
			return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
		}
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	var errMsg any
	if result.ErrorMsg != "" {
		errMsg = result.ErrorMsg
	}

	var updateQuery string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, outcome = $3, entry_count = $4, page_count = $5, error_message = $6 WHERE run_id = $7`, quotedTableName)
	default: // SQLite and MySQL
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, outcome = ?, entry_count = ?, page_count = ?, error_message = ? WHERE run_id = ?`, quotedTableName)
	}

	args := []any{formatTime(endTime, rs.backend), durationMs, string(result.Outcome), result.Entries, result.Pages, errMsg, runID}
	if _, err := rs.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:   string(rs.backend),
		Connected: rs.db != nil,
		Outcomes:  make(map[schema.RunOutcome]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	if status.TotalRuns == 0 {
		return status, nil
	}

	lastRunQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedTableName)
	var lastStart scannedTime
	if err := rs.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, &lastStart); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	status.LastRunTime = lastStart.Time

	oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedTableName)
	var oldestStart scannedTime
	if err := rs.db.QueryRow(oldestRunQuery).Scan(&oldestStart); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.OldestRunTime = oldestStart.Time

	outcomeQuery := fmt.Sprintf("SELECT outcome, COUNT(*) FROM %s WHERE outcome IS NOT NULL GROUP BY outcome", quotedTableName)
	rows, err := rs.db.Query(outcomeQuery)
	if err != nil {
		return status, fmt.Errorf("failed to count outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return status, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		status.Outcomes[schema.RunOutcome(outcome)] = count
	}
	return status, rows.Err()
}

// GetAllRuns retrieves all sync runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.SyncRunRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	query := fmt.Sprintf(`SELECT run_id, cache_key, start_time, end_time, run_duration_ms, outcome,
		entry_count, page_count, error_message, config_params FROM %s ORDER BY run_id`, quotedTableName)

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SyncRunRecord
	for rows.Next() {
		var record schema.SyncRunRecord
		var start scannedTime
		var end nullScannedTime
		if err := rows.Scan(&record.RunID, &record.CacheKey, &start, &end, &record.RunDurationMs, &record.Outcome,
			&record.EntryCount, &record.PageCount, &record.ErrorMessage, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		record.StartTime = start.Time
		if end.Valid {
			endTime := end.Time
			record.EndTime = &endTime
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}
	return results, nil
}

// scannedTime scans either a native datetime or an RFC3339 string (SQLite).
type scannedTime struct {
	time.Time
}

// Scan implements sql.Scanner.
func (st *scannedTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		st.Time = v
	case string:
		t, err := parseTime(v)
		if err != nil {
			return err
		}
		st.Time = t
	case []byte:
		t, err := parseTime(string(v))
		if err != nil {
			return err
		}
		st.Time = t
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
	return nil
}

// nullScannedTime is the nullable variant of scannedTime.
type nullScannedTime struct {
	scannedTime
	Valid bool
}

// Scan implements sql.Scanner.
func (nt *nullScannedTime) Scan(src any) error {
	if src == nil {
		nt.Valid = false
		return nil
	}
	nt.Valid = true
	return nt.scannedTime.Scan(src)
}
