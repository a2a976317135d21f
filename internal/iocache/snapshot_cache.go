package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
)

// SnapshotStore is the versioned snapshot cache on top of a byte store.
// One record is kept per key and every Set fully replaces it.
type SnapshotStore struct {
	store  contract.CacheStore
	logger *slog.Logger
	now    func() time.Time
}

var _ contract.SnapshotCache = &SnapshotStore{} // Compile-time check

// NewSnapshotStore wraps a byte store. A nil logger discards debug output.
func NewSnapshotStore(store contract.CacheStore, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	return &SnapshotStore{store: store, logger: logger, now: time.Now}
}

// Get returns the snapshot for key only if it was written with exactly version.
// Missing rows, version mismatches, decode failures and backend errors all read as a miss.
func (s *SnapshotStore) Get(ctx context.Context, key string, version int) (schema.Snapshot, bool) {
	if s.store == nil {
		return schema.Snapshot{}, false
	}

	data, storedVersion, _, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("snapshot cache read failed", "key", key, "error", err)
		}
		return schema.Snapshot{}, false
	}
	if storedVersion != version {
		s.logger.Debug("snapshot cache version mismatch", "key", key, "stored", storedVersion, "wanted", version)
		return schema.Snapshot{}, false
	}

	var snap schema.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Debug("snapshot cache decode failed", "key", key, "error", err)
		return schema.Snapshot{}, false
	}
	return snap, true
}

// Set writes value under key with the given version.
// Callers treat the returned error as best-effort.
func (s *SnapshotStore) Set(ctx context.Context, key string, value schema.Snapshot, version int) error {
	if s.store == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, data, version, s.now().Unix())
}

// Slot describes what is stored under key relative to the requested version.
func (s *SnapshotStore) Slot(ctx context.Context, key string, version int) (schema.SlotStatus, error) {
	status := schema.SlotStatus{Key: key}
	if s.store == nil {
		return status, nil
	}

	data, storedVersion, ts, err := s.store.Get(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return status, nil
	}
	if err != nil {
		return status, err
	}

	status.Present = true
	status.Version = storedVersion
	status.Current = storedVersion == version
	status.WrittenAt = time.Unix(ts, 0)

	var snap schema.Snapshot
	if err := json.Unmarshal(data, &snap); err == nil {
		status.Entries = snap.Len()
		status.Fingerprint = snap.Fingerprint
	}
	return status, nil
}

// Invalidate drops the record for key.
func (s *SnapshotStore) Invalidate(ctx context.Context, key string) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, key)
}
