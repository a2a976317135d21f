package iocache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/oedokumaci/catalogsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSnapshot() schema.Snapshot {
	return schema.NewSnapshot([]schema.Entry{
		{ID: "1", Key: []string{"a", "b"}, Payload: json.RawMessage(`{"kind":"table"}`)},
		{ID: "2", Key: []string{"d"}},
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestSnapshotStore_VersionIsolation(t *testing.T) {
	ctx := context.Background()
	store, err := NewCacheStore(snapshotTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	cache := NewSnapshotStore(store, nil)
	snap := newTestSnapshot()

	require.NoError(t, cache.Set(ctx, "local/allAssetNodes", snap, 1))

	_, ok := cache.Get(ctx, "local/allAssetNodes", 2)
	assert.False(t, ok, "a different version reads as absent")

	got, ok := cache.Get(ctx, "local/allAssetNodes", 1)
	require.True(t, ok)
	assert.Equal(t, snap.Entries, got.Entries)
	assert.Equal(t, snap.Fingerprint, got.Fingerprint)
	assert.True(t, snap.FetchedAt.Equal(got.FetchedAt))

	_, ok = cache.Get(ctx, "other/allAssetNodes", 1)
	assert.False(t, ok, "keys are independent")
}

func TestSnapshotStore_OverwriteReplaces(t *testing.T) {
	ctx := context.Background()
	store, err := NewCacheStore(snapshotTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	cache := NewSnapshotStore(store, nil)
	require.NoError(t, cache.Set(ctx, "k", newTestSnapshot(), 1))

	replacement := schema.NewSnapshot([]schema.Entry{{ID: "9", Key: []string{"z"}}}, time.Now())
	require.NoError(t, cache.Set(ctx, "k", replacement, 2))

	_, ok := cache.Get(ctx, "k", 1)
	assert.False(t, ok, "old version is gone")

	got, ok := cache.Get(ctx, "k", 2)
	require.True(t, ok)
	assert.Equal(t, replacement.Entries, got.Entries)
}

func TestSnapshotStore_FailuresReadAsMiss(t *testing.T) {
	ctx := context.Background()

	t.Run("backend error", func(t *testing.T) {
		mockStore := &MockCacheStore{}
		mockStore.On("Get", mock.Anything, "k").Return(nil, 0, int64(0), errors.New("connection reset"))

		_, ok := NewSnapshotStore(mockStore, nil).Get(ctx, "k", 1)
		assert.False(t, ok)
		mockStore.AssertExpectations(t)
	})

	t.Run("garbled payload", func(t *testing.T) {
		mockStore := &MockCacheStore{}
		mockStore.On("Get", mock.Anything, "k").Return([]byte("{not json"), 1, int64(10), nil)

		_, ok := NewSnapshotStore(mockStore, nil).Get(ctx, "k", 1)
		assert.False(t, ok)
	})

	t.Run("nil store", func(t *testing.T) {
		cache := NewSnapshotStore(nil, nil)
		_, ok := cache.Get(ctx, "k", 1)
		assert.False(t, ok)
		assert.NoError(t, cache.Set(ctx, "k", newTestSnapshot(), 1))
	})
}

func TestSnapshotStore_SetPropagatesError(t *testing.T) {
	mockStore := &MockCacheStore{}
	mockStore.On("Set", mock.Anything, "k", mock.Anything, 3, int64(1700000000)).Return(errors.New("disk full"))

	cache := NewSnapshotStore(mockStore, nil)
	cache.now = func() time.Time { return time.Unix(1700000000, 0) }

	err := cache.Set(context.Background(), "k", newTestSnapshot(), 3)
	assert.EqualError(t, err, "disk full")
	mockStore.AssertExpectations(t)
}

func TestSnapshotStore_SlotAndInvalidate(t *testing.T) {
	ctx := context.Background()
	store, err := NewCacheStore(snapshotTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	cache := NewSnapshotStore(store, nil)

	slot, err := cache.Slot(ctx, "k", 1)
	require.NoError(t, err)
	assert.False(t, slot.Present)

	snap := newTestSnapshot()
	require.NoError(t, cache.Set(ctx, "k", snap, 1))

	slot, err = cache.Slot(ctx, "k", 2)
	require.NoError(t, err)
	assert.True(t, slot.Present)
	assert.False(t, slot.Current)
	assert.Equal(t, 1, slot.Version)
	assert.Equal(t, 2, slot.Entries)
	assert.Equal(t, snap.Fingerprint, slot.Fingerprint)

	require.NoError(t, cache.Invalidate(ctx, "k"))
	_, ok := cache.Get(ctx, "k", 1)
	assert.False(t, ok)
}
