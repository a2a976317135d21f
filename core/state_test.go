package core

import (
	"errors"
	"testing"
	"time"

	"github.com/oedokumaci/catalogsync/schema"
	"github.com/stretchr/testify/assert"
)

func snapshotOf(entries ...schema.Entry) *schema.Snapshot {
	s := schema.NewSnapshot(entries, time.Unix(1700000000, 0))
	return &s
}

func TestReduce(t *testing.T) {
	cached := snapshotOf(entry("1", "a"))
	fresh := snapshotOf(entry("1", "a"), entry("2", "b"))
	derr := &schema.DomainError{TypeName: schema.PythonErrorType, Message: "bad"}

	t.Run("initial state is loading", func(t *testing.T) {
		s := newState()
		assert.Equal(t, Idle, s.Phase)
		assert.True(t, s.Loading)
	})

	t.Run("cache hit fills an empty view", func(t *testing.T) {
		s := reduce(newState(), event{kind: evHydrateStart}, schema.SwallowErrors)
		assert.Equal(t, Hydrating, s.Phase)

		s = reduce(s, event{kind: evCacheHit, snapshot: cached}, schema.SwallowErrors)
		assert.Equal(t, Loaded, s.Phase)
		assert.Same(t, cached, s.Snapshot)
		assert.False(t, s.Loading)
	})

	t.Run("late cache hit never overwrites network data", func(t *testing.T) {
		s := reduce(newState(), event{kind: evHydrateStart}, schema.SwallowErrors)
		s = reduce(s, event{kind: evFetchSuccess, snapshot: fresh}, schema.SwallowErrors)
		s = reduce(s, event{kind: evCacheHit, snapshot: cached}, schema.SwallowErrors)
		assert.Same(t, fresh, s.Snapshot)
		assert.Equal(t, Loaded, s.Phase)
	})

	t.Run("hydrate miss returns to idle", func(t *testing.T) {
		s := reduce(newState(), event{kind: evHydrateStart}, schema.SwallowErrors)
		s = reduce(s, event{kind: evHydrateMiss}, schema.SwallowErrors)
		assert.Equal(t, Idle, s.Phase)
		assert.True(t, s.Loading)
	})

	t.Run("domain error keeps snapshot", func(t *testing.T) {
		s := reduce(newState(), event{kind: evFetchSuccess, snapshot: fresh}, schema.SwallowErrors)
		s = reduce(s, event{kind: evFetchDomainError, err: derr}, schema.SwallowErrors)
		assert.Equal(t, LoadedWithError, s.Phase)
		assert.Same(t, fresh, s.Snapshot)
		assert.Same(t, derr, s.Err)
		assert.False(t, s.Loading)
	})

	t.Run("domain error without snapshot stops loading", func(t *testing.T) {
		s := reduce(newState(), event{kind: evFetchDomainError, err: derr}, schema.SwallowErrors)
		assert.Nil(t, s.Snapshot)
		assert.False(t, s.Loading)
		assert.Equal(t, LoadedWithError, s.Phase)
	})

	t.Run("success clears error", func(t *testing.T) {
		s := reduce(newState(), event{kind: evFetchDomainError, err: derr}, schema.SwallowErrors)
		s = reduce(s, event{kind: evFetchSuccess, snapshot: fresh}, schema.SwallowErrors)
		assert.Nil(t, s.Err)
		assert.Equal(t, Loaded, s.Phase)
	})

	t.Run("cache hit after domain error keeps error", func(t *testing.T) {
		s := reduce(newState(), event{kind: evFetchDomainError, err: derr}, schema.SwallowErrors)
		s = reduce(s, event{kind: evCacheHit, snapshot: cached}, schema.SwallowErrors)
		assert.Same(t, cached, s.Snapshot)
		assert.Same(t, derr, s.Err)
		assert.Equal(t, LoadedWithError, s.Phase)
	})

	t.Run("failure is swallowed by default", func(t *testing.T) {
		before := reduce(newState(), event{kind: evFetchSuccess, snapshot: fresh}, schema.SwallowErrors)
		after := reduce(before, event{kind: evFetchFailure, err: errors.New("timeout")}, schema.SwallowErrors)
		assert.Equal(t, before, after)
	})

	t.Run("failure is surfaced as client error", func(t *testing.T) {
		s := reduce(newState(), event{kind: evFetchSuccess, snapshot: fresh}, schema.SurfaceErrors)
		s = reduce(s, event{kind: evFetchFailure, err: errors.New("timeout")}, schema.SurfaceErrors)
		assert.Equal(t, LoadedWithError, s.Phase)
		assert.Same(t, fresh, s.Snapshot)
		if assert.NotNil(t, s.Err) {
			assert.Equal(t, schema.ClientErrorType, s.Err.TypeName)
			assert.Equal(t, "timeout", s.Err.Message)
		}
	})
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "hydrating", Hydrating.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "loaded_with_error", LoadedWithError.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
