package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oedokumaci/catalogsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeMemo(t *testing.T) {
	memo, err := NewScopeMemo(2)
	require.NoError(t, err)

	a := schema.Scope{Group: "a"}
	b := schema.Scope{Group: "b"}
	c := schema.Scope{Group: "c"}
	fetch := func(_ context.Context, s schema.Scope) ([]schema.Entry, error) {
		return []schema.Entry{entry(s.Group, s.Group)}, nil
	}

	_, ok := memo.Get(a)
	assert.False(t, ok)

	for _, s := range []schema.Scope{a, b, c} {
		_, err := memo.Fetch(context.Background(), s, fetch)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, memo.Len())
	_, ok = memo.Get(a)
	assert.False(t, ok, "least recently used scope is evicted")
	got, ok := memo.Get(c)
	require.True(t, ok)
	assert.Equal(t, "c", got[0].ID)

	memo.Purge()
	assert.Equal(t, 0, memo.Len())
}

func TestScopeMemoFailureKeepsPreviousValue(t *testing.T) {
	memo, err := NewScopeMemo(0)
	require.NoError(t, err)
	scope := schema.Scope{Location: "loc"}

	_, err = memo.Fetch(context.Background(), scope, func(context.Context, schema.Scope) ([]schema.Entry, error) {
		return []schema.Entry{entry("1", "x")}, nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = memo.Fetch(context.Background(), scope, func(context.Context, schema.Scope) ([]schema.Entry, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	got, ok := memo.Get(scope)
	require.True(t, ok)
	assert.Equal(t, "1", got[0].ID)
}

func TestScopeMemoCollapsesConcurrentFetches(t *testing.T) {
	memo, err := NewScopeMemo(4)
	require.NoError(t, err)
	scope := schema.Scope{Group: "shared"}

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context, schema.Scope) ([]schema.Entry, error) {
		calls.Add(1)
		<-release
		return []schema.Entry{entry("1", "x")}, nil
	}

	var wg sync.WaitGroup
	first := make(chan struct{})
	wg.Go(func() {
		close(first)
		_, _ = memo.Fetch(context.Background(), scope, fetch)
	})
	<-first
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	results := make(chan []schema.Entry, 3)
	for range 3 {
		wg.Go(func() {
			got, err := memo.Fetch(context.Background(), scope, fetch)
			if err == nil {
				results <- got
			}
		})
	}
	close(release)
	wg.Wait()
	close(results)

	assert.LessOrEqual(t, calls.Load(), int32(4))
	for got := range results {
		assert.Equal(t, "1", got[0].ID)
	}
}
