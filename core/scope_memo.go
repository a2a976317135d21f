package core

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
	"golang.org/x/sync/singleflight"
)

// ScopeMemo remembers the last response per selection scope.
// It is owned by the caller and may be shared by several controllers.
type ScopeMemo struct {
	cache        *lru.Cache[string, []schema.Entry]
	requestGroup singleflight.Group
}

// NewScopeMemo creates a memo holding at most size scopes.
func NewScopeMemo(size int) (*ScopeMemo, error) {
	if size <= 0 {
		size = contract.DefaultScopeMemoSize
	}
	cache, err := lru.New[string, []schema.Entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create scope memo: %w", err)
	}
	return &ScopeMemo{cache: cache}, nil
}

// Get returns the remembered entries for scope.
func (m *ScopeMemo) Get(scope schema.Scope) ([]schema.Entry, bool) {
	return m.cache.Get(scope.CacheKey())
}

// Fetch calls fetch for scope and remembers a successful response.
// Concurrent calls for the same scope share a single request.
func (m *ScopeMemo) Fetch(ctx context.Context, scope schema.Scope, fetch contract.ScopeFetcher) ([]schema.Entry, error) {
	key := scope.CacheKey()
	result, err, _ := m.requestGroup.Do(key, func() (any, error) {
		entries, err := fetch(ctx, scope)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []schema.Entry{}
		}
		m.cache.Add(key, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]schema.Entry), nil
}

// Len returns the number of remembered scopes.
func (m *ScopeMemo) Len() int {
	return m.cache.Len()
}

// Purge forgets every scope.
func (m *ScopeMemo) Purge() {
	m.cache.Purge()
}
