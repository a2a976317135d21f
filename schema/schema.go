// Package schema has models, enums and shared value types for all parts of catalogsync.
package schema

import (
	"encoding/json"
	"slices"
	"time"
)

// Entry is one catalog record identified by a hierarchical key.
// Entries are immutable once fetched; a new sync cycle produces a new collection.
type Entry struct {
	ID      string          `json:"id" yaml:"id"`
	Key     []string        `json:"key" yaml:"key"`
	Payload json.RawMessage `json:"payload,omitempty" yaml:"-"`
}

// Depth returns the number of segments in the entry key.
func (e Entry) Depth() int {
	return len(e.Key)
}

// HasPrefix reports whether prefix matches the first len(prefix) key segments exactly.
func (e Entry) HasPrefix(prefix []string) bool {
	if len(e.Key) < len(prefix) {
		return false
	}
	return slices.Equal(e.Key[:len(prefix)], prefix)
}

// Snapshot is the full, internally consistent catalog as of one successful sync.
type Snapshot struct {
	Entries     []Entry   `json:"entries"`
	FetchedAt   time.Time `json:"fetched_at"`
	Fingerprint uint64    `json:"fingerprint"`
}

// NewSnapshot builds a Snapshot and stamps its fingerprint.
func NewSnapshot(entries []Entry, fetchedAt time.Time) Snapshot {
	return Snapshot{
		Entries:     entries,
		FetchedAt:   fetchedAt,
		Fingerprint: Fingerprint(entries),
	}
}

// Len returns the number of entries in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Entries)
}

// Cursor is an opaque pagination token. Nil means "from the beginning".
type Cursor *string

// NewCursor returns a cursor pointing at the given token.
func NewCursor(token string) Cursor {
	return &token
}

// CursorString renders a cursor for logs and span attributes.
func CursorString(c Cursor) string {
	if c == nil {
		return "<start>"
	}
	return *c
}

// PageResult is what a page fetch returns for one cursor position.
type PageResult struct {
	Data    []Entry
	Cursor  Cursor
	HasMore bool
	Error   *DomainError
}

// CacheRecord is the logical view of one stored snapshot slot.
type CacheRecord struct {
	Key     string
	Version int
	Value   Snapshot
}

// Namespace summarizes one child path below a scope prefix.
type Namespace struct {
	Path  []string `json:"path"`
	Count int      `json:"count"`
}

// GroupingResult is the directory-style view of entries below a prefix.
type GroupingResult struct {
	ChildSegments [][]string `json:"child_segments"`
	Displayed     []Entry    `json:"displayed"`
}
