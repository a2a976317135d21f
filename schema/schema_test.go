package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryHasPrefix(t *testing.T) {
	entry := Entry{ID: "1", Key: []string{"a", "b", "c"}}

	tests := []struct {
		name   string
		prefix []string
		want   bool
	}{
		{"empty prefix", nil, true},
		{"first segment", []string{"a"}, true},
		{"two segments", []string{"a", "b"}, true},
		{"full key", []string{"a", "b", "c"}, true},
		{"longer than key", []string{"a", "b", "c", "d"}, false},
		{"mismatch", []string{"a", "x"}, false},
		{"string prefix is not a segment prefix", []string{"a", "bc"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entry.HasPrefix(tt.prefix))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := []Entry{{ID: "1", Key: []string{"a", "b"}}, {ID: "2", Key: []string{"c"}}}
	b := []Entry{{ID: "1", Key: []string{"a", "b"}, Payload: json.RawMessage(`{"x":1}`)}, {ID: "2", Key: []string{"c"}}}
	reordered := []Entry{a[1], a[0]}
	joined := []Entry{{ID: "1", Key: []string{"ab"}}, {ID: "2", Key: []string{"c"}}}

	assert.Equal(t, Fingerprint(a), Fingerprint(b), "payload changes should not affect the fingerprint")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(reordered), "order is significant")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(joined), "segment boundaries are significant")
	assert.Equal(t, Fingerprint(nil), Fingerprint([]Entry{}))
}

func TestScopeCacheKey(t *testing.T) {
	s1 := Scope{Group: "g", Repository: "r", Location: "l"}
	s2 := Scope{Group: "g", Repository: "r", Location: "l"}
	s3 := Scope{Group: "g", Repository: "r2", Location: "l"}

	assert.Equal(t, s1.CacheKey(), s2.CacheKey())
	assert.NotEqual(t, s1.CacheKey(), s3.CacheKey())
	assert.JSONEq(t, `{"groupName":"g","repositoryName":"r","repositoryLocationName":"l"}`, s1.CacheKey())
	assert.True(t, Scope{}.IsZero())
	assert.False(t, s1.IsZero())
}

func TestAdaptScopedNodes(t *testing.T) {
	var nodes []ScopedNode
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": "n1", "assetKey": {"path": ["raw", "users"]}, "definition": {"groupName": "g"}},
		{"id": "n2", "assetKey": {"path": ["raw"]}}
	]`), &nodes))

	entries := AdaptScopedNodes(nodes)
	require.Len(t, entries, 2)
	assert.Equal(t, "n1", entries[0].ID)
	assert.Equal(t, []string{"raw", "users"}, entries[0].Key)
	assert.JSONEq(t, `{"groupName": "g"}`, string(entries[0].Payload))
	assert.Equal(t, []string{"raw"}, entries[1].Key)
	assert.Nil(t, entries[1].Payload)
}

func TestDomainError(t *testing.T) {
	derr := &DomainError{
		TypeName: PythonErrorType,
		Message:  "boom",
		Cause:    &DomainError{Message: "root"},
	}

	assert.Equal(t, "PythonError: boom; caused by: root", derr.Error())

	wrapped := fmt.Errorf("page 3: %w", derr)
	var target *DomainError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "boom", target.Message)

	assert.Nil(t, (&DomainError{Message: "leaf"}).Unwrap())
}

func TestCursorString(t *testing.T) {
	assert.Equal(t, "<start>", CursorString(nil))
	assert.Equal(t, "abc", CursorString(NewCursor("abc")))
}
