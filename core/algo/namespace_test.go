package algo

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/oedokumaci/catalogsync/schema"
	"github.com/stretchr/testify/assert"
)

func entry(id string, key ...string) schema.Entry {
	return schema.Entry{ID: id, Key: key}
}

func sampleEntries() []schema.Entry {
	return []schema.Entry{
		entry("1", "a", "b"),
		entry("2", "a", "c"),
		entry("3", "d"),
	}
}

func keys(entries []schema.Entry) [][]string {
	out := make([][]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func TestScope(t *testing.T) {
	entries := append(sampleEntries(), entry("4", "a"), entry("5", "ab", "c"))

	tests := []struct {
		name   string
		prefix []string
		want   [][]string
	}{
		{"empty prefix matches all", nil, keys(entries)},
		{"single segment", []string{"a"}, [][]string{{"a", "b"}, {"a", "c"}, {"a"}}},
		{"two segments", []string{"a", "b"}, [][]string{{"a", "b"}}},
		{"longer than every key", []string{"a", "b", "c"}, [][]string{}},
		{"no string prefix matching", []string{"ab"}, [][]string{{"ab", "c"}}},
		{"unknown segment", []string{"zzz"}, [][]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keys(Scope(entries, tt.prefix)))
		})
	}
}

func TestScopePrefixScenario(t *testing.T) {
	got := Scope(sampleEntries(), []string{"a"})
	assert.Equal(t, [][]string{{"a", "b"}, {"a", "c"}}, keys(got))
}

func TestGroupRootScenario(t *testing.T) {
	got := Group(sampleEntries(), nil)

	assert.Equal(t, [][]string{{"a"}, {"d"}}, got.ChildSegments)
	assert.Equal(t, [][]string{{"d"}}, keys(got.Displayed), "deeper entries collapse into their namespace")
}

func TestGroup(t *testing.T) {
	entries := []schema.Entry{
		entry("1", "raw", "users", "events"),
		entry("2", "raw", "users"),
		entry("3", "raw", "orders"),
		entry("4", "raw"),
		entry("5", "mart", "revenue"),
	}

	t.Run("one level down", func(t *testing.T) {
		got := Group(entries, []string{"raw"})
		assert.Equal(t, [][]string{{"raw", "orders"}, {"raw", "users"}}, got.ChildSegments)
		assert.Equal(t, [][]string{{"raw", "users"}, {"raw", "orders"}}, keys(got.Displayed), "snapshot order is kept")
	})

	t.Run("entry equal to prefix is not displayed", func(t *testing.T) {
		got := Group(entries, []string{"raw", "users"})
		assert.Equal(t, [][]string{{"raw", "users", "events"}}, got.ChildSegments)
		assert.Equal(t, [][]string{{"raw", "users", "events"}}, keys(got.Displayed))
	})

	t.Run("leaf prefix", func(t *testing.T) {
		got := Group(entries, []string{"mart", "revenue"})
		assert.Empty(t, got.ChildSegments)
		assert.Empty(t, got.Displayed)
	})

	t.Run("child paths do not alias the prefix", func(t *testing.T) {
		prefix := make([]string, 1, 8)
		prefix[0] = "raw"
		got := Group(entries, prefix)
		got.ChildSegments[0][0] = "mutated"
		assert.Equal(t, "raw", prefix[0])
		assert.Equal(t, "raw", got.ChildSegments[1][0])
	})
}

func TestNamespaces(t *testing.T) {
	entries := []schema.Entry{
		entry("1", "raw", "users", "events"),
		entry("2", "raw", "users"),
		entry("3", "raw", "orders"),
		entry("4", "raw"),
	}

	got := Namespaces(entries, []string{"raw"})
	assert.Equal(t, []schema.Namespace{
		{Path: []string{"raw", "orders"}, Count: 1},
		{Path: []string{"raw", "users"}, Count: 2},
	}, got)

	assert.Empty(t, Namespaces(entries, []string{"missing"}))
}

func TestFlatAndDisplayPath(t *testing.T) {
	entries := sampleEntries()
	assert.Equal(t, entries, Flat(entries))

	deep := entry("9", "a", "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, DisplayPath(deep, schema.FlatView, nil))
	assert.Equal(t, []string{"a"}, DisplayPath(deep, schema.DirectoryView, nil))
	assert.Equal(t, []string{"a", "b"}, DisplayPath(deep, schema.DirectoryView, []string{"a"}))
	assert.Equal(t, []string{"a", "b", "c"}, DisplayPath(deep, schema.DirectoryView, []string{"a", "b"}))
}

// randomEntries builds a catalog with heavy segment reuse so prefixes overlap.
func randomEntries(r *rand.Rand, n int) []schema.Entry {
	segs := []string{"a", "b", "c", "d"}
	out := make([]schema.Entry, n)
	for i := range out {
		depth := 1 + r.IntN(4)
		key := make([]string, depth)
		for d := range key {
			key[d] = segs[r.IntN(len(segs))]
		}
		out[i] = schema.Entry{ID: fmt.Sprint(i), Key: key}
	}
	return out
}

func TestIndexMatchesPureFunctions(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	entries := randomEntries(r, 300)
	ix := NewIndex(entries)
	assert.Equal(t, 300, ix.Len())

	prefixes := [][]string{nil, {"a"}, {"b", "c"}, {"d", "d", "d"}, {"a", "b", "c", "d"}, {"a", "b", "c", "d", "a"}, {"x"}}
	for _, prefix := range prefixes {
		t.Run(fmt.Sprint(prefix), func(t *testing.T) {
			assert.Equal(t, Scope(entries, prefix), ix.Scope(prefix))
			assert.Equal(t, Group(entries, prefix), ix.Group(prefix))
			assert.Equal(t, Namespaces(entries, prefix), ix.Namespaces(prefix))
		})
	}
}

func TestIndexEmpty(t *testing.T) {
	ix := NewIndex(nil)
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Scope(nil))
	assert.Equal(t, schema.GroupingResult{ChildSegments: [][]string{}, Displayed: []schema.Entry{}}, ix.Group(nil))
	assert.Empty(t, ix.Namespaces([]string{"a"}))
}
