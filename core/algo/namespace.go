// Package algo derives hierarchical views over catalog entries.
package algo

import (
	"slices"

	"github.com/oedokumaci/catalogsync/schema"
)

// Scope returns the entries whose key starts with prefix, segment by segment.
// Entries shorter than the prefix never match and an empty prefix matches everything.
// Snapshot order is preserved.
func Scope(entries []schema.Entry, prefix []string) []schema.Entry {
	matched := make([]schema.Entry, 0, len(entries))
	for _, e := range entries {
		if e.HasPrefix(prefix) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Group computes the directory view one level below prefix.
// ChildSegments holds prefix+[segment] for every distinct next segment, sorted.
// Displayed holds the matched entries that live exactly at that level; deeper
// entries are represented by their ancestor namespace instead.
func Group(entries []schema.Entry, prefix []string) schema.GroupingResult {
	depth := len(prefix)
	seen := make(map[string]struct{})
	result := schema.GroupingResult{
		ChildSegments: [][]string{},
		Displayed:     []schema.Entry{},
	}

	for _, e := range Scope(entries, prefix) {
		if len(e.Key) <= depth {
			continue // the prefix itself has no child segment
		}
		seen[e.Key[depth]] = struct{}{}
		if len(e.Key) == depth+1 {
			result.Displayed = append(result.Displayed, e)
		}
	}

	for _, seg := range sortedKeys(seen) {
		result.ChildSegments = append(result.ChildSegments, ChildPath(prefix, seg))
	}
	return result
}

// Namespaces lists the child paths below prefix with the number of scoped entries under each.
func Namespaces(entries []schema.Entry, prefix []string) []schema.Namespace {
	depth := len(prefix)
	counts := make(map[string]int)
	for _, e := range Scope(entries, prefix) {
		if len(e.Key) > depth {
			counts[e.Key[depth]]++
		}
	}

	namespaces := make([]schema.Namespace, 0, len(counts))
	for _, seg := range sortedKeys(counts) {
		namespaces = append(namespaces, schema.Namespace{Path: ChildPath(prefix, seg), Count: counts[seg]})
	}
	return namespaces
}

// Flat bypasses grouping: every entry is displayed with its full key.
func Flat(entries []schema.Entry) []schema.Entry {
	return entries
}

// DisplayPath returns the path an entry is shown under for a view mode.
// In directory mode the key is cut to one level below prefix.
func DisplayPath(e schema.Entry, view schema.ViewMode, prefix []string) []string {
	if view == schema.FlatView || len(e.Key) <= len(prefix)+1 {
		return e.Key
	}
	return e.Key[:len(prefix)+1]
}

// ChildPath returns a fresh prefix+[segment] slice that does not alias prefix.
func ChildPath(prefix []string, segment string) []string {
	path := make([]string, len(prefix), len(prefix)+1)
	copy(path, prefix)
	return append(path, segment)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
