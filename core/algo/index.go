package algo

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/oedokumaci/catalogsync/schema"
)

// Index is an inverted index over one snapshot.
// Row i of the index is entries[i]; each (depth, segment) pair and each key
// length maps to a bitmap of rows, so prefix queries become bitmap intersections.
type Index struct {
	entries  []schema.Entry
	segments []map[string]*roaring.Bitmap // segments[d][s] = rows whose key[d] == s
	lengths  map[int]*roaring.Bitmap      // lengths[n] = rows whose key has n segments
	all      *roaring.Bitmap
}

// NewIndex builds the index. The entries slice is retained, not copied.
func NewIndex(entries []schema.Entry) *Index {
	ix := &Index{
		entries: entries,
		lengths: make(map[int]*roaring.Bitmap),
		all:     roaring.New(),
	}
	for i, e := range entries {
		row := uint32(i)
		ix.all.Add(row)
		for d, seg := range e.Key {
			if d == len(ix.segments) {
				ix.segments = append(ix.segments, make(map[string]*roaring.Bitmap))
			}
			bm, ok := ix.segments[d][seg]
			if !ok {
				bm = roaring.New()
				ix.segments[d][seg] = bm
			}
			bm.Add(row)
		}
		bm, ok := ix.lengths[len(e.Key)]
		if !ok {
			bm = roaring.New()
			ix.lengths[len(e.Key)] = bm
		}
		bm.Add(row)
	}
	return ix
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entries returns the indexed entries in snapshot order.
func (ix *Index) Entries() []schema.Entry {
	return ix.entries
}

// match returns the rows whose key starts with prefix.
func (ix *Index) match(prefix []string) *roaring.Bitmap {
	if len(prefix) > len(ix.segments) {
		return roaring.New()
	}
	rows := ix.all.Clone()
	for d, seg := range prefix {
		bm, ok := ix.segments[d][seg]
		if !ok {
			return roaring.New()
		}
		rows.And(bm)
		if rows.IsEmpty() {
			break
		}
	}
	return rows
}

// collect materializes rows in ascending order, which is snapshot order.
func (ix *Index) collect(rows *roaring.Bitmap) []schema.Entry {
	out := make([]schema.Entry, 0, rows.GetCardinality())
	it := rows.Iterator()
	for it.HasNext() {
		out = append(out, ix.entries[it.Next()])
	}
	return out
}

// Scope is the indexed equivalent of the package-level Scope.
func (ix *Index) Scope(prefix []string) []schema.Entry {
	return ix.collect(ix.match(prefix))
}

// Group is the indexed equivalent of the package-level Group.
func (ix *Index) Group(prefix []string) schema.GroupingResult {
	result := schema.GroupingResult{
		ChildSegments: [][]string{},
		Displayed:     []schema.Entry{},
	}
	rows := ix.match(prefix)
	depth := len(prefix)
	if rows.IsEmpty() || depth >= len(ix.segments) {
		return result
	}

	children := make(map[string]struct{})
	for seg, bm := range ix.segments[depth] {
		if rows.Intersects(bm) {
			children[seg] = struct{}{}
		}
	}
	for _, seg := range sortedKeys(children) {
		result.ChildSegments = append(result.ChildSegments, ChildPath(prefix, seg))
	}

	if atLevel, ok := ix.lengths[depth+1]; ok {
		result.Displayed = ix.collect(roaring.And(rows, atLevel))
	}
	return result
}

// Namespaces is the indexed equivalent of the package-level Namespaces.
func (ix *Index) Namespaces(prefix []string) []schema.Namespace {
	rows := ix.match(prefix)
	depth := len(prefix)
	if rows.IsEmpty() || depth >= len(ix.segments) {
		return []schema.Namespace{}
	}

	counts := make(map[string]int)
	for seg, bm := range ix.segments[depth] {
		if n := rows.AndCardinality(bm); n > 0 {
			counts[seg] = int(n)
		}
	}

	namespaces := make([]schema.Namespace, 0, len(counts))
	for _, seg := range sortedKeys(counts) {
		namespaces = append(namespaces, schema.Namespace{Path: ChildPath(prefix, seg), Count: counts[seg]})
	}
	return namespaces
}
