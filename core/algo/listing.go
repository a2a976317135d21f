package algo

import (
	"slices"

	"github.com/oedokumaci/catalogsync/schema"
)

// BuildListing renders the rows of view below prefix.
// Flat view lists every matched entry with its full key. Directory view lists one folder row
// per child namespace that has deeper entries, plus entry rows for entries directly below prefix.
func BuildListing(ix *Index, prefix []string, view schema.ViewMode) schema.Listing {
	listing := schema.Listing{
		Prefix: prefix,
		View:   view,
		Rows:   []schema.ListingRow{},
	}
	if listing.Prefix == nil {
		listing.Prefix = []string{}
	}

	scoped := ix.Scope(prefix)
	listing.Total = len(scoped)

	if view == schema.FlatView {
		for _, e := range scoped {
			listing.Rows = append(listing.Rows, schema.ListingRow{
				Kind: schema.EntryRow,
				Path: DisplayPath(e, view, prefix),
				ID:   e.ID,
			})
		}
		return listing
	}

	grouping := ix.Group(prefix)
	for _, ns := range ix.Namespaces(prefix) {
		var direct []schema.Entry
		for _, e := range grouping.Displayed {
			if slices.Equal(e.Key, ns.Path) {
				direct = append(direct, e)
			}
		}
		if deeper := ns.Count - len(direct); deeper > 0 {
			listing.Rows = append(listing.Rows, schema.ListingRow{Kind: schema.FolderRow, Path: ns.Path, Count: deeper})
		}
		for _, e := range direct {
			listing.Rows = append(listing.Rows, schema.ListingRow{Kind: schema.EntryRow, Path: e.Key, ID: e.ID})
		}
	}
	return listing
}

// ListSnapshot indexes snap and builds the listing, stamping snapshot metadata.
func ListSnapshot(snap schema.Snapshot, prefix []string, view schema.ViewMode) schema.Listing {
	listing := BuildListing(NewIndex(snap.Entries), prefix, view)
	listing.FetchedAt = snap.FetchedAt
	listing.Fingerprint = snap.Fingerprint
	return listing
}
