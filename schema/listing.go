package schema

import "time"

// RowKind tells folder rows from entry rows in a listing.
type RowKind string

// All listing row kinds.
const (
	FolderRow RowKind = "folder"
	EntryRow  RowKind = "entry"
)

// ListingRow is one line of a rendered view.
type ListingRow struct {
	Kind  RowKind  `json:"kind"`
	Path  []string `json:"path"`
	ID    string   `json:"id,omitempty"`
	Count int      `json:"count,omitempty"` // entries below a folder
}

// Listing is a view over one snapshot, ready for output.
type Listing struct {
	Prefix      []string     `json:"prefix"`
	View        ViewMode     `json:"view"`
	Rows        []ListingRow `json:"rows"`
	Total       int          `json:"total"` // entries matching the prefix
	FetchedAt   time.Time    `json:"fetched_at"`
	Fingerprint uint64       `json:"fingerprint"`
	Error       *DomainError `json:"error,omitempty"`
}
