package algo

import (
	"testing"
	"time"

	"github.com/oedokumaci/catalogsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListingDirectory(t *testing.T) {
	ix := NewIndex([]schema.Entry{
		entry("1", "a", "b"),
		entry("2", "a", "c", "x"),
		entry("3", "a", "c", "y"),
		entry("4", "a", "c"),
		entry("5", "d"),
	})

	root := BuildListing(ix, nil, schema.DirectoryView)
	assert.Equal(t, 5, root.Total)
	assert.Equal(t, []string{}, root.Prefix)
	assert.Equal(t, []schema.ListingRow{
		{Kind: schema.FolderRow, Path: []string{"a"}, Count: 4},
		{Kind: schema.EntryRow, Path: []string{"d"}, ID: "5"},
	}, root.Rows)

	inA := BuildListing(ix, []string{"a"}, schema.DirectoryView)
	assert.Equal(t, 4, inA.Total)
	assert.Equal(t, []schema.ListingRow{
		{Kind: schema.EntryRow, Path: []string{"a", "b"}, ID: "1"},
		{Kind: schema.FolderRow, Path: []string{"a", "c"}, Count: 2},
		{Kind: schema.EntryRow, Path: []string{"a", "c"}, ID: "4"},
	}, inA.Rows)
}

func TestBuildListingFlat(t *testing.T) {
	ix := NewIndex([]schema.Entry{
		entry("1", "a", "b"),
		entry("2", "a", "c", "x"),
		entry("3", "d"),
	})

	listing := BuildListing(ix, []string{"a"}, schema.FlatView)
	require.Len(t, listing.Rows, 2)
	assert.Equal(t, []string{"a", "c", "x"}, listing.Rows[1].Path)
	assert.Equal(t, schema.EntryRow, listing.Rows[1].Kind)
}

func TestBuildListingEmpty(t *testing.T) {
	listing := BuildListing(NewIndex(nil), []string{"missing"}, schema.DirectoryView)
	assert.NotNil(t, listing.Rows)
	assert.Empty(t, listing.Rows)
	assert.Zero(t, listing.Total)
}

func TestListSnapshot(t *testing.T) {
	snap := schema.NewSnapshot([]schema.Entry{entry("1", "a")}, time.Unix(100, 0))
	listing := ListSnapshot(snap, nil, schema.FlatView)
	assert.Equal(t, snap.Fingerprint, listing.Fingerprint)
	assert.Equal(t, snap.FetchedAt, listing.FetchedAt)
	assert.Len(t, listing.Rows, 1)
}
