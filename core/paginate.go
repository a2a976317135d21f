package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
)

// ErrNoProgress reports a page that claims more data but returned nothing.
var ErrNoProgress = errors.New("page fetch made no forward progress")

// ErrDuplicateEntry reports an entry id seen earlier in the same pagination run.
// A cursor that moves backwards shows up this way too.
var ErrDuplicateEntry = errors.New("duplicate entry id")

// FetchStats describes one completed pagination run.
type FetchStats struct {
	Pages   int
	Entries int
}

// FetchAll pages through fetchPage from the beginning until the source reports exhaustion.
// It returns either the complete ordered collection or an error, never partial data.
// A domain error reported by a page is returned as *schema.DomainError.
// Entry ids must be unique across the whole run.
func FetchAll(ctx context.Context, fetchPage contract.PageFetcher) ([]schema.Entry, error) {
	entries, _, err := FetchAllWithStats(ctx, fetchPage)
	return entries, err
}

// FetchAllWithStats is FetchAll that also reports how many pages were requested.
// Stats are filled in on failure too, counting the pages requested so far.
func FetchAllWithStats(ctx context.Context, fetchPage contract.PageFetcher) ([]schema.Entry, FetchStats, error) {
	var (
		stats   FetchStats
		entries []schema.Entry
		cursor  schema.Cursor
		seen    = make(map[string]struct{})
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		stats.Pages++
		page, err := fetchPage(ctx, cursor)
		if err != nil {
			return nil, stats, fmt.Errorf("page %d (cursor %s): %w", stats.Pages, schema.CursorString(cursor), err)
		}
		if page.Error != nil {
			return nil, stats, page.Error
		}

		if page.HasMore && len(page.Data) == 0 {
			return nil, stats, fmt.Errorf("page %d (cursor %s): %w", stats.Pages, schema.CursorString(cursor), ErrNoProgress)
		}

		for _, e := range page.Data {
			if _, dup := seen[e.ID]; dup {
				return nil, stats, fmt.Errorf("page %d (cursor %s): %w %q", stats.Pages, schema.CursorString(cursor), ErrDuplicateEntry, e.ID)
			}
			seen[e.ID] = struct{}{}
		}
		entries = append(entries, page.Data...)
		stats.Entries = len(entries)

		if !page.HasMore {
			if entries == nil {
				entries = []schema.Entry{}
			}
			return entries, stats, nil
		}
		cursor = page.Cursor
	}
}
