package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/oedokumaci/catalogsync/core/algo"
	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/internal/parquet"
	"github.com/oedokumaci/catalogsync/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// printListing dispatches on the configured output format.
func (ow *OutWriter) printListing(snap schema.Snapshot, listing schema.Listing, cfg *contract.Config) error {
	if listing.Error != nil {
		ow.printCatalogError(listing.Error)
	}

	switch cfg.Output {
	case schema.JSONOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, listing)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVListing(w, listing)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		scoped := snap
		scoped.Entries = algo.Scope(snap.Entries, listing.Prefix)
		if err := parquet.WriteCatalogEntriesParquet(parquet.ConvertSnapshot(scoped), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(ow.stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		if err := ow.printListingTable(listing, cfg); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// printListingTable prints the listing as a human-readable table.
func (ow *OutWriter) printListingTable(listing schema.Listing, cfg *contract.Config) error {
	if !cfg.UseColors {
		prev := color.NoColor
		color.NoColor = true
		defer func() { color.NoColor = prev }()
	}

	table := tablewriter.NewWriter(ow.stdout)
	flat := listing.View == schema.FlatView

	headers := []string{"#", "Kind", "Path"}
	if flat {
		headers = append(headers, "ID")
	} else {
		headers = append(headers, "Entries")
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	width := GetMaxTablePathWidth(cfg)
	data := make([][]string, 0, len(listing.Rows))
	for i, r := range listing.Rows {
		label := contract.EntryLabel
		if r.Kind == schema.FolderRow {
			label = contract.FolderLabel
		}
		row := []string{
			strconv.Itoa(i + 1),
			contract.GetColorKind(label),
			contract.TruncatePath(contract.JoinKey(r.Path), width),
		}
		if flat {
			row = append(row, r.ID)
		} else if r.Kind == schema.FolderRow {
			row = append(row, strconv.Itoa(r.Count))
		} else {
			row = append(row, "")
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(ow.stdout, "Showing %d rows under /%s (%d entries, %s view)\n",
		len(listing.Rows), contract.JoinKey(listing.Prefix), listing.Total, listing.View)
	if !listing.FetchedAt.IsZero() {
		_, _ = fmt.Fprintf(ow.stdout, "Snapshot fetched at %s (fingerprint %016x)\n",
			listing.FetchedAt.Format("2006-01-02 15:04:05"), listing.Fingerprint)
	}
	return nil
}

// printCatalogError reports a domain error without hiding the data shown alongside it.
func (ow *OutWriter) printCatalogError(derr *schema.DomainError) {
	_, _ = contract.WarnColor.Fprintf(ow.stderr, "⚠️  Catalog source reported %s\n", derr.Error())
	for _, line := range derr.Stack {
		_, _ = fmt.Fprintf(ow.stderr, "    %s\n", line)
	}
}
