package iocache

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/oedokumaci/catalogsync/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintCacheStatus prints cache status information.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	_, _ = fmt.Fprintf(w, "Cache Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		_, _ = fmt.Fprintf(w, "Last Entry: %s\n", status.LastEntryTime.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s\n", status.OldestEntryTime.Format(statusTimeFormat))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintSlotStatus prints what is stored for one cache key.
func PrintSlotStatus(w io.Writer, slot schema.SlotStatus) {
	_, _ = fmt.Fprintf(w, "Snapshot Key: %s\n", slot.Key)
	if !slot.Present {
		_, _ = fmt.Fprintln(w, "Snapshot: absent")
		return
	}
	state := "current"
	if !slot.Current {
		state = "stale (reads as a miss)"
	}
	_, _ = fmt.Fprintf(w, "Snapshot Version: %d (%s)\n", slot.Version, state)
	_, _ = fmt.Fprintf(w, "Snapshot Entries: %d\n", slot.Entries)
	_, _ = fmt.Fprintf(w, "Snapshot Fingerprint: %016x\n", slot.Fingerprint)
	_, _ = fmt.Fprintf(w, "Snapshot Written: %s\n", slot.WrittenAt.Format(statusTimeFormat))
}

// PrintRunStatus prints run store status information.
func PrintRunStatus(w io.Writer, status schema.RunStatus) {
	_, _ = fmt.Fprintf(w, "Runs Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
	_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format(statusTimeFormat))
	_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Format(statusTimeFormat))
	_, _ = fmt.Fprintln(w, "Outcomes:")
	for _, outcome := range slices.Sorted(maps.Keys(status.Outcomes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d\n", outcome, status.Outcomes[outcome])
	}
}
