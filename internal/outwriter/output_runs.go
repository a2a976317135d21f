package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/internal/parquet"
	"github.com/oedokumaci/catalogsync/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// printRuns dispatches run history on the configured output format.
func (ow *OutWriter) printRuns(runs []schema.SyncRunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVRuns(w, runs)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := parquet.WriteSyncRunsParquet(parquet.ConvertSyncRunRecords(runs), cfg.OutputFile); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(ow.stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
		return nil
	default:
		return ow.printRunsTable(runs, cfg)
	}
}

// printRunsTable prints run history as a table, newest last.
func (ow *OutWriter) printRunsTable(runs []schema.SyncRunRecord, cfg *contract.Config) error {
	if !cfg.UseColors {
		prev := color.NoColor
		color.NoColor = true
		defer func() { color.NoColor = prev }()
	}

	table := tablewriter.NewWriter(ow.stdout)
	table.Header([]string{"Run", "Started", "Duration", "Outcome", "Entries", "Pages", "Error"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(runs))
	for _, r := range runs {
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			r.StartTime.Local().Format(time.DateTime),
			formatDuration(r.RunDurationMs),
			formatOutcome(r.Outcome),
			strconv.Itoa(int(r.EntryCount)),
			strconv.Itoa(int(r.PageCount)),
			contract.TruncatePath(derefString(r.ErrorMessage), 40),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ow.stdout, "Showing %d sync runs\n", len(runs))
	return nil
}

// writeCSVRuns writes run history to w.
func writeCSVRuns(w io.Writer, runs []schema.SyncRunRecord) error {
	header := []string{"run_id", "cache_key", "start_time", "end_time", "run_duration_ms", "outcome", "entry_count", "page_count", "error_message"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			end := ""
			if r.EndTime != nil {
				end = r.EndTime.UTC().Format(time.RFC3339)
			}
			duration := ""
			if r.RunDurationMs != nil {
				duration = strconv.Itoa(int(*r.RunDurationMs))
			}
			row := []string{
				strconv.FormatInt(r.RunID, 10),
				r.CacheKey,
				r.StartTime.UTC().Format(time.RFC3339),
				end,
				duration,
				derefString(r.Outcome),
				strconv.Itoa(int(r.EntryCount)),
				strconv.Itoa(int(r.PageCount)),
				derefString(r.ErrorMessage),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func formatDuration(ms *int32) string {
	if ms == nil {
		return "-"
	}
	return (time.Duration(*ms) * time.Millisecond).String()
}

func formatOutcome(outcome *string) string {
	if outcome == nil {
		return "running"
	}
	return contract.GetColorOutcome(schema.RunOutcome(*outcome))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
