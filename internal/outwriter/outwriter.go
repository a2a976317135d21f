// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"os"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
)

// OutWriter provides a unified interface for all output operations.
// Tables go to stdout; notices about written files and catalog errors go to stderr.
type OutWriter struct {
	stdout io.Writer
	stderr io.Writer
}

// NewOutWriter creates an output writer bound to the process stdout and stderr.
func NewOutWriter() *OutWriter {
	return &OutWriter{stdout: os.Stdout, stderr: os.Stderr}
}

// NewOutWriterTo creates an output writer bound to the given streams.
func NewOutWriterTo(stdout, stderr io.Writer) *OutWriter {
	return &OutWriter{stdout: stdout, stderr: stderr}
}

// WriteListing prints a view over snap using the configured output format.
// The snapshot supplies the entry payloads needed by the Parquet format.
func (ow *OutWriter) WriteListing(snap schema.Snapshot, listing schema.Listing, cfg *contract.Config) error {
	return ow.printListing(snap, listing, cfg)
}

// WriteRuns prints sync run history using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.SyncRunRecord, cfg *contract.Config) error {
	return ow.printRuns(runs, cfg)
}
