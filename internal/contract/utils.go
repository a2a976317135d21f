package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/oedokumaci/catalogsync/schema"
)

// Row kind labels used by the listing views.
const (
	FolderLabel = "Folder" // Folder marks a child namespace row
	EntryLabel  = "Entry"  // Entry marks a displayed entry row
)

// Color variables for console output.
var (
	FolderColor  = color.New(color.FgCyan, color.Bold) // FolderColor highlights namespaces that can be drilled into.
	EntryColor   = color.New(color.FgWhite)            // EntryColor is the plain entry color.
	SuccessColor = color.New(color.FgGreen)            // SuccessColor marks successful runs.
	WarnColor    = color.New(color.FgYellow)           // WarnColor marks domain errors.
	FailureColor = color.New(color.FgRed, color.Bold)  // FailureColor marks failed runs.
)

// GetColorKind returns a colored row kind label for console output (table).
func GetColorKind(label string) string {
	if label == FolderLabel {
		return FolderColor.Sprint(label)
	}
	return EntryColor.Sprint(label)
}

// GetColorOutcome returns a colored run outcome for console output.
func GetColorOutcome(outcome schema.RunOutcome) string {
	text := string(outcome)
	switch outcome {
	case schema.OutcomeSuccess:
		return SuccessColor.Sprint(text)
	case schema.OutcomeDomainError:
		return WarnColor.Sprint(text)
	default:
		return FailureColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for snapshot storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".catalogsync_cache.db"
	}
	return filepath.Join(homeDir, ".catalogsync_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run history.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".catalogsync_runs.db"
	}
	return filepath.Join(homeDir, ".catalogsync_runs.db")
}

// JoinKey renders a hierarchical key for display.
func JoinKey(key []string) string {
	return strings.Join(key, "/")
}

// TruncatePath truncates a key path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
