package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// ViewMode represents how entries are listed.
	ViewMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// ErrorPolicy decides what happens to fetch errors that are not domain errors.
	ErrorPolicy string

	// RunOutcome classifies how a fetch cycle ended.
	RunOutcome string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All view modes supported.
const (
	FlatView      ViewMode = "flat"
	DirectoryView ViewMode = "directory" // default
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All error policies supported.
const (
	SwallowErrors ErrorPolicy = "swallow" // default
	SurfaceErrors ErrorPolicy = "surface"
)

// All run outcomes recorded by the run store.
const (
	OutcomeSuccess           RunOutcome = "success"
	OutcomeDomainError       RunOutcome = "domain_error"
	OutcomeFailure           RunOutcome = "failure"
	OutcomeProgressViolation RunOutcome = "progress_violation"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidViewModes lists all valid view modes.
var ValidViewModes = map[ViewMode]struct{}{
	FlatView:      {},
	DirectoryView: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidErrorPolicies lists all valid error policies.
var ValidErrorPolicies = map[ErrorPolicy]struct{}{
	SwallowErrors: {},
	SurfaceErrors: {},
}
