package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run tracking.
	DatabaseBackend string

	// ClassifierKind selects the bug-fix classification strategy.
	ClassifierKind string

	// DateFallback is the policy applied to commit dates that cannot be parsed.
	DateFallback string
)

// PreRelease is the version label of files last touched before the first release.
const PreRelease = "Pre-Release"

// Rendered values of the Buggy column.
const (
	BuggyYes = "Yes"
	BuggyNo  = "No"
)

// BinaryLineCount is the value git numstat reports for binary files.
const BinaryLineCount = "-"

// All output modes supported.
const (
	CSVOut     OutputMode = "csv" // default
	TextOut    OutputMode = "text"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All classification strategies supported.
const (
	TicketClassifier  ClassifierKind = "ticket" // default
	PatternClassifier ClassifierKind = "pattern"
)

// All date fallback policies supported.
const (
	SkipDateFallback DateFallback = "skip" // default
	NowDateFallback  DateFallback = "now"
	FailDateFallback DateFallback = "fail"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidClassifierKinds lists all valid classification strategies.
var ValidClassifierKinds = map[ClassifierKind]struct{}{
	TicketClassifier:  {},
	PatternClassifier: {},
}

// ValidDateFallbacks lists all valid date fallback policies.
var ValidDateFallbacks = map[DateFallback]struct{}{
	SkipDateFallback: {},
	NowDateFallback:  {},
	FailDateFallback: {},
}
