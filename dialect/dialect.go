// Package dialect captures the per-database-product behavior that the rest
// of dbcore needs to stay provider-agnostic: identifier quoting, parameter
// marker style, session preambles, generated-key strategy, and capability
// flags. Dialects are pure, stateless-after-detection values; nothing in
// this package does I/O.
package dialect

import "strings"

// Product identifies a supported database product.
type Product int

const (
	// Unknown is the standard/fallback product used when detection fails.
	Unknown Product = iota
	Postgres
	MySQL
	MSSQL
	Oracle
	SQLite
	Firebird
	DuckDB
)

func (p Product) String() string {
	switch p {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case MSSQL:
		return "mssql"
	case Oracle:
		return "oracle"
	case SQLite:
		return "sqlite"
	case Firebird:
		return "firebird"
	case DuckDB:
		return "duckdb"
	default:
		return "standard"
	}
}

// GeneratedKeyPlan is the strategy a dialect uses to retrieve a
// server-assigned identifier after an INSERT.
type GeneratedKeyPlan int

const (
	// Returning appends a RETURNING clause to the INSERT.
	Returning GeneratedKeyPlan = iota
	// OutputInserted appends an OUTPUT INSERTED.col clause before VALUES.
	OutputInserted
	// SessionScopedFunction runs a follow-up scalar query on the same
	// connection (LAST_INSERT_ID(), last_insert_rowid()).
	SessionScopedFunction
	// PrefetchSequence selects a sequence value before the INSERT and binds it.
	PrefetchSequence
	// CorrelationToken adds a unique token column, then looks the row up by it.
	CorrelationToken
	// NaturalKeyLookup is the last-resort fallback: look the row up by its
	// natural-key columns. Requires at least one non-id column.
	NaturalKeyLookup
)

func (p GeneratedKeyPlan) String() string {
	switch p {
	case Returning:
		return "Returning"
	case OutputInserted:
		return "OutputInserted"
	case SessionScopedFunction:
		return "SessionScopedFunction"
	case PrefetchSequence:
		return "PrefetchSequence"
	case CorrelationToken:
		return "CorrelationToken"
	default:
		return "NaturalKeyLookup"
	}
}

// ProcWrappingStyle selects how a stored-procedure call is rendered.
type ProcWrappingStyle int

const (
	ProcExec ProcWrappingStyle = iota
	ProcCall
	ProcPostgreSQL
	ProcOracle
	ProcExecuteProcedure
	ProcUnsupported
)

// SqlStandardLevel is a coarse classification of a detected server's
// standard-compliance/version tier, used by feature probing.
type SqlStandardLevel int

const (
	StandardUnknown SqlStandardLevel = iota
	Standard92
	Standard99
	Standard2003
	Standard2008
	Standard2011
	Standard2016
)

// DatabaseInfo is the cached result of DetectDatabaseInfo.
type DatabaseInfo struct {
	ProductName      string
	ProductVersion   string
	StandardLevel    SqlStandardLevel
	IsLocalDB        bool
	IsEmbedded       bool
	RCSIEnabled      bool
	SnapshotEnabled  bool
	IsSharedMemoryOrFileSQLite bool
	IsInMemoryIsolatedSQLite   bool
}

// Capabilities is the static, detection-independent capability set a
// dialect advertises.
type Capabilities struct {
	SupportsInsertReturning bool
	SupportsSavepoints      bool
	SupportsJSONTypes       bool
	SupportsArrayTypes      bool
	SupportsMerge           bool
	SupportsWindowFunctions bool
	SupportsCTE             bool
	PrepareStatements       bool
	SupportsNamedParameters bool
	ExternalPooling         bool
}

// Dialect is the per-product behavior contract. Implementations are
// immutable after DetectDatabaseInfo populates the DatabaseInfo cache.
type Dialect interface {
	Product() Product

	// Identifier quoting.
	QuotePrefix() string
	QuoteSuffix() string
	CompositeIdentifierSeparator() string
	WrapObjectName(maybeSchemaDotName string) string

	// Parameters.
	ParameterMarker() string
	MakeParameterName(name string) string
	ParameterNameMaxLength() int
	MaxParameterLimit() int
	MaxOutputParameters() int

	// Session preambles.
	SessionSettingsPreamble() string
	ReadOnlySessionSettingsPreamble() string

	// Connection-string mutation for read-only routing. Returns the
	// mutated key/value pairs to merge into a parsed connection string;
	// nil when the dialect has no connection-string-level RO knob.
	ReadOnlyConnectionStringKeys() map[string]string

	// Capabilities and pooling.
	Capabilities() Capabilities
	PoolingKeys() (enableKey, enableValue, minSizeKey, minSizeValue string)

	// GeneratedKeyPlan picks the strategy used to retrieve a generated id.
	GeneratedKeyPlan() GeneratedKeyPlan

	// ProcWrappingStyle selects stored-procedure call rendering.
	ProcWrappingStyle() ProcWrappingStyle

	// ParseVersion extracts a DatabaseInfo from a raw version string
	// (the output of @@VERSION / version() / etc.)
	ParseVersion(raw string) DatabaseInfo

	// CoerceParameterValue applies provider-specific parameter coercions
	// (e.g. Firebird Boolean->Int16, Guid->Binary) before binding.
	CoerceParameterValue(dbType string, value any) any
}

// quoteWrap quotes a single identifier part with the given prefix/suffix,
// doubling any embedded suffix character to escape it.
func quoteWrap(prefix, suffix, part string) string {
	if suffix != "" {
		part = strings.ReplaceAll(part, suffix, suffix+suffix)
	}
	return prefix + part + suffix
}

// wrapObjectName splits on "." (schema.table), quotes each part with the
// given prefix/suffix, and rejoins with ".". Shared by every dialect.
func wrapObjectName(prefix, suffix, maybeSchemaDotName string) string {
	if maybeSchemaDotName == "" {
		return maybeSchemaDotName
	}
	parts := strings.SplitN(maybeSchemaDotName, ".", 2)
	for i, p := range parts {
		parts[i] = quoteWrap(prefix, suffix, p)
	}
	return strings.Join(parts, ".")
}

// ForProduct returns the concrete dialect for a detected/requested product.
func ForProduct(p Product) Dialect {
	switch p {
	case Postgres:
		return newPostgres()
	case MySQL:
		return newMySQL()
	case MSSQL:
		return newMSSQL()
	case Oracle:
		return newOracle()
	case SQLite:
		return newSQLite()
	case Firebird:
		return newFirebird()
	case DuckDB:
		return newDuckDB()
	default:
		return newStandard()
	}
}

// ForDriverName maps a database/sql driver name (as registered with
// sql.Register, or the teacher's own `driverName` convention) to a Product.
func ForDriverName(driverName string) Product {
	switch strings.ToLower(driverName) {
	case "postgres", "pgx", "pq":
		return Postgres
	case "mysql":
		return MySQL
	case "sqlserver", "mssql":
		return MSSQL
	case "oracle", "godror", "go-ora":
		return Oracle
	case "sqlite3", "sqlite":
		return SQLite
	case "firebirdsql", "firebird":
		return Firebird
	case "duckdb":
		return DuckDB
	default:
		return Unknown
	}
}
