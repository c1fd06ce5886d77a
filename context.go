// Package dbcore is a dialect-agnostic, attribute-driven relational data
// access core. A DatabaseContext is the single entry point for creating SQL
// containers, acquiring connections by read/write intent, opening
// transactions, and reporting metrics; registry and gateway build on top of
// it to map Go structs to tables without per-entity hand-written SQL.
package dbcore

import (
	"context"
	"database/sql"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/pengdows/dbcore/dialect"
	"github.com/pengdows/dbcore/metrics"
)

// DatabaseContext is the top-level session: it holds the factory (a
// *sql.DB opened via ProviderName), dialect, connection strategy, optional
// read-only data source and metrics collector. The lock for pinned-mode
// serialization belongs to the connection strategy.
type DatabaseContext struct {
	db           *sql.DB
	roDB         *sql.DB // not assigned during construction; Dispose closes it only when set
	logger       Logger
	metrics      *metrics.Collector
	dialect      dialect.Dialect
	strategy     connectionStrategy
	info         dialect.DatabaseInfo
	connString   string
	roConnString string
	providerName string
	preamble     string
	mode         dialect.DbMode
	readWrite    ReadWriteMode
	seed         int64
	disposed     int32
}

// NewContext constructs a DatabaseContext per spec §4.1's eager, strict
// lifecycle: resolve dialect, parse/augment the connection string, coerce
// the connection mode, open an init connection and detect the database,
// retain or dispose that connection depending on the effective mode, and
// validate an explicit RO connection string if one was given.
func NewContext(ctx context.Context, cfg *Config) (*DatabaseContext, error) {
	base := defaultConfig()
	if cfg != nil {
		*base = mergeConfig(*base, *cfg)
	}

	logger := base.Logger
	if logger == nil {
		logger = defaultLogger
	}

	d := base.DialectOverride
	if d == nil {
		d = dialect.ForProduct(dialect.ForDriverName(base.ProviderName))
	}

	db, err := sql.Open(base.ProviderName, base.ConnectionString)
	if err != nil {
		return nil, &ConnectionFailedError{Phase: "Open", Role: "ReadWrite", Err: err}
	}
	db.SetMaxOpenConns(base.MaxOpenConns)
	db.SetMaxIdleConns(base.MaxIdleConns)
	db.SetConnMaxLifetime(base.ConnMaxLifetime)
	db.SetConnMaxIdleTime(base.ConnMaxIdleTime)

	return newContextFromDB(ctx, db, d, logger, base)
}

// newContextFromDB runs the remainder of the eager construction sequence
// against an already-opened *sql.DB. It is split out from NewContext so
// tests can inject a sqlmock-backed *sql.DB without going through
// database/sql's driver registry.
func newContextFromDB(ctx context.Context, db *sql.DB, d dialect.Dialect, logger Logger, base *Config) (*DatabaseContext, error) {
	dc := &DatabaseContext{
		db:           db,
		logger:       logger,
		dialect:      d,
		connString:   base.ConnectionString,
		providerName: base.ProviderName,
		readWrite:    base.ReadWrite,
		seed:         time.Now().UnixNano(),
	}
	if base.Metrics != nil {
		dc.metrics = base.Metrics
	} else {
		dc.metrics = metrics.New(metrics.Options{})
	}

	topo := detectTopology(d.Product(), base.ConnectionString)
	coercion := dialect.CoerceMode(base.Mode, topo)
	dc.mode = coercion.Effective
	if coercion.Changed {
		logger.Warn("DbMode override", "requested", base.Mode.String(), "effective", coercion.Effective.String())
	} else if coercion.FromBest {
		logger.Info("DbMode auto-selection", "effective", coercion.Effective.String())
	}

	initConn, err := dc.openRawConnection(ctx, dc.connString)
	if err != nil {
		db.Close()
		return nil, &ConnectionFailedError{Phase: "InitConnect", Role: "ReadWrite", Err: err}
	}

	info, err := detectDatabaseInfo(ctx, initConn, d)
	if err != nil {
		initConn.Close()
		db.Close()
		return nil, &ConnectionFailedError{Phase: "InitConnect", Role: "ReadWrite", Err: err}
	}
	dc.info = info
	dc.preamble = d.SessionSettingsPreamble()

	pinned := dc.mode != dialect.Standard
	if pinned {
		if dc.preamble != "" {
			if _, err := initConn.ExecContext(ctx, dc.preamble); err != nil {
				initConn.Close()
				db.Close()
				return nil, &ConnectionFailedError{Phase: "InitConnect", Role: "ReadWrite", Err: err}
			}
		}
		tracked := newTrackedConnection(initConn, false, true)
		dc.strategy = newStrategyFor(dc.mode, dc, tracked)
	} else {
		initConn.Close()
		dc.strategy = newStandardStrategy(dc)
	}

	dc.roConnString = base.ReadOnlyConnectionString
	if dc.roConnString == "" && base.ReadOnlyConnectionString == "" {
		dc.roConnString = deriveReadOnlyConnectionString(appendReadOnlyApplicationName(dc.connString), d)
	}
	if base.ReadOnlyConnectionString != "" {
		probe, err := dc.openRawConnection(ctx, dc.roConnString)
		if err != nil {
			dc.Dispose()
			return nil, &ConnectionFailedError{Phase: "ReadOnlyValidation", Role: "ReadOnly", Err: err}
		}
		probe.Close()
	}

	return dc, nil
}

func mergeConfig(base, override Config) Config {
	if override.Logger != nil {
		base.Logger = override.Logger
	}
	if override.Metrics != nil {
		base.Metrics = override.Metrics
	}
	if override.Registry != nil {
		base.Registry = override.Registry
	}
	if override.ConnectionString != "" {
		base.ConnectionString = override.ConnectionString
	}
	if override.ReadOnlyConnectionString != "" {
		base.ReadOnlyConnectionString = override.ReadOnlyConnectionString
	}
	if override.ProviderName != "" {
		base.ProviderName = override.ProviderName
	}
	if override.DialectOverride != nil {
		base.DialectOverride = override.DialectOverride
	}
	if override.ConnMaxLifetime != 0 {
		base.ConnMaxLifetime = override.ConnMaxLifetime
	}
	if override.ConnMaxIdleTime != 0 {
		base.ConnMaxIdleTime = override.ConnMaxIdleTime
	}
	if override.OpTimeout != 0 {
		base.OpTimeout = override.OpTimeout
	}
	if override.MaxOpenConns != 0 {
		base.MaxOpenConns = override.MaxOpenConns
	}
	if override.MaxIdleConns != 0 {
		base.MaxIdleConns = override.MaxIdleConns
	}
	if override.Mode != dialect.Best {
		base.Mode = override.Mode
	}
	if override.ReadWrite != ReadWrite {
		base.ReadWrite = override.ReadWrite
	}
	return base
}

func newStrategyFor(mode dialect.DbMode, opener connOpener, pinned *TrackedConnection) connectionStrategy {
	switch mode {
	case dialect.KeepAlive:
		return newKeepAliveStrategy(opener, pinned)
	case dialect.SingleWriter:
		return newSingleWriterStrategy(opener, pinned)
	case dialect.SingleConnection:
		return newSingleConnectionStrategy(pinned)
	default:
		return newStandardStrategy(opener)
	}
}

func detectTopology(product dialect.Product, dataSource string) dialect.Topology {
	topo := dialect.Topology{Product: product}
	switch product {
	case dialect.SQLite:
		if dialect.IsInMemoryDataSource(dataSource) {
			topo.IsSQLiteInMemoryIsolated = true
		} else {
			topo.IsSQLiteSharedOrFile = true
		}
	case dialect.DuckDB:
		if !dialect.IsDuckDBInMemoryDataSource(dataSource) {
			topo.IsDuckDBFile = true
		}
	case dialect.Firebird:
		topo.IsEmbedded = isFirebirdEmbedded(dataSource)
	case dialect.MSSQL:
		topo.IsLocalDB = isLocalDBDataSource(dataSource)
	}
	return topo
}

// isFirebirdEmbedded reports whether dataSource addresses Firebird's
// embedded (fbembed) engine rather than a networked server. It always
// returns false: NewContext does not detect the embedded engine, and Config
// has no way to set dialect.Topology.IsEmbedded, so a Firebird source is
// coerced as a full server. Only a caller that builds its own
// dialect.Topology and calls dialect.CoerceMode reaches the embedded row.
func isFirebirdEmbedded(dataSource string) bool {
	return false
}

func isLocalDBDataSource(dataSource string) bool {
	return containsFold(dataSource, "(localdb)")
}

func containsFold(s, sub string) bool {
	return len(s) >= len(sub) && fold(s, sub)
}

func fold(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if equalFold(s[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func detectDatabaseInfo(ctx context.Context, conn *sql.Conn, d dialect.Dialect) (dialect.DatabaseInfo, error) {
	var version string
	_ = conn.QueryRowContext(ctx, versionProbeQuery(d.Product())).Scan(&version)
	info := d.ParseVersion(version)

	if probe, ok := d.(dialect.RCSIProbeQuery); ok {
		var rcsiOn bool
		var snapshotState int
		if err := conn.QueryRowContext(ctx, probe.RCSIProbeQuery()).Scan(&rcsiOn, &snapshotState); err == nil {
			info.RCSIEnabled = rcsiOn
			info.SnapshotEnabled = snapshotState == 1
		}
	}

	return info, nil
}

func versionProbeQuery(p dialect.Product) string {
	switch p {
	case dialect.Postgres:
		return "SELECT version()"
	case dialect.MySQL:
		return "SELECT VERSION()"
	case dialect.MSSQL:
		return "SELECT @@VERSION"
	case dialect.SQLite:
		return "SELECT sqlite_version()"
	default:
		return "SELECT 1"
	}
}

// openConnection implements connOpener for use by the connection
// strategies: it opens a fresh physical connection, applies the
// appropriate session preamble, and wraps it as a TrackedConnection.
func (dc *DatabaseContext) openConnection(ctx context.Context, kind ConnectionKind) (*TrackedConnection, error) {
	readOnly := kind == Read
	dsn := dc.connString
	if readOnly {
		dsn = dc.roConnString
	}

	conn, err := dc.openRawConnection(ctx, dsn)
	if err != nil {
		return nil, &ConnectionFailedError{Phase: "Open", Role: roleName(kind), Err: err}
	}

	preamble := dc.preamble
	if readOnly {
		preamble = dc.dialect.ReadOnlySessionSettingsPreamble()
	}
	if preamble != "" {
		if _, err := conn.ExecContext(ctx, preamble); err != nil {
			conn.Close()
			return nil, &ConnectionFailedError{Phase: "Preamble", Role: roleName(kind), Err: err}
		}
	}

	dc.metrics.IncConnectionsOpened()
	return newTrackedConnection(conn, readOnly, false), nil
}

// openRawConnection opens one *sql.Conn against dsn via db/sql.Open, using
// the same ProviderName as the context's primary pool. A distinct dsn (the
// RO string) still goes through database/sql's driver registry rather than
// dc.db's pool, since dc.db is bound to the RW dsn.
func (dc *DatabaseContext) openRawConnection(ctx context.Context, dsn string) (*sql.Conn, error) {
	if dsn == dc.connString && dc.db != nil {
		return dc.db.Conn(ctx)
	}
	pool, err := sql.Open(dc.providerName, dsn)
	if err != nil {
		return nil, err
	}
	conn, err := pool.Conn(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return conn, nil
}

// GetConnection acquires a connection for the given intent, delegating to
// the context's connection strategy.
func (dc *DatabaseContext) GetConnection(ctx context.Context, kind ConnectionKind, shared bool) (*TrackedConnection, error) {
	if dc.IsDisposed() {
		return nil, &ObjectDisposedError{Object: "DatabaseContext"}
	}
	return dc.strategy.GetConnection(ctx, kind, shared)
}

// CloseAndDisposeConnection releases a connection obtained from
// GetConnection. It is idempotent on nil and on pinned connections in
// pinned modes.
func (dc *DatabaseContext) CloseAndDisposeConnection(c *TrackedConnection) error {
	return dc.strategy.CloseAndDispose(c)
}

// AssertIsReadConnection fails InvalidOperation if c is not usable for
// reads — in practice every tracked connection qualifies, so this exists to
// give callers (gateway code) one explicit assertion point matching the
// provider-facing surface in spec §6, rather than asserting nothing at all.
func (dc *DatabaseContext) AssertIsReadConnection(c *TrackedConnection) error {
	if c == nil {
		return &InvalidOperationError{Message: "connection is nil"}
	}
	return nil
}

// AssertIsWriteConnection fails InvalidOperation if c is read-only or the
// context itself is ReadOnly.
func (dc *DatabaseContext) AssertIsWriteConnection(c *TrackedConnection) error {
	if c == nil {
		return &InvalidOperationError{Message: "connection is nil"}
	}
	if dc.readWrite == ReadOnly {
		return &InvalidOperationError{Message: "context is read-only"}
	}
	if c.IsReadOnly() {
		return &InvalidOperationError{Message: "connection is read-only"}
	}
	return nil
}

// GenerateRandomName returns a random identifier suitable for a parameter
// or correlation-token column name; see generateRandomName for the
// collision-avoidance rationale.
func (dc *DatabaseContext) GenerateRandomName(maxLen int) string {
	return generateRandomName(rand.New(rand.NewSource(dc.rngSeed())), maxLen)
}

// WrapObjectName quotes name (optionally schema-qualified) per the
// context's dialect.
func (dc *DatabaseContext) WrapObjectName(name string) string {
	return dc.dialect.WrapObjectName(name)
}

// MakeParameterName returns a dialect-appropriate parameter name for name.
func (dc *DatabaseContext) MakeParameterName(name string) string {
	return dc.dialect.MakeParameterName(name)
}

// CreateDbParameter constructs a Parameter descriptor without binding it to
// any container; gateway code uses this when it needs to reason about a
// parameter's shape before committing it to a container.
func (dc *DatabaseContext) CreateDbParameter(name, dbType string, value any, dir ParameterDirection) *Parameter {
	if name == "" {
		name = dc.GenerateRandomName(dc.dialect.ParameterNameMaxLength())
	}
	return &Parameter{Name: name, DbType: dbType, Value: value, Direction: dir}
}

// rngSeed returns a per-context seed that still varies per call site via
// atomic increment, so containers created back-to-back don't share a
// predictable sequence.
func (dc *DatabaseContext) rngSeed() int64 {
	return atomic.AddInt64(&dc.seed, 1)
}

// ConnectionMode returns the effective DbMode after topology coercion.
func (dc *DatabaseContext) ConnectionMode() dialect.DbMode { return dc.mode }

// ReadWriteMode returns the context's configured read/write mode.
func (dc *DatabaseContext) ReadWriteMode() ReadWriteMode { return dc.readWrite }

// DataSourceInformation returns the detected product/version/standard-level
// information gathered at construction time.
func (dc *DatabaseContext) DataSourceInformation() dialect.DatabaseInfo { return dc.info }

// SessionSettingsPreamble returns the read-write session preamble applied
// to every new physical connection.
func (dc *DatabaseContext) SessionSettingsPreamble() string { return dc.preamble }

// ProcWrappingStyle returns the dialect's stored-procedure wrapping style.
func (dc *DatabaseContext) ProcWrappingStyle() dialect.ProcWrappingStyle {
	return dc.dialect.ProcWrappingStyle()
}

// MaxParameterLimit returns the dialect's maximum parameter count per
// command.
func (dc *DatabaseContext) MaxParameterLimit() int { return dc.dialect.MaxParameterLimit() }

// MaxOutputParameters returns the dialect's maximum output-parameter count.
func (dc *DatabaseContext) MaxOutputParameters() int { return dc.dialect.MaxOutputParameters() }

// QuotePrefix / QuoteSuffix / CompositeIdentifierSeparator expose the
// dialect's identifier-quoting conventions.
func (dc *DatabaseContext) QuotePrefix() string { return dc.dialect.QuotePrefix() }
func (dc *DatabaseContext) QuoteSuffix() string { return dc.dialect.QuoteSuffix() }
func (dc *DatabaseContext) CompositeIdentifierSeparator() string {
	return dc.dialect.CompositeIdentifierSeparator()
}

// RCSIEnabled / SnapshotIsolationEnabled report SQL Server's READ_COMMITTED_SNAPSHOT
// and ALLOW_SNAPSHOT_ISOLATION state, detected at construction for dialects
// that implement dialect.RCSIProbeQuery.
func (dc *DatabaseContext) RCSIEnabled() bool             { return dc.info.RCSIEnabled }
func (dc *DatabaseContext) SnapshotIsolationEnabled() bool { return dc.info.SnapshotEnabled }

// IsReadOnlyConnection reports whether the context itself only permits
// reads.
func (dc *DatabaseContext) IsReadOnlyConnection() bool { return dc.readWrite == ReadOnly }

// IsDisposed reports whether Dispose has been called.
func (dc *DatabaseContext) IsDisposed() bool { return atomic.LoadInt32(&dc.disposed) != 0 }

// Metrics returns the context's metrics collector.
func (dc *DatabaseContext) Metrics() *metrics.Collector { return dc.metrics }

// Dialect returns the context's resolved dialect.
func (dc *DatabaseContext) Dialect() dialect.Dialect { return dc.dialect }

// Logger returns the context's configured logger.
func (dc *DatabaseContext) Logger() Logger { return dc.logger }

// Dispose closes pinned connections and releases pool handles. It is safe
// to call more than once.
func (dc *DatabaseContext) Dispose() error {
	if !atomic.CompareAndSwapInt32(&dc.disposed, 0, 1) {
		return nil
	}
	var firstErr error
	if dc.strategy != nil {
		if err := dc.strategy.Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if dc.db != nil {
		if err := dc.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if dc.roDB != nil {
		if err := dc.roDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
