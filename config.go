package dbcore

import (
	"time"

	"github.com/pengdows/dbcore/dialect"
	"github.com/pengdows/dbcore/metrics"
)

// ReadWriteMode selects whether a DatabaseContext may issue write commands.
type ReadWriteMode int

const (
	// ReadWrite is the default: both read and write connections are usable.
	ReadWrite ReadWriteMode = iota
	// ReadOnly rejects ExecuteNonQuery, write-intent transactions and
	// AssertIsWriteConnection up front; GetConnection itself does not check
	// the mode.
	ReadOnly
)

// Config holds the inputs to NewContext. Only ConnectionString and
// ProviderName are required; everything else has a workable default.
type Config struct {
	Logger             Logger          // optional; defaults to the global logger
	Metrics            *metrics.Collector // optional; defaults to a fresh Collector with no percentile window
	Registry           any             // optional type-map registry; see package registry
	ConnectionString   string          // required: the read/write data source
	ReadOnlyConnectionString string    // optional: a dedicated RO data source
	ProviderName       string          // required: driver name, e.g. "postgres"
	DialectOverride    dialect.Dialect // optional explicit dialect, bypassing detection
	ConnMaxLifetime    time.Duration   // default: 30m
	ConnMaxIdleTime    time.Duration   // default: 5m
	OpTimeout          time.Duration   // default: 5s
	MaxOpenConns       int             // default: 10
	MaxIdleConns       int             // default: 5
	Mode               dialect.DbMode  // default: Best
	ReadWrite          ReadWriteMode   // default: ReadWrite
}

// Option configures a Config. Used with NewContext.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		OpTimeout:       5 * time.Second,
		Mode:            dialect.Best,
		ReadWrite:       ReadWrite,
	}
}

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(cfg *Config) { cfg.MaxOpenConns = n }
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) Option {
	return func(cfg *Config) { cfg.MaxIdleConns = n }
}

// WithConnMaxLifetime sets the maximum lifetime of a pooled connection.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(cfg *Config) { cfg.ConnMaxLifetime = d }
}

// WithConnMaxIdleTime sets the maximum idle time of a pooled connection.
func WithConnMaxIdleTime(d time.Duration) Option {
	return func(cfg *Config) { cfg.ConnMaxIdleTime = d }
}

// WithOpTimeout sets the default per-operation timeout.
func WithOpTimeout(d time.Duration) Option {
	return func(cfg *Config) { cfg.OpTimeout = d }
}

// WithLogger sets the logger for the context.
func WithLogger(logger Logger) Option {
	return func(cfg *Config) { cfg.Logger = logger }
}

// WithMetrics supplies a pre-built metrics.Collector, e.g. one configured
// with a percentile window.
func WithMetrics(c *metrics.Collector) Option {
	return func(cfg *Config) { cfg.Metrics = c }
}

// WithReadOnlyConnectionString supplies a dedicated read-only data source.
func WithReadOnlyConnectionString(dsn string) Option {
	return func(cfg *Config) { cfg.ReadOnlyConnectionString = dsn }
}

// WithMode requests a connection-acquisition strategy. The effective mode
// may differ after topology-driven coercion; see dialect.CoerceMode.
func WithMode(m dialect.DbMode) Option {
	return func(cfg *Config) { cfg.Mode = m }
}

// WithReadWriteMode restricts the context to read-only operation.
func WithReadWriteMode(m ReadWriteMode) Option {
	return func(cfg *Config) { cfg.ReadWrite = m }
}

// WithDialect overrides dialect auto-detection with an explicit Dialect.
func WithDialect(d dialect.Dialect) Option {
	return func(cfg *Config) { cfg.DialectOverride = d }
}
