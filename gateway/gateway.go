// Package gateway generates parameterized CRUD SQL for registry-described
// entity types against a dbcore.DatabaseContext: base/keyed retrieval,
// insert with the dialect's generated-key dance, diff-or-unconditional
// update, delete, and the compound WHERE-IN builder with a parameter-count
// safety cap. It depends on the root dbcore package, dialect, and
// registry.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
	"github.com/pengdows/dbcore/lru"
	"github.com/pengdows/dbcore/registry"
)

// ID is the set of Go types a gateway may use as an entity's id: the
// integral kinds, string, and uuid.UUID. Instantiating TableGateway with
// any other K fails at compile time (the spec's "fails at static
// construction" realized as a Go type constraint instead of a runtime
// check).
type ID interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~string | ~[16]byte
}

// AuditResolver supplies the current actor for is_created_by/
// is_last_updated_by columns. Gateways that have such columns but no
// resolver configured fail at write time per spec §3's audit invariant.
type AuditResolver func(ctx context.Context) (any, error)

type config struct {
	auditResolver         AuditResolver
	maxParameterSafetyCap int
	readerPlanCacheSize   int
	sequenceName          string
	correlationTokenColumn string
}

func defaultConfig() config {
	return config{
		readerPlanCacheSize:    256,
		correlationTokenColumn: "correlation_token",
	}
}

// Option configures a TableGateway at construction.
type Option func(*config)

// WithAuditResolver supplies the resolver used for is_created_by/
// is_last_updated_by columns.
func WithAuditResolver(r AuditResolver) Option {
	return func(c *config) { c.auditResolver = r }
}

// WithMaxParameterSafetyCap sets a cap on BuildWhere's parameter count
// tighter than the dialect's own max_parameter_limit.
func WithMaxParameterSafetyCap(n int) Option {
	return func(c *config) { c.maxParameterSafetyCap = n }
}

// WithReaderPlanCacheSize overrides the reader-plan LRU's capacity
// (default 256).
func WithReaderPlanCacheSize(n int) Option {
	return func(c *config) { c.readerPlanCacheSize = n }
}

// WithSequenceName overrides the sequence name used by the
// PrefetchSequence generated-key plan (default "<table>_<idcolumn>_seq").
func WithSequenceName(name string) Option {
	return func(c *config) { c.sequenceName = name }
}

// WithCorrelationTokenColumn overrides the physical column name used by
// the CorrelationToken generated-key plan (default "correlation_token").
func WithCorrelationTokenColumn(name string) Option {
	return func(c *config) { c.correlationTokenColumn = name }
}

// TableGateway generates SQL for entity type E, whose id/primary key is
// type K.
type TableGateway[E any, K ID] struct {
	ctx   *dbcore.DatabaseContext
	table *registry.TableInfo
	cfg   config

	mu           sync.Mutex
	wrappedNames map[dialect.Product]string

	plans *lru.Cache[*readerPlan]
}

// New builds a gateway for entity type E over tableName, bound to dc.
// E is registered with the registry package on first use if not already
// registered.
func New[E any, K ID](dc *dbcore.DatabaseContext, tableName string, opts ...Option) *TableGateway[E, K] {
	table := registry.Lookup[E]()
	if table == nil {
		table = registry.Register[E](tableName)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	plans, err := lru.New[*readerPlan](cfg.readerPlanCacheSize)
	if err != nil {
		panic(fmt.Errorf("gateway: %w", err))
	}

	return &TableGateway[E, K]{
		ctx:          dc,
		table:        table,
		cfg:          cfg,
		wrappedNames: make(map[dialect.Product]string),
		plans:        plans,
	}
}

// wrappedTableName returns this gateway's table name quoted for the
// context's current dialect, computing and caching it once per dialect
// product. Repeated calls for the same product return the same string.
func (g *TableGateway[E, K]) wrappedTableName() string {
	d := g.ctx.Dialect()
	p := d.Product()

	g.mu.Lock()
	defer g.mu.Unlock()
	if name, ok := g.wrappedNames[p]; ok {
		return name
	}
	name := d.WrapObjectName(g.table.TableName)
	g.wrappedNames[p] = name
	return name
}

// BuildBaseRetrieve emits SELECT col1, col2, ... FROM table[ alias],
// columns ordered by explicit ordinal if any are set, else by struct
// declaration order.
func (g *TableGateway[E, K]) BuildBaseRetrieve(alias string) *dbcore.SqlContainer {
	c := g.ctx.NewSqlContainer("")

	cols := make([]string, len(g.table.Columns))
	for i, col := range g.table.Columns {
		cols[i] = "{Q}" + col.Name + "{q}"
	}

	c.WriteString("SELECT " + strings.Join(cols, ", ") + "\nFROM " + g.wrappedTableName())
	if alias != "" {
		c.WriteString(" " + alias)
	}
	return c
}

// BuildRetrieve appends a WHERE <id> IN (...) clause to a base retrieve
// for entities keyed by a single is_id column. ids must be non-empty;
// entities with a composite primary key must use BuildRetrieveByKeys
// instead.
func (g *TableGateway[E, K]) BuildRetrieve(ids []K, alias string) (*dbcore.SqlContainer, error) {
	if len(ids) == 0 {
		return nil, &dbcore.ArgumentError{Message: "List of IDs cannot be empty.", Parameter: "ids"}
	}
	if g.table.IDColumn == nil {
		return nil, &dbcore.NotSupportedError{Message: "entity has a composite primary key; use BuildRetrieveByKeys"}
	}

	c := g.BuildBaseRetrieve(alias)
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	if err := g.BuildWhere(c, "{Q}"+g.table.IDColumn.Name+"{q}", values); err != nil {
		return nil, err
	}
	return c, nil
}

// BuildRetrieveNullable is BuildRetrieve for a nullable single-column id:
// nil entries in ids split the WHERE clause into "col IN (...) OR col IS
// NULL" per spec §4.4.1.
func (g *TableGateway[E, K]) BuildRetrieveNullable(ids []*K, alias string) (*dbcore.SqlContainer, error) {
	if len(ids) == 0 {
		return nil, &dbcore.ArgumentError{Message: "List of IDs cannot be empty.", Parameter: "ids"}
	}
	if g.table.IDColumn == nil {
		return nil, &dbcore.NotSupportedError{Message: "entity has a composite primary key; use BuildRetrieveByKeys"}
	}

	c := g.BuildBaseRetrieve(alias)
	values := make([]any, len(ids))
	for i, id := range ids {
		if id == nil {
			values[i] = nil
			continue
		}
		values[i] = *id
	}
	if err := g.BuildWhere(c, "{Q}"+g.table.IDColumn.Name+"{q}", values); err != nil {
		return nil, err
	}
	return c, nil
}

// BuildRetrieveByKeys appends a WHERE ((pk1=@k0 AND pk2=@k1) OR (...))
// clause for composite-primary-key entities, one tuple per result row,
// preserving pk_order within each tuple.
func (g *TableGateway[E, K]) BuildRetrieveByKeys(keyTuples [][]any, alias string) (*dbcore.SqlContainer, error) {
	if len(keyTuples) == 0 {
		return nil, &dbcore.ArgumentError{Message: "List of IDs cannot be empty.", Parameter: "keyTuples"}
	}
	if len(g.table.PrimaryKey) == 0 {
		return nil, &dbcore.NotSupportedError{Message: "entity has no composite primary key"}
	}

	c := g.BuildBaseRetrieve(alias)
	if err := g.appendCompositeKeyWhere(c, keyTuples); err != nil {
		return nil, err
	}
	return c, nil
}

// appendCompositeKeyWhere appends the OR-of-ANDs composite-key clause
// shared by BuildRetrieveByKeys and BuildDeleteByKeys.
func (g *TableGateway[E, K]) appendCompositeKeyWhere(c *dbcore.SqlContainer, keyTuples [][]any) error {
	clauses := make([]string, len(keyTuples))
	for i, tuple := range keyTuples {
		if len(tuple) != len(g.table.PrimaryKey) {
			return &dbcore.ArgumentError{Message: fmt.Sprintf("expected %d key values, got %d", len(g.table.PrimaryKey), len(tuple))}
		}
		parts := make([]string, len(tuple))
		for j, pk := range g.table.PrimaryKey {
			pName := c.AddAutoParameter("k", pk.DbType.String(), tuple[j], dbcore.DirectionInput)
			parts[j] = "{Q}" + pk.Name + "{q} = {S}" + pName
		}
		clauses[i] = "(" + strings.Join(parts, " AND ") + ")"
	}

	if c.HasWhereAppended() {
		c.WriteString(" AND (")
	} else {
		c.WriteString(" WHERE (")
		c.MarkWhereAppended()
	}
	c.WriteString(strings.Join(clauses, " OR ") + ")")
	return nil
}

// BuildWhere appends "(col IN (@w0,...) [OR col IS NULL])" to c, prefixed
// with " AND (" if c already has a WHERE clause, else " WHERE (". A nil
// entry in values becomes the "OR col IS NULL" branch. Fails
// TooManyParametersError if the non-nil value count exceeds the
// dialect's max_parameter_limit (or a tighter configured safety cap).
func (g *TableGateway[E, K]) BuildWhere(c *dbcore.SqlContainer, wrappedColumn string, values []any) error {
	limit := g.ctx.Dialect().MaxParameterLimit()
	if g.cfg.maxParameterSafetyCap > 0 && g.cfg.maxParameterSafetyCap < limit {
		limit = g.cfg.maxParameterSafetyCap
	}

	nonNull := make([]any, 0, len(values))
	hasNull := false
	for _, v := range values {
		if v == nil {
			hasNull = true
			continue
		}
		nonNull = append(nonNull, v)
	}

	if limit > 0 && len(nonNull) > limit {
		return &dbcore.TooManyParametersError{Count: len(nonNull), Limit: limit}
	}

	if c.HasWhereAppended() {
		c.WriteString(" AND (")
	} else {
		c.WriteString(" WHERE (")
		c.MarkWhereAppended()
	}

	names := make([]string, len(nonNull))
	for i, v := range nonNull {
		names[i] = "{S}" + c.AddAutoParameter("w", "", v, dbcore.DirectionInput)
	}
	c.WriteString(wrappedColumn + " IN (" + strings.Join(names, ", ") + ")")
	if hasNull {
		c.WriteString(" OR " + wrappedColumn + " IS NULL")
	}
	c.WriteString(")")
	return nil
}
