package gateway

import (
	"context"
	"reflect"
	"strings"

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/registry"
)

// readerPlan is a cached mapping from a query's ordinal result-column
// positions to the registered entity columns they feed, resolved once per
// distinct column-name vector and reused on every subsequent row with the
// same shape.
type readerPlan struct {
	entries []planEntry
}

type planEntry struct {
	ordinal int
	column  *registry.ColumnInfo
}

// getOrBuildReaderPlan resolves the plan for cols, a query's result
// column names in order. On a cache miss it reads the name vector exactly
// once (the single batched rows.Columns() call is the Go-native analogue
// of "read GetName(i) once per ordinal"); a cache hit costs nothing
// beyond the key's string join and the LRU lookup.
func (g *TableGateway[E, K]) getOrBuildReaderPlan(ctx context.Context, cols []string) (*readerPlan, error) {
	key := strings.Join(cols, "\x1f")
	return g.plans.GetOrAdd(ctx, key, func(context.Context) (*readerPlan, error) {
		plan := &readerPlan{entries: make([]planEntry, 0, len(cols))}
		for i, name := range cols {
			col, ok := g.table.ByName[name]
			if !ok {
				continue
			}
			plan.entries = append(plan.entries, planEntry{ordinal: i, column: col})
		}
		return plan, nil
	})
}

// LoadOptions controls LoadAsync's strict-vs-lenient coercion behavior.
type LoadOptions struct {
	// Lenient, when true, keeps a property's Go zero value on a coercion
	// or set failure instead of failing the whole load, incrementing
	// LenientDropCount and recording the column name.
	Lenient               bool
	LenientDropCount      int
	LenientDroppedColumns []string
}

// mapRow scans one row into a freshly allocated *E using plan, applying
// registered coercions and the entity's field setters. A nil column value
// leaves the property at its Go zero value (IsDBNull semantics). A
// coercion or set failure is reported as InvalidValueError in strict
// mode, or recorded and skipped in lenient mode.
func (g *TableGateway[E, K]) mapRow(rows dbRows, plan *readerPlan, numCols int, opts *LoadOptions) (*E, error) {
	raw := make([]any, numCols)
	dest := make([]any, numCols)
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	entity := new(E)
	ev := reflect.ValueOf(entity)

	for _, entry := range plan.entries {
		v := raw[entry.ordinal]
		if v == nil {
			continue
		}

		coerced, err := coerceToFieldType(entry.column.GoType, v)
		if err == nil {
			err = entry.column.SetFieldValue(ev, coerced)
		}
		if err != nil {
			if opts != nil && opts.Lenient {
				opts.LenientDropCount++
				opts.LenientDroppedColumns = append(opts.LenientDroppedColumns, entry.column.Name)
				continue
			}
			return nil, &dbcore.InvalidValueError{Column: entry.column.Name, Err: err}
		}
	}

	return entity, nil
}

// dbRows is the subset of *sql.Rows mapRow needs; it exists so tests can
// exercise mapRow against a hand-built scanner without opening a real
// result set.
type dbRows interface {
	Scan(dest ...any) error
}

// LoadAsync executes c as a reader and maps every row to a new *E using
// the cached reader plan for that query's column shape.
func (g *TableGateway[E, K]) LoadAsync(ctx context.Context, c *dbcore.SqlContainer, opts *LoadOptions) ([]*E, error) {
	rows, err := c.ExecuteReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	plan, err := g.getOrBuildReaderPlan(ctx, cols)
	if err != nil {
		return nil, err
	}

	var out []*E
	for rows.Next() {
		entity, err := g.mapRow(rows, plan, len(cols), opts)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	c.RecordRowsRead(int64(len(out)))
	return out, nil
}

// LoadOneAsync executes c as a single-row reader and maps the one row to
// a new *E, returning dbcore.ErrNotFound if the query produced no rows.
func (g *TableGateway[E, K]) LoadOneAsync(ctx context.Context, c *dbcore.SqlContainer) (*E, error) {
	rows, err := c.ExecuteReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, dbcore.ErrNotFound
	}

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	plan, err := g.getOrBuildReaderPlan(ctx, cols)
	if err != nil {
		return nil, err
	}

	entity, err := g.mapRow(rows, plan, len(cols), nil)
	if err != nil {
		return nil, err
	}
	c.RecordRowsRead(1)
	return entity, nil
}
