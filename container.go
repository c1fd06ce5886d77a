package dbcore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pengdows/dbcore/dialect"
)

// SqlContainer is an appendable query buffer plus an insertion-ordered
// parameter bag. It borrows a reference to the DatabaseContext that created
// it; it may be disposed (released) independently of that context.
type SqlContainer struct {
	ctx             *DatabaseContext
	query           strings.Builder
	params          *parameterBag
	hasWhereAppended bool
}

// NewSqlContainer creates an empty container bound to ctx. initialText, if
// non-empty, seeds the query buffer.
func (dc *DatabaseContext) NewSqlContainer(initialText string) *SqlContainer {
	c := &SqlContainer{
		ctx:    dc,
		params: newParameterBag(),
	}
	if initialText != "" {
		c.query.WriteString(initialText)
	}
	return c
}

// WrapProcedureCall builds a SqlContainer invoking the stored procedure
// procName with params, rendered per the context's dialect.ProcWrappingStyle.
// A dialect with ProcUnsupported always fails with NotSupportedError, and an
// empty procName always fails with ArgumentError, regardless of dialect.
func (dc *DatabaseContext) WrapProcedureCall(procName string, params ...*Parameter) (*SqlContainer, error) {
	if procName == "" {
		return nil, &ArgumentError{Message: "Procedure name cannot be null or empty.", Parameter: "procName"}
	}

	style := dc.dialect.ProcWrappingStyle()
	if style == dialect.ProcUnsupported {
		return nil, &NotSupportedError{Message: "Stored procedures are not supported by this database."}
	}

	c := dc.NewSqlContainer("")
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = "{S}" + c.AddParameterWithValue(p.Name, p.DbType, p.Value, p.Direction)
	}
	wrapped := dc.WrapObjectName(procName)
	argList := strings.Join(names, ", ")

	switch style {
	case dialect.ProcExec:
		if argList == "" {
			c.SetQuery("EXEC " + wrapped)
		} else {
			c.SetQuery("EXEC " + wrapped + " " + argList)
		}
	case dialect.ProcCall:
		c.SetQuery("{ CALL " + wrapped + "(" + argList + ") }")
	case dialect.ProcPostgreSQL:
		c.SetQuery("SELECT " + wrapped + "(" + argList + ")")
	case dialect.ProcOracle:
		c.SetQuery("BEGIN " + wrapped + "(" + argList + "); END;")
	case dialect.ProcExecuteProcedure:
		if argList == "" {
			c.SetQuery("EXECUTE PROCEDURE " + wrapped)
		} else {
			c.SetQuery("EXECUTE PROCEDURE " + wrapped + " " + argList)
		}
	}

	return c, nil
}

// WriteString appends text to the query buffer verbatim.
func (c *SqlContainer) WriteString(text string) {
	c.query.WriteString(text)
}

// Query returns the current, unrendered query text (neutral tokens intact).
func (c *SqlContainer) Query() string { return c.query.String() }

// SetQuery replaces the query buffer's contents.
func (c *SqlContainer) SetQuery(text string) {
	c.query.Reset()
	c.query.WriteString(text)
}

// HasWhereAppended reports whether BuildWhere-family helpers have already
// appended a WHERE clause to this container.
func (c *SqlContainer) HasWhereAppended() bool { return c.hasWhereAppended }

// MarkWhereAppended records that a WHERE clause has been appended.
func (c *SqlContainer) MarkWhereAppended() { c.hasWhereAppended = true }

// AddParameterWithValue stores the value plus its dbType and direction
// under name and returns it unchanged. If name is empty, it allocates the
// next sequential "p" name instead (p0, p1, ...).
func (c *SqlContainer) AddParameterWithValue(name, dbType string, value any, dir ParameterDirection) string {
	if name == "" {
		return c.params.AddAuto("p", dbType, value, dir)
	}
	return c.params.Add(name, dbType, value, dir)
}

// AddAutoParameter allocates the next sequential name under prefix (scoped
// to this container) and stores the value under it. Gateway code uses "w"
// for BuildWhere's IN-list values and "k" for composite-key WHERE columns,
// matching spec §8 Testable Scenarios S1/S2 and Testable Property 9.
func (c *SqlContainer) AddAutoParameter(prefix, dbType string, value any, dir ParameterDirection) string {
	return c.params.AddAuto(prefix, dbType, value, dir)
}

// ParameterCount reports the number of bound parameters.
func (c *SqlContainer) ParameterCount() int { return c.params.Len() }

// Clear resets the query buffer and parameter bag and clears
// hasWhereAppended.
func (c *SqlContainer) Clear() {
	c.query.Reset()
	c.params.Clear()
	c.hasWhereAppended = false
}

// Clone copies query text, flags, and parameter values into a new
// container bound to target (or to c's own context, if target is nil),
// re-binding parameter names/markers and identifier quotes to the target's
// dialect. Mutating the clone never affects the original.
func (c *SqlContainer) Clone(target *DatabaseContext) *SqlContainer {
	if target == nil {
		target = c.ctx
	}
	clone := &SqlContainer{
		ctx:              target,
		params:           c.params.Clone(),
		hasWhereAppended: c.hasWhereAppended,
	}
	clone.query.WriteString(c.query.String())
	return clone
}

// renderedText substitutes neutral tokens ({Q}...{q} for identifier quotes,
// {S}name for parameter markers) against the dialect currently bound to
// c.ctx, so re-executing after mutating query text or cloning into a
// different-dialect context always reflects the current target.
func (c *SqlContainer) renderedText() string {
	d := c.ctx.dialect
	s := c.query.String()
	s = strings.ReplaceAll(s, "{Q}", d.QuotePrefix())
	s = strings.ReplaceAll(s, "{q}", d.QuoteSuffix())

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "{S}") {
			j := i + 3
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			name := s[i+3 : j]
			b.WriteString(d.MakeParameterName(name))
			i = j
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// execArgs renders the bound parameters as database/sql driver arguments:
// sql.Named when the dialect supports named parameters, plain positional
// values otherwise (matching the rendered "?" markers in renderedText).
func (c *SqlContainer) execArgs() []any {
	params := c.params.Ordered()
	args := make([]any, 0, len(params))
	named := c.ctx.dialect.Capabilities().SupportsNamedParameters
	for _, p := range params {
		v := c.ctx.dialect.CoerceParameterValue(p.DbType, p.Value)
		if named {
			args = append(args, sql.Named(p.Name, v))
		} else {
			args = append(args, v)
		}
	}
	return args
}

// ExecuteNonQuery runs the container as an INSERT/UPDATE/DELETE/DDL
// statement against a write-intent connection.
func (c *SqlContainer) ExecuteNonQuery(ctx context.Context) (sql.Result, error) {
	if c.ctx.readWrite == ReadOnly {
		return nil, &InvalidOperationError{Message: "write on read-only context"}
	}
	lock := c.ctx.strategy.GetLock()
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	conn, err := c.ctx.strategy.GetConnection(ctx, Write, true)
	if err != nil {
		return nil, err
	}
	defer c.ctx.strategy.CloseAndDispose(conn)

	return c.execNonQueryOn(ctx, conn)
}

func (c *SqlContainer) execNonQueryOn(ctx context.Context, conn *TrackedConnection) (sql.Result, error) {
	text := c.renderedText()
	c.maybePrepare(ctx, conn, text)

	c.ctx.beforeExecute(c.params.Len())
	start := nowFunc()
	res, err := conn.Raw().ExecContext(ctx, text, c.execArgs()...)
	c.ctx.afterExecute(start, res, err)
	return res, err
}

// ExecuteScalar runs the container as a query expected to return a single
// column from a single row, scanning it into dest.
func (c *SqlContainer) ExecuteScalar(ctx context.Context, dest any) error {
	conn, err := c.ctx.strategy.GetConnection(ctx, Read, true)
	if err != nil {
		return err
	}
	defer c.ctx.strategy.CloseAndDispose(conn)

	text := c.renderedText()
	c.maybePrepare(ctx, conn, text)

	c.ctx.beforeExecute(c.params.Len())
	start := nowFunc()
	err = conn.Raw().QueryRowContext(ctx, text, c.execArgs()...).Scan(dest)
	c.ctx.afterExecute(start, nil, err)
	return err
}

// ExecuteReader runs the container as a query and returns the resulting
// *sql.Rows. The caller must close the returned rows.
func (c *SqlContainer) ExecuteReader(ctx context.Context) (*sql.Rows, error) {
	conn, err := c.ctx.strategy.GetConnection(ctx, Read, true)
	if err != nil {
		return nil, err
	}

	text := c.renderedText()
	c.maybePrepare(ctx, conn, text)

	c.ctx.beforeExecute(c.params.Len())
	start := nowFunc()
	rows, err := conn.Raw().QueryContext(ctx, text, c.execArgs()...)
	c.ctx.afterExecute(start, nil, err)
	if err != nil {
		c.ctx.strategy.CloseAndDispose(conn)
		return nil, err
	}
	return rows, nil
}

// RecordRowsRead reports n rows consumed from a reader built by this
// container, feeding the rows_read_total metric (spec §8 Testable
// Property 14). Callers that iterate rows.Next() themselves (rather than
// using ExecuteReaderSingleRow) must call this once they're done.
func (c *SqlContainer) RecordRowsRead(n int64) {
	c.ctx.afterRead(n)
}

// ExecuteReaderSingleRow runs the container as a query and hands the first
// row to scan; any further rows are not read. It returns ErrNotFound if the
// query produced no rows.
func (c *SqlContainer) ExecuteReaderSingleRow(ctx context.Context, scan func(*sql.Rows) error) error {
	rows, err := c.ExecuteReader(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return ErrNotFound
	}
	if err := scan(rows); err != nil {
		return err
	}
	c.RecordRowsRead(1)
	return nil
}

// maybePrepare prepares text as a statement shape on conn if the dialect
// supports prepared statements and this shape has not yet been prepared on
// this physical connection. A prepare failure sets prepare_disabled on the
// connection and is otherwise swallowed; execution proceeds unprepared.
func (c *SqlContainer) maybePrepare(ctx context.Context, conn *TrackedConnection, shapeText string) {
	if !c.ctx.dialect.Capabilities().PrepareStatements {
		return
	}
	if conn.PrepareDisabled() {
		return
	}
	added, evicted := conn.MarkShapePrepared(shapeText)
	if !added {
		return
	}
	if evicted > 0 {
		c.ctx.metrics.IncStatementsEvicted()
	}
	stmt, err := conn.Raw().PrepareContext(ctx, shapeText)
	if err != nil {
		conn.DisablePrepare()
		return
	}
	c.ctx.metrics.IncStatementsCached()
	c.ctx.metrics.SetPreparedStatements(1)
	_ = stmt.Close()
}

// nowFunc is overridable in tests; defaults to time.Now.
var nowFunc = time.Now
