package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/pengdows/dbcore"
	"github.com/pengdows/dbcore/dialect"
	"github.com/pengdows/dbcore/registry"
)

// rowsAffectedOne reports whether res affected exactly one row. Per spec
// §4.4.2, any other affected-row count fails CreateAsync by returning false
// without an error.
func rowsAffectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// nowUTC is the audit-timestamp hook; tests override it to get
// deterministic is_created_on/is_last_updated_on values.
var nowUTC = func() time.Time { return time.Now().UTC() }

// sessionScopedLastIDQuery returns the follow-up scalar query a
// SessionScopedFunction dialect uses to read back the id just generated
// on the same connection.
func sessionScopedLastIDQuery(p dialect.Product) string {
	switch p {
	case dialect.MySQL:
		return "SELECT LAST_INSERT_ID()"
	case dialect.SQLite:
		return "SELECT last_insert_rowid()"
	case dialect.DuckDB:
		return "SELECT currval('duckdb_last_insert_rowid')"
	default:
		return "SELECT LAST_INSERT_ID()"
	}
}

// buildCreate renders the INSERT statement for entity. token is the
// correlation token bound into the statement when the dialect's
// GeneratedKeyPlan is CorrelationToken; it is ignored otherwise.
func (g *TableGateway[E, K]) buildCreate(entity *E, token string) (*dbcore.SqlContainer, *registry.ColumnInfo, bool) {
	ev := reflect.ValueOf(entity)
	cols := g.table.InsertableColumns()

	idCol := g.table.IDColumn
	plan := g.ctx.Dialect().GeneratedKeyPlan()
	generatesID := idCol != nil && !idCol.IDIsWritable && plan != dialect.NaturalKeyLookup
	// PrefetchSequence resolves the id before the INSERT runs, so it is
	// bound like any other column instead of being omitted.
	omitFromInsert := generatesID && plan != dialect.PrefetchSequence

	names := make([]string, 0, len(cols)+1)
	placeholders := make([]string, 0, len(cols)+1)
	c := g.ctx.NewSqlContainer("")

	for _, col := range cols {
		if omitFromInsert && col == idCol {
			continue
		}
		names = append(names, "{Q}"+col.Name+"{q}")
		v := col.FieldValue(ev).Interface()
		pName := c.AddAutoParameter("p", col.DbType.String(), v, dbcore.DirectionInput)
		placeholders = append(placeholders, "{S}"+pName)
	}

	if omitFromInsert && plan == dialect.CorrelationToken {
		names = append(names, "{Q}"+g.cfg.correlationTokenColumn+"{q}")
		pName := c.AddAutoParameter("p", "String", token, dbcore.DirectionInput)
		placeholders = append(placeholders, "{S}"+pName)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", g.wrappedTableName(), join(names), join(placeholders))

	if generatesID {
		switch plan {
		case dialect.Returning:
			query += " RETURNING {Q}" + idCol.Name + "{q}"
		case dialect.OutputInserted:
			query = fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.{Q}%s{q} VALUES (%s)",
				g.wrappedTableName(), join(names), idCol.Name, join(placeholders))
		}
	}

	c.SetQuery(query)
	return c, idCol, generatesID
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// CreateAsync inserts entity, auto-filling a writable id (UUIDv7 for a
// GUID id at its zero value, a generated name for an empty string id),
// populating audit fields, and retrieving a generated id per the
// dialect's GeneratedKeyPlan. It reports whether a row was inserted.
func (g *TableGateway[E, K]) CreateAsync(ctx context.Context, entity *E) (bool, error) {
	if entity == nil {
		return false, &dbcore.ArgumentError{Message: "entity cannot be nil", Parameter: "entity"}
	}
	ev := reflect.ValueOf(entity)

	if err := g.fillWritableID(ev); err != nil {
		return false, err
	}
	if err := g.applyAuditOnCreate(ctx, ev); err != nil {
		return false, err
	}

	plan := g.ctx.Dialect().GeneratedKeyPlan()
	idCol := g.table.IDColumn

	var token string
	if plan == dialect.CorrelationToken {
		token = uuid.NewString()
	}

	// PrefetchSequence must resolve the id before buildCreate binds it as
	// an ordinary insert parameter.
	if idCol != nil && !idCol.IDIsWritable && plan == dialect.PrefetchSequence {
		seqName := g.cfg.sequenceName
		if seqName == "" {
			seqName = g.table.TableName + "_" + idCol.Name + "_seq"
		}
		prefetch := g.ctx.NewSqlContainer("SELECT NEXTVAL('" + seqName + "')")
		var raw any
		if err := prefetch.ExecuteScalar(ctx, &raw); err != nil {
			return false, err
		}
		g.applyGeneratedID(ev, idCol, raw)
	}

	c, _, generatesID := g.buildCreate(entity, token)

	if !generatesID {
		res, err := c.ExecuteNonQuery(ctx)
		if err != nil {
			return false, err
		}
		return rowsAffectedOne(res)
	}

	switch plan {
	case dialect.Returning, dialect.OutputInserted:
		var raw any
		if err := c.ExecuteScalar(ctx, &raw); err != nil {
			return false, err
		}
		g.applyGeneratedID(ev, idCol, raw)

	case dialect.SessionScopedFunction:
		res, err := c.ExecuteNonQuery(ctx)
		if err != nil {
			return false, err
		}
		if ok, err := rowsAffectedOne(res); err != nil || !ok {
			return false, err
		}
		follow := g.ctx.NewSqlContainer(sessionScopedLastIDQuery(g.ctx.Dialect().Product()))
		var raw any
		if err := follow.ExecuteScalar(ctx, &raw); err != nil {
			return false, err
		}
		g.applyGeneratedID(ev, idCol, raw)

	case dialect.PrefetchSequence:
		res, err := c.ExecuteNonQuery(ctx)
		if err != nil {
			return false, err
		}
		if ok, err := rowsAffectedOne(res); err != nil || !ok {
			return false, err
		}

	case dialect.CorrelationToken:
		res, err := c.ExecuteNonQuery(ctx)
		if err != nil {
			return false, err
		}
		if ok, err := rowsAffectedOne(res); err != nil || !ok {
			return false, err
		}
		lookup := g.ctx.NewSqlContainer(fmt.Sprintf(
			"SELECT {Q}%s{q} FROM %s WHERE {Q}%s{q} = {S}tok",
			idCol.Name, g.wrappedTableName(), g.cfg.correlationTokenColumn))
		lookup.AddParameterWithValue("tok", "String", token, dbcore.DirectionInput)
		var raw any
		if err := lookup.ExecuteScalar(ctx, &raw); err != nil {
			return false, err
		}
		g.applyGeneratedID(ev, idCol, raw)

	default:
		return false, &dbcore.NotSupportedError{Message: "NaturalKeyLookup generated-key plan has no dedicated fetch step; the id must already be set"}
	}

	return true, nil
}

// fillWritableID auto-fills an id column marked IDIsWritable when the
// field is still at its Go zero value: a fresh UUIDv7 for a uuid.UUID id,
// a generated random name for an empty string id. Other types are left
// untouched -- the caller is expected to have set them.
func (g *TableGateway[E, K]) fillWritableID(ev reflect.Value) error {
	idCol := g.table.IDColumn
	if idCol == nil || !idCol.IDIsWritable {
		return nil
	}

	fv := idCol.FieldValue(ev)
	if !fv.IsZero() {
		return nil
	}

	switch {
	case fv.Type() == uuidType:
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("gateway: generating id: %w", err)
		}
		return idCol.SetFieldValue(ev, id)
	case fv.Kind() == reflect.String:
		return idCol.SetFieldValue(ev, g.ctx.GenerateRandomName(32))
	}
	return nil
}

// applyAuditOnCreate stamps is_created_on/is_last_updated_on with the
// current UTC time and is_created_by/is_last_updated_by via the
// configured AuditResolver, failing if the entity has such a column but
// no resolver was configured.
func (g *TableGateway[E, K]) applyAuditOnCreate(ctx context.Context, ev reflect.Value) error {
	now := nowUTC()
	if col := g.table.CreatedOnColumn; col != nil {
		if err := col.SetFieldValue(ev, now); err != nil {
			return err
		}
	}
	if col := g.table.LastUpdatedOnColumn; col != nil {
		if err := col.SetFieldValue(ev, now); err != nil {
			return err
		}
	}

	needsActor := g.table.CreatedByColumn != nil || g.table.LastUpdatedByColumn != nil
	if !needsActor {
		return nil
	}
	if g.cfg.auditResolver == nil {
		return &dbcore.NotSupportedError{Message: "entity has an audit actor column but no AuditResolver is configured"}
	}
	actor, err := g.cfg.auditResolver(ctx)
	if err != nil {
		return err
	}
	if col := g.table.CreatedByColumn; col != nil {
		if err := col.SetFieldValue(ev, actor); err != nil {
			return err
		}
	}
	if col := g.table.LastUpdatedByColumn; col != nil {
		if err := col.SetFieldValue(ev, actor); err != nil {
			return err
		}
	}
	return nil
}

// applyGeneratedID coerces raw into idCol's Go type and sets it on the
// entity. On coercion or set failure, the id is left at its default and
// the failure is logged rather than propagated -- the row was already
// inserted, so failing the whole call now would hide a committed write.
func (g *TableGateway[E, K]) applyGeneratedID(ev reflect.Value, idCol *registry.ColumnInfo, raw any) {
	coerced, err := coerceToFieldType(idCol.GoType, raw)
	if err == nil {
		err = idCol.SetFieldValue(ev, coerced)
	}
	if err != nil {
		g.ctx.Logger().Warn("gateway: failed to apply generated id",
			"table", g.table.TableName, "column", idCol.Name, "error", err.Error())
	}
}
