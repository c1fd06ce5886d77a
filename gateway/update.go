package gateway

import (
	"context"
	"fmt"
	"reflect"

	"github.com/pengdows/dbcore"
)

// BuildUpdate renders the UPDATE statement for entity's current field
// values. When loadOriginalFirst is true, the current row is reloaded and
// only columns that actually changed are emitted; otherwise every
// updateable column is set unconditionally. The WHERE clause is by id (or
// composite primary key); a version column, if present, is always
// incremented and added to WHERE as version = @old to detect a
// concurrent write.
func (g *TableGateway[E, K]) BuildUpdate(ctx context.Context, entity *E, loadOriginalFirst bool) (*dbcore.SqlContainer, error) {
	if entity == nil {
		return nil, &dbcore.ArgumentError{Message: "entity cannot be nil", Parameter: "entity"}
	}
	ev := reflect.ValueOf(entity)

	cols := g.table.UpdateableColumns()
	var original *E
	if loadOriginalFirst {
		var err error
		original, err = g.loadOriginal(ctx, ev)
		if err != nil {
			return nil, err
		}
	}

	c := g.ctx.NewSqlContainer("")
	sets := make([]string, 0, len(cols)+1)

	for _, col := range cols {
		if col.IsVersion || col.IsID || col.IsPrimaryKey ||
			col == g.table.LastUpdatedOnColumn || col == g.table.LastUpdatedByColumn {
			continue
		}
		v := col.FieldValue(ev).Interface()
		if original != nil {
			ov := col.FieldValue(reflect.ValueOf(original)).Interface()
			if reflect.DeepEqual(v, ov) {
				continue
			}
		}
		pName := c.AddAutoParameter("p", col.DbType.String(), v, dbcore.DirectionInput)
		sets = append(sets, "{Q}"+col.Name+"{q} = {S}"+pName)
	}

	if col := g.table.LastUpdatedOnColumn; col != nil {
		now := nowUTC()
		if err := col.SetFieldValue(ev, now); err != nil {
			return nil, err
		}
		pName := c.AddAutoParameter("p", col.DbType.String(), now, dbcore.DirectionInput)
		sets = append(sets, "{Q}"+col.Name+"{q} = {S}"+pName)
	}
	if col := g.table.LastUpdatedByColumn; col != nil {
		if g.cfg.auditResolver == nil {
			return nil, &dbcore.NotSupportedError{Message: "entity has an audit actor column but no AuditResolver is configured"}
		}
		actor, err := g.cfg.auditResolver(ctx)
		if err != nil {
			return nil, err
		}
		if err := col.SetFieldValue(ev, actor); err != nil {
			return nil, err
		}
		pName := c.AddAutoParameter("p", col.DbType.String(), actor, dbcore.DirectionInput)
		sets = append(sets, "{Q}"+col.Name+"{q} = {S}"+pName)
	}

	var oldVersion any
	if vcol := g.table.VersionColumn; vcol != nil {
		oldVersion = vcol.FieldValue(ev).Interface()
		newVersion, err := incrementVersion(oldVersion)
		if err != nil {
			return nil, err
		}
		if err := vcol.SetFieldValue(ev, newVersion); err != nil {
			return nil, err
		}
		pName := c.AddAutoParameter("p", vcol.DbType.String(), newVersion, dbcore.DirectionInput)
		sets = append(sets, "{Q}"+vcol.Name+"{q} = {S}"+pName)
	}

	if len(sets) == 0 {
		return nil, &dbcore.NotSupportedError{Message: "no columns to update"}
	}

	query := fmt.Sprintf("UPDATE %s SET %s", g.wrappedTableName(), join(sets))
	c.SetQuery(query)

	if err := g.appendKeyWhere(c, ev); err != nil {
		return nil, err
	}
	if vcol := g.table.VersionColumn; vcol != nil {
		pName := c.AddAutoParameter("p", vcol.DbType.String(), oldVersion, dbcore.DirectionInput)
		c.WriteString(" AND {Q}" + vcol.Name + "{q} = {S}" + pName)
	}

	return c, nil
}

// appendKeyWhere appends " WHERE <id> = @k" or the composite-key
// conjunction, using entity's current key field values.
func (g *TableGateway[E, K]) appendKeyWhere(c *dbcore.SqlContainer, ev reflect.Value) error {
	if idCol := g.table.IDColumn; idCol != nil {
		v := idCol.FieldValue(ev).Interface()
		pName := c.AddAutoParameter("k", idCol.DbType.String(), v, dbcore.DirectionInput)
		c.WriteString(" WHERE {Q}" + idCol.Name + "{q} = {S}" + pName)
		c.MarkWhereAppended()
		return nil
	}

	if len(g.table.PrimaryKey) == 0 {
		return &dbcore.NotSupportedError{Message: "entity has neither an id nor a primary key"}
	}
	parts := make([]string, len(g.table.PrimaryKey))
	for i, pk := range g.table.PrimaryKey {
		v := pk.FieldValue(ev).Interface()
		pName := c.AddAutoParameter("k", pk.DbType.String(), v, dbcore.DirectionInput)
		parts[i] = "{Q}" + pk.Name + "{q} = {S}" + pName
	}
	c.WriteString(" WHERE " + join2(parts, " AND "))
	c.MarkWhereAppended()
	return nil
}

func join2(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

// loadOriginal reloads entity's current row by its key, for diffing in
// BuildUpdate(entity, loadOriginalFirst=true).
func (g *TableGateway[E, K]) loadOriginal(ctx context.Context, ev reflect.Value) (*E, error) {
	c := g.BuildBaseRetrieve("")
	if err := g.appendKeyWhere(c, ev); err != nil {
		return nil, err
	}
	return g.LoadOneAsync(ctx, c)
}

// incrementVersion bumps a version column's value by one. Supported Go
// types are the integer kinds; any other type is left to the caller's own
// versioning scheme and reported as unsupported here.
func incrementVersion(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch {
	case isNumericKind(rv.Kind()) && rv.Kind() != reflect.Float32 && rv.Kind() != reflect.Float64:
		if rv.CanInt() {
			return reflect.ValueOf(rv.Int() + 1).Convert(rv.Type()).Interface(), nil
		}
		if rv.CanUint() {
			return reflect.ValueOf(rv.Uint() + 1).Convert(rv.Type()).Interface(), nil
		}
	}
	return nil, fmt.Errorf("gateway: version column type %T is not incrementable", v)
}
