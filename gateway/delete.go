package gateway

import (
	"fmt"
	"reflect"

	"github.com/pengdows/dbcore"
)

// BuildDelete renders a DELETE FROM table WHERE <id> IN (...) statement
// for entities keyed by a single is_id column.
func (g *TableGateway[E, K]) BuildDelete(ids []K) (*dbcore.SqlContainer, error) {
	if len(ids) == 0 {
		return nil, &dbcore.ArgumentError{Message: "List of IDs cannot be empty.", Parameter: "ids"}
	}
	if g.table.IDColumn == nil {
		return nil, &dbcore.NotSupportedError{Message: "entity has a composite primary key; use BuildDeleteByKeys"}
	}

	c := g.ctx.NewSqlContainer(fmt.Sprintf("DELETE FROM %s", g.wrappedTableName()))
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	if err := g.BuildWhere(c, "{Q}"+g.table.IDColumn.Name+"{q}", values); err != nil {
		return nil, err
	}
	return c, nil
}

// BuildDeleteByKeys renders a DELETE FROM table WHERE (...)  OR (...)
// statement for composite-primary-key entities, one tuple per deleted row.
func (g *TableGateway[E, K]) BuildDeleteByKeys(keyTuples [][]any) (*dbcore.SqlContainer, error) {
	if len(keyTuples) == 0 {
		return nil, &dbcore.ArgumentError{Message: "List of IDs cannot be empty.", Parameter: "keyTuples"}
	}
	if len(g.table.PrimaryKey) == 0 {
		return nil, &dbcore.NotSupportedError{Message: "entity has no composite primary key"}
	}

	c := g.ctx.NewSqlContainer(fmt.Sprintf("DELETE FROM %s", g.wrappedTableName()))
	if err := g.appendCompositeKeyWhere(c, keyTuples); err != nil {
		return nil, err
	}
	return c, nil
}

// BuildDeleteEntity renders a DELETE statement targeting exactly the row
// identified by entity's current key field values.
func (g *TableGateway[E, K]) BuildDeleteEntity(entity *E) (*dbcore.SqlContainer, error) {
	if entity == nil {
		return nil, &dbcore.ArgumentError{Message: "entity cannot be nil", Parameter: "entity"}
	}
	ev := reflect.ValueOf(entity)

	c := g.ctx.NewSqlContainer(fmt.Sprintf("DELETE FROM %s", g.wrappedTableName()))
	if err := g.appendKeyWhere(c, ev); err != nil {
		return nil, err
	}
	return c, nil
}
