// Package registry reflects attribute-tagged entity structs into
// TableInfo/ColumnInfo metadata: physical column names, logical db types,
// id/primary-key scheme, audit and version roles, and output ordering. The
// gateway package consumes a TableInfo to generate SQL; registry itself
// knows nothing about SQL rendering.
package registry

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	mu    sync.RWMutex
	cache = make(map[reflect.Type]*TableInfo)
)

// Register reflects E's struct tags into a TableInfo, validates the
// invariants in the column-metadata table (exactly one id-or-primary-key
// scheme, unique pk_order, total-ordered ordinals), caches the result
// keyed by E's type, and returns it.
//
// Register panics on an invalid entity, mirroring the teacher's
// RegisterModel: entity registration is expected to run once at package
// init time, where there is no error return to propagate to.
func Register[E any](tableName string) *TableInfo {
	info, err := build[E](tableName)
	if err != nil {
		panic(fmt.Errorf("registry: %w", err))
	}

	mu.Lock()
	defer mu.Unlock()
	cache[info.GoType] = info
	return info
}

// Lookup returns the TableInfo registered for E, or nil if E has not been
// registered.
func Lookup[E any]() *TableInfo {
	t := reflect.TypeOf((*E)(nil)).Elem()
	mu.RLock()
	defer mu.RUnlock()
	return cache[t]
}

// Clear removes every registered entity. Test-only.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	cache = make(map[reflect.Type]*TableInfo)
}

// DbType is the logical, provider-neutral type of a column's value.
type DbType int

const (
	DbTypeObject DbType = iota
	DbTypeInt32
	DbTypeInt64
	DbTypeString
	DbTypeDateTime
	DbTypeGuid
	DbTypeBinary
	DbTypeBoolean
	DbTypeDecimal
	DbTypeDouble
)

func (t DbType) String() string {
	switch t {
	case DbTypeInt32:
		return "Int32"
	case DbTypeInt64:
		return "Int64"
	case DbTypeString:
		return "String"
	case DbTypeDateTime:
		return "DateTime"
	case DbTypeGuid:
		return "Guid"
	case DbTypeBinary:
		return "Binary"
	case DbTypeBoolean:
		return "Boolean"
	case DbTypeDecimal:
		return "Decimal"
	case DbTypeDouble:
		return "Double"
	default:
		return "Object"
	}
}

// ColumnInfo is one entity property mapped to a physical column.
type ColumnInfo struct {
	Name       string
	DbType     DbType
	FieldIndex []int
	GoType     reflect.Type
	// Ordinal is -1 when the entity didn't declare one, meaning "use
	// declaration order".
	Ordinal int

	IsID         bool
	IDIsWritable bool

	IsPrimaryKey bool
	PKOrder      int

	IsNonInsertable bool
	IsNonUpdateable bool
	IsVersion       bool

	IsCreatedBy     bool
	IsCreatedOn     bool
	IsLastUpdatedBy bool
	IsLastUpdatedOn bool

	IsJSON bool
	IsEnum bool
}

// FieldValue returns this column's current value from entity (a struct or
// pointer-to-struct value).
func (c *ColumnInfo) FieldValue(entity reflect.Value) reflect.Value {
	if entity.Kind() == reflect.Ptr {
		entity = entity.Elem()
	}
	return entity.FieldByIndex(c.FieldIndex)
}

// SetFieldValue assigns value to this column's field on entity, which must
// be a non-nil pointer to struct.
func (c *ColumnInfo) SetFieldValue(entity reflect.Value, value any) error {
	if entity.Kind() != reflect.Ptr || entity.IsNil() {
		return fmt.Errorf("registry: SetFieldValue requires a non-nil pointer, got %s", entity.Type())
	}
	field := entity.Elem().FieldByIndex(c.FieldIndex)
	if !field.CanSet() {
		return fmt.Errorf("registry: field for column %s cannot be set", c.Name)
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if !v.Type().AssignableTo(field.Type()) {
		if v.Type().ConvertibleTo(field.Type()) {
			v = v.Convert(field.Type())
		} else {
			return fmt.Errorf("registry: cannot assign %s to column %s of type %s", v.Type(), c.Name, field.Type())
		}
	}
	field.Set(v)
	return nil
}

// TableInfo is the reflected, validated metadata for one registered entity
// type.
type TableInfo struct {
	GoType    reflect.Type
	TableName string

	// Columns is ordered by explicit Ordinal when any column declares one,
	// else by struct declaration order.
	Columns []*ColumnInfo
	ByName  map[string]*ColumnInfo

	IDColumn   *ColumnInfo
	PrimaryKey []*ColumnInfo // ordered by PKOrder

	VersionColumn *ColumnInfo

	CreatedByColumn     *ColumnInfo
	CreatedOnColumn     *ColumnInfo
	LastUpdatedByColumn *ColumnInfo
	LastUpdatedOnColumn *ColumnInfo
}

// KeyColumns returns the id column (as a single-element slice) or the
// primary-key columns in pk_order, whichever scheme this entity uses.
func (t *TableInfo) KeyColumns() []*ColumnInfo {
	if t.IDColumn != nil {
		return []*ColumnInfo{t.IDColumn}
	}
	return t.PrimaryKey
}

// InsertableColumns returns Columns excluding is_non_insertable ones.
func (t *TableInfo) InsertableColumns() []*ColumnInfo {
	out := make([]*ColumnInfo, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.IsNonInsertable {
			out = append(out, c)
		}
	}
	return out
}

// UpdateableColumns returns Columns excluding is_non_updateable ones.
func (t *TableInfo) UpdateableColumns() []*ColumnInfo {
	out := make([]*ColumnInfo, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.IsNonUpdateable {
			out = append(out, c)
		}
	}
	return out
}
