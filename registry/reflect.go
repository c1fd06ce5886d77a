package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// build reflects E into a TableInfo. E must be a struct type (not a
// pointer); gateway.TableGateway[E, K] registers and operates on the value
// type directly.
func build[E any](tableName string) (*TableInfo, error) {
	var zero E
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity type must be a struct, got %v", reflect.TypeOf(zero))
	}

	info := &TableInfo{
		GoType:    t,
		TableName: tableName,
		ByName:    make(map[string]*ColumnInfo),
	}

	if err := collectColumns(t, nil, info); err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name(), err)
	}
	if err := validate(info); err != nil {
		return nil, err
	}
	orderColumns(info)
	return info, nil
}

// collectColumns walks t's fields, recursing into anonymous (embedded)
// structs that carry no db tag of their own, and appends one ColumnInfo
// per db-tagged field.
func collectColumns(t reflect.Type, prefix []int, info *TableInfo) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() && !(field.Anonymous && field.Tag.Get("db") == "") {
			continue
		}
		index := append(append([]int(nil), prefix...), i)

		dbName := field.Tag.Get("db")
		if dbName == "" {
			if field.Anonymous {
				embedded := field.Type
				if embedded.Kind() == reflect.Ptr {
					embedded = embedded.Elem()
				}
				if embedded.Kind() == reflect.Struct {
					if err := collectColumns(embedded, index, info); err != nil {
						return err
					}
				}
			}
			continue
		}

		col, err := columnFromField(field, dbName, index)
		if err != nil {
			return fmt.Errorf("column %s: %w", dbName, err)
		}
		if _, dup := info.ByName[col.Name]; dup {
			return fmt.Errorf("duplicate column name %q", col.Name)
		}

		info.Columns = append(info.Columns, col)
		info.ByName[col.Name] = col

		switch {
		case col.IsID:
			info.IDColumn = col
		case col.IsPrimaryKey:
			info.PrimaryKey = append(info.PrimaryKey, col)
		}
		if col.IsVersion {
			info.VersionColumn = col
		}
		if col.IsCreatedBy {
			info.CreatedByColumn = col
		}
		if col.IsCreatedOn {
			info.CreatedOnColumn = col
		}
		if col.IsLastUpdatedBy {
			info.LastUpdatedByColumn = col
		}
		if col.IsLastUpdatedOn {
			info.LastUpdatedOnColumn = col
		}
	}
	return nil
}

func columnFromField(field reflect.StructField, dbName string, index []int) (*ColumnInfo, error) {
	col := &ColumnInfo{
		Name:       dbName,
		DbType:     parseDbType(field.Tag.Get("db_type")),
		FieldIndex: index,
		GoType:     field.Type,
		Ordinal:    -1,
	}

	if v := field.Tag.Get("ordinal"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ordinal %q: %w", v, err)
		}
		col.Ordinal = n
	}

	col.IsID = tagBool(field, "is_id")
	col.IDIsWritable = tagBool(field, "id_is_writable")
	col.IsPrimaryKey = tagBool(field, "is_primary_key")

	if v := field.Tag.Get("pk_order"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid pk_order %q: %w", v, err)
		}
		col.PKOrder = n
	}

	col.IsNonInsertable = tagBool(field, "is_non_insertable")
	col.IsNonUpdateable = tagBool(field, "is_non_updateable")
	col.IsVersion = tagBool(field, "is_version")
	col.IsCreatedBy = tagBool(field, "is_created_by")
	col.IsCreatedOn = tagBool(field, "is_created_on")
	col.IsLastUpdatedBy = tagBool(field, "is_last_updated_by")
	col.IsLastUpdatedOn = tagBool(field, "is_last_updated_on")
	col.IsJSON = tagBool(field, "is_json")
	col.IsEnum = tagBool(field, "is_enum")

	return col, nil
}

func tagBool(field reflect.StructField, key string) bool {
	v := strings.TrimSpace(field.Tag.Get(key))
	return v == "true" || v == "1"
}

// orderColumns sorts Columns by explicit Ordinal when any column declares
// one (validate has already rejected a partial declaration), else leaves
// them in the struct declaration order collectColumns appended them in. It
// also sorts PrimaryKey by PKOrder.
func orderColumns(info *TableInfo) {
	anyOrdinal := false
	for _, c := range info.Columns {
		if c.Ordinal != -1 {
			anyOrdinal = true
			break
		}
	}
	if anyOrdinal {
		sort.SliceStable(info.Columns, func(i, j int) bool {
			return info.Columns[i].Ordinal < info.Columns[j].Ordinal
		})
	}
	sort.SliceStable(info.PrimaryKey, func(i, j int) bool {
		return info.PrimaryKey[i].PKOrder < info.PrimaryKey[j].PKOrder
	})
}

func parseDbType(tag string) DbType {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "int32":
		return DbTypeInt32
	case "int64":
		return DbTypeInt64
	case "string":
		return DbTypeString
	case "datetime":
		return DbTypeDateTime
	case "guid":
		return DbTypeGuid
	case "binary":
		return DbTypeBinary
	case "boolean", "bool":
		return DbTypeBoolean
	case "decimal":
		return DbTypeDecimal
	case "double":
		return DbTypeDouble
	default:
		return DbTypeObject
	}
}
