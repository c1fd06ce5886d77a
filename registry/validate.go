package registry

import "fmt"

// validate enforces the column-metadata invariants: exactly one key
// scheme (an is_id column XOR one-or-more is_primary_key columns), unique
// pk_order, and a total order over any declared ordinals.
func validate(info *TableInfo) error {
	hasID := info.IDColumn != nil
	hasPK := len(info.PrimaryKey) > 0

	switch {
	case hasID && hasPK:
		return fmt.Errorf("%s: has both an is_id column (%s) and is_primary_key column(s); exactly one key scheme is allowed",
			info.GoType.Name(), info.IDColumn.Name)
	case !hasID && !hasPK:
		return fmt.Errorf("%s: has neither an is_id column nor any is_primary_key column; exactly one key scheme is required",
			info.GoType.Name())
	}

	if hasPK {
		seen := make(map[int]string, len(info.PrimaryKey))
		for _, col := range info.PrimaryKey {
			if other, dup := seen[col.PKOrder]; dup {
				return fmt.Errorf("%s: pk_order %d is used by both %s and %s", info.GoType.Name(), col.PKOrder, other, col.Name)
			}
			seen[col.PKOrder] = col.Name
		}
	}

	declared, undeclared := 0, 0
	for _, col := range info.Columns {
		if col.Ordinal == -1 {
			undeclared++
		} else {
			declared++
		}
	}
	if declared > 0 && undeclared > 0 {
		return fmt.Errorf("%s: ordinal is set on %d of %d column(s); ordinal must totally order the output columns or be absent from all of them",
			info.GoType.Name(), declared, len(info.Columns))
	}
	if declared > 0 {
		seen := make(map[int]string, declared)
		for _, col := range info.Columns {
			if col.Ordinal == -1 {
				continue
			}
			if other, dup := seen[col.Ordinal]; dup {
				return fmt.Errorf("%s: ordinal %d is used by both %s and %s", info.GoType.Name(), col.Ordinal, other, col.Name)
			}
			seen[col.Ordinal] = col.Name
		}
	}

	return nil
}
