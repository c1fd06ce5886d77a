package gateway

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// coerceToFieldType converts a raw scalar (driver-scanned column value or
// ExecuteScalar result -- typically int64, float64, []byte, string, bool,
// time.Time, or uuid.UUID) into target's Go type. It is the generalization
// of the teacher's single-purpose convertIdToInt64 to the full column
// db_type vocabulary.
func coerceToFieldType(target reflect.Type, v any) (any, error) {
	if v == nil {
		return reflect.Zero(target).Interface(), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		return v, nil
	}
	if isNumericKind(rv.Kind()) && isNumericKind(target.Kind()) && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target).Interface(), nil
	}

	if target == uuidType {
		return coerceToUUID(v)
	}

	switch target.Kind() {
	case reflect.String:
		switch vv := v.(type) {
		case []byte:
			return string(vv), nil
		case fmt.Stringer:
			return vv.String(), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(target).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(uint64(n)).Convert(target).Interface(), nil
	case reflect.Bool:
		switch vv := v.(type) {
		case bool:
			return vv, nil
		case int64:
			return vv != 0, nil
		case []byte:
			return len(vv) == 1 && vv[0] != 0, nil
		}
	}

	return nil, fmt.Errorf("gateway: cannot coerce %T to %s", v, target)
}

func coerceToUUID(v any) (any, error) {
	switch vv := v.(type) {
	case uuid.UUID:
		return vv, nil
	case []byte:
		id, err := uuid.FromBytes(vv)
		if err != nil {
			return nil, err
		}
		return id, nil
	case string:
		id, err := uuid.Parse(vv)
		if err != nil {
			return nil, err
		}
		return id, nil
	default:
		return nil, fmt.Errorf("gateway: cannot coerce %T to uuid.UUID", v)
	}
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func toInt64(v any) (int64, error) {
	switch vv := v.(type) {
	case int64:
		return vv, nil
	case int32:
		return int64(vv), nil
	case int16:
		return int64(vv), nil
	case int:
		return int64(vv), nil
	case float64:
		return int64(vv), nil
	case []byte:
		var n int64
		if _, err := fmt.Sscanf(string(vv), "%d", &n); err != nil {
			return 0, fmt.Errorf("gateway: cannot parse %q as integer", vv)
		}
		return n, nil
	case string:
		var n int64
		if _, err := fmt.Sscanf(vv, "%d", &n); err != nil {
			return 0, fmt.Errorf("gateway: cannot parse %q as integer", vv)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("gateway: cannot convert %T to integer", v)
	}
}
