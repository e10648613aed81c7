// Package common holds scalar helpers shared by the column and engine packages.
package common

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// IsScalar reports whether value is a single cell value that a column can hold:
// any Go integer or float, string, bool or time.Time. Slices, maps, arrays,
// structs and nil are not scalars.
func IsScalar(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, string, bool, time.Time:
		return true
	default:
		return false
	}
}

// IsIntegerType checks if a value is of an integer type.
func IsIntegerType(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// IsFloatType checks if a value is of a floating-point type.
func IsFloatType(value any) bool {
	switch value.(type) {
	case float32, float64:
		return true
	default:
		return false
	}
}

// IsIntegral reports whether value is an integer, or a finite float without a
// fractional part.
func IsIntegral(value any) bool {
	if IsIntegerType(value) {
		return true
	}
	f, err := ToFloat64(value)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f == math.Trunc(f)
}

// ToInt64 converts an integer, or an integral float, to int64.
// Strings and bools are rejected: cells are never parsed implicitly.
func ToInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("uint value %d overflows int64 range", v)
		}
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("uint64 value %d overflows int64 range", v)
		}
		return int64(v), nil
	case float32, float64:
		f, _ := ToFloat64(v)
		if !IsIntegral(v) {
			return 0, fmt.Errorf("float value %g is not integral", f)
		}
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("float value %g overflows int64 range", f)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("cannot convert %s to int64", GetTypeName(value))
	}
}

// ToInt32 converts like ToInt64 and checks the int32 range.
func ToInt32(value any) (int32, error) {
	v, err := ToInt64(value)
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("value %d overflows int32 range", v)
	}
	return int32(v), nil
}

// ToFloat64 converts any numeric type to float64.
func ToFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("cannot convert %s to float64", GetTypeName(value))
	}
}

// ToString formats a scalar for display. It is not used for storage.
func ToString(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetTypeName returns the Go type name of a value, "nil" for nil.
func GetTypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}
