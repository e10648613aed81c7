package series

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"golang.org/x/exp/constraints"
)

// Key tags keep values of different kinds from colliding once encoded.
const (
	keyNull byte = iota
	keyInt
	keyFloat
	keyString
	keyBool
	keyTime
)

// ValueAt returns the Go value stored at row i: int64, int32, float64,
// float32, string, bool or time.Time. Dictionary arrays are decoded to their
// category value. Nulls return nil.
func ValueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit)
	case *array.Dictionary:
		return ValueAt(a.Dictionary(), a.GetValueIndex(i))
	default:
		return nil
	}
}

// IsAbsent reports whether row i holds no value: Arrow null, or NaN in a
// floating point (or float categorical) column.
func IsAbsent(arr arrow.Array, i int) bool {
	if arr.IsNull(i) {
		return true
	}
	switch v := ValueAt(arr, i).(type) {
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	}
	return false
}

// IsCategorical reports whether arr is dictionary encoded.
func IsCategorical(arr arrow.Array) bool {
	return arr.DataType().ID() == arrow.DICTIONARY
}

// ValueType returns the logical element type of arr: the dictionary value
// type for categorical arrays, the array type otherwise.
func ValueType(dtype arrow.DataType) arrow.DataType {
	if dict, ok := dtype.(*arrow.DictionaryType); ok {
		return dict.ValueType
	}
	return dtype
}

// Categories returns the dictionary values of a categorical array, in
// dictionary order. It returns nil for other arrays.
func Categories(arr arrow.Array) []any {
	dict, ok := arr.(*array.Dictionary)
	if !ok {
		return nil
	}
	values := dict.Dictionary()
	out := make([]any, values.Len())
	for i := range out {
		out[i] = ValueAt(values, i)
	}
	return out
}

// AppendKey appends a byte encoding of row i to buf. Two rows encode equally
// exactly when their values are equal, with null equal to null, every NaN
// equal to every NaN and -0 equal to 0. Categorical rows encode their
// decoded value, and integer widths share one encoding.
func AppendKey(buf []byte, arr arrow.Array, i int) []byte {
	return AppendScalarKey(buf, ValueAt(arr, i))
}

// AppendScalarKey encodes a Go value the way AppendKey encodes a cell.
func AppendScalarKey(buf []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(buf, keyNull)
	case int64:
		buf = append(buf, keyInt)
		return binary.BigEndian.AppendUint64(buf, uint64(x))
	case int32:
		buf = append(buf, keyInt)
		return binary.BigEndian.AppendUint64(buf, uint64(int64(x)))
	case float64:
		buf = append(buf, keyFloat)
		return binary.BigEndian.AppendUint64(buf, canonicalBits(x))
	case float32:
		buf = append(buf, keyFloat)
		return binary.BigEndian.AppendUint64(buf, canonicalBits(float64(x)))
	case string:
		buf = append(buf, keyString)
		buf = binary.AppendUvarint(buf, uint64(len(x)))
		return append(buf, x...)
	case bool:
		if x {
			return append(buf, keyBool, 1)
		}
		return append(buf, keyBool, 0)
	case time.Time:
		buf = append(buf, keyTime)
		buf = binary.BigEndian.AppendUint64(buf, uint64(x.Unix()))
		return binary.BigEndian.AppendUint32(buf, uint32(x.Nanosecond()))
	default:
		return append(buf, keyNull)
	}
}

func canonicalBits(f float64) uint64 {
	switch {
	case math.IsNaN(f):
		return math.Float64bits(math.NaN())
	case f == 0:
		return 0
	default:
		return math.Float64bits(f)
	}
}

// Compare orders row i of a against row j of b. Absent values (null or NaN)
// sort after every present value and compare equal to each other.
func Compare(a arrow.Array, i int, b arrow.Array, j int) int {
	return CompareValues(presentValue(a, i), presentValue(b, j))
}

func presentValue(arr arrow.Array, i int) any {
	if IsAbsent(arr, i) {
		return nil
	}
	return ValueAt(arr, i)
}

// CompareValues orders two Go values of the same kind, nil last.
// Values of different kinds compare equal.
func CompareValues(x, y any) int {
	switch {
	case x == nil && y == nil:
		return 0
	case x == nil:
		return 1
	case y == nil:
		return -1
	}

	switch a := x.(type) {
	case int64:
		if b, ok := y.(int64); ok {
			return compareOrdered(a, b)
		}
	case int32:
		if b, ok := y.(int32); ok {
			return compareOrdered(a, b)
		}
	case float64:
		if b, ok := y.(float64); ok {
			return compareOrdered(a, b)
		}
	case float32:
		if b, ok := y.(float32); ok {
			return compareOrdered(a, b)
		}
	case string:
		if b, ok := y.(string); ok {
			return compareOrdered(a, b)
		}
	case bool:
		if b, ok := y.(bool); ok {
			switch {
			case a == b:
				return 0
			case !a:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if b, ok := y.(time.Time); ok {
			return a.Compare(b)
		}
	}
	return 0
}

func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
