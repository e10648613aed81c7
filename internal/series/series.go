// Package series provides typed, nullable columns backed by Apache Arrow arrays
package series

import (
	"fmt"
	"reflect"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tidy/internal/common"
	dferrors "github.com/paveg/tidy/internal/errors"
)

// TimestampType is the Arrow type used for time.Time columns.
var TimestampType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

// Column is the type-erased view of a Series shared by the dataframe layer.
type Column interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
}

// Series represents a typed data column with Apache Arrow backend
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values.
// It panics when T has no Arrow representation.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a Series where valid[i] == false marks row i as null.
// A nil valid slice means every row is present.
func NewNullable[T any](name string, values []T, valid []bool, mem memory.Allocator) *Series[T] {
	dtype, err := DataTypeOf[T]()
	if err != nil {
		panic(err.Error())
	}
	s, err := build(name, dtype, values, valid, mem)
	if err != nil {
		panic(err.Error())
	}
	return s
}

func build[T any](name string, dtype arrow.DataType, values []T, valid []bool, mem memory.Allocator) (*Series[T], error) {
	if valid != nil && len(valid) != len(values) {
		return nil, dferrors.NewConfigurationError("NewSeries", name,
			fmt.Sprintf("validity length %d does not match %d values", len(valid), len(values)))
	}

	b, err := NewColumnBuilder(name, dtype, mem)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	for i, v := range values {
		if valid != nil && !valid[i] {
			b.AppendNull()
			continue
		}
		if err := b.Append(v); err != nil {
			return nil, err
		}
	}

	return &Series[T]{name: name, array: b.NewArray()}, nil
}

// FromArray wraps an existing Arrow array. The array is retained.
func FromArray[T any](name string, arr arrow.Array) *Series[T] {
	arr.Retain()
	return &Series[T]{name: name, array: arr}
}

// Wrap wraps arr in a Series whose element type follows the Arrow type.
// Types without a Go mapping are wrapped as Series[any]. The array is retained.
func Wrap(name string, arr arrow.Array) Column {
	switch ValueType(arr.DataType()).ID() {
	case arrow.INT64:
		return FromArray[int64](name, arr)
	case arrow.INT32:
		return FromArray[int32](name, arr)
	case arrow.FLOAT64:
		return FromArray[float64](name, arr)
	case arrow.FLOAT32:
		return FromArray[float32](name, arr)
	case arrow.STRING:
		return FromArray[string](name, arr)
	case arrow.BOOL:
		return FromArray[bool](name, arr)
	case arrow.TIMESTAMP:
		return FromArray[time.Time](name, arr)
	default:
		return FromArray[any](name, arr)
	}
}

// DataTypeOf maps a Go element type to its Arrow type.
func DataTypeOf[T any]() (arrow.DataType, error) {
	var zero T
	switch any(zero).(type) {
	case string:
		return arrow.BinaryTypes.String, nil
	case int64:
		return arrow.PrimitiveTypes.Int64, nil
	case int32:
		return arrow.PrimitiveTypes.Int32, nil
	case float64:
		return arrow.PrimitiveTypes.Float64, nil
	case float32:
		return arrow.PrimitiveTypes.Float32, nil
	case bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case time.Time:
		return TimestampType, nil
	default:
		return nil, dferrors.NewUnsupportedTypeError("NewSeries", fmt.Sprintf("%T", zero))
	}
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Values returns the data as a Go slice. Null rows hold the zero value.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Value returns the value at the given index, or the zero value for nulls
// and out-of-range indices.
func (s *Series[T]) Value(index int) T {
	var zero T
	if index < 0 || index >= s.array.Len() {
		return zero
	}
	if v, ok := ValueAt(s.array, index).(T); ok {
		return v
	}
	return zero
}

// Valid reports, per row, whether a value is present.
func (s *Series[T]) Valid() []bool {
	valid := make([]bool, s.array.Len())
	for i := range valid {
		valid[i] = s.array.IsValid(i)
	}
	return valid
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// NullN returns the number of null rows.
func (s *Series[T]) NullN() int {
	return s.array.NullN()
}

// IsCategorical reports whether the series is dictionary encoded.
func (s *Series[T]) IsCategorical() bool {
	return IsCategorical(s.array)
}

// GetAsString renders the value at index for display; nulls render as "null".
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.array.Len() {
		return ""
	}
	return common.ToString(ValueAt(s.array, index))
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
