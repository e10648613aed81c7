package series

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tidy/internal/common"
	dferrors "github.com/paveg/tidy/internal/errors"
)

// ColumnBuilder appends Go values to a column of a fixed Arrow type.
// Values are converted without parsing: integral floats fit integer
// columns, any number fits float columns, and strings, bools and times
// only fit columns of their own kind. Categorical columns grow their
// dictionary when a new category is appended.
type ColumnBuilder struct {
	name  string
	dtype arrow.DataType
	mem   memory.Allocator

	values array.Builder

	// dictionary encoding state
	dict     *arrow.DictionaryType
	indices  *array.Int32Builder
	cats     []any
	catIndex map[any]int32
}

// NewColumnBuilder creates a builder for dtype.
func NewColumnBuilder(name string, dtype arrow.DataType, mem memory.Allocator) (*ColumnBuilder, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	b := &ColumnBuilder{name: name, dtype: dtype, mem: mem}

	if dict, ok := dtype.(*arrow.DictionaryType); ok {
		switch dict.ValueType.ID() {
		case arrow.INT64, arrow.FLOAT64, arrow.STRING:
		default:
			return nil, dferrors.NewUnsupportedTypeError("NewColumnBuilder",
				"categorical of "+dict.ValueType.String())
		}
		b.dict = dict
		b.indices = array.NewInt32Builder(mem)
		b.catIndex = make(map[any]int32)
		return b, nil
	}

	switch dtype.ID() {
	case arrow.INT64, arrow.INT32, arrow.FLOAT64, arrow.FLOAT32, arrow.STRING, arrow.BOOL, arrow.TIMESTAMP:
		b.values = array.NewBuilder(mem, dtype)
	default:
		return nil, dferrors.NewUnsupportedTypeError("NewColumnBuilder", dtype.String())
	}
	return b, nil
}

// NewColumnBuilderLike creates a builder producing arrays of arr's type.
// For categorical arrays the builder starts with arr's categories, so
// existing codes keep their meaning.
func NewColumnBuilderLike(name string, arr arrow.Array, mem memory.Allocator) (*ColumnBuilder, error) {
	b, err := NewColumnBuilder(name, arr.DataType(), mem)
	if err != nil {
		return nil, err
	}
	if err := b.seed(Categories(arr)); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// NewCategoricalBuilder creates a builder for a dictionary column over
// valueType whose domain starts with categories.
func NewCategoricalBuilder(name string, valueType arrow.DataType, categories []any, mem memory.Allocator) (*ColumnBuilder, error) {
	dtype := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: valueType}
	b, err := NewColumnBuilder(name, dtype, mem)
	if err != nil {
		return nil, err
	}
	if err := b.seed(categories); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// seed adds categories to the domain in order. NaN is never a category;
// Append stores it as null.
func (b *ColumnBuilder) seed(categories []any) error {
	for _, c := range categories {
		if f, ok := c.(float64); ok && math.IsNaN(f) {
			continue
		}
		if _, err := b.category(c); err != nil {
			return err
		}
	}
	return nil
}

// DataType returns the type of the arrays this builder produces.
func (b *ColumnBuilder) DataType() arrow.DataType {
	return b.dtype
}

// Len returns the number of appended rows.
func (b *ColumnBuilder) Len() int {
	if b.dict != nil {
		return b.indices.Len()
	}
	return b.values.Len()
}

// AppendNull appends a null row.
func (b *ColumnBuilder) AppendNull() {
	if b.dict != nil {
		b.indices.AppendNull()
		return
	}
	b.values.AppendNull()
}

// AppendFrom copies row i of arr, which must hold values this builder accepts.
func (b *ColumnBuilder) AppendFrom(arr arrow.Array, i int) error {
	return b.Append(ValueAt(arr, i))
}

// Append converts v to the column type and appends it. A nil v appends null.
func (b *ColumnBuilder) Append(v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	if b.dict != nil {
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			b.indices.AppendNull()
			return nil
		}
		code, err := b.category(v)
		if err != nil {
			return err
		}
		b.indices.Append(code)
		return nil
	}

	switch vb := b.values.(type) {
	case *array.Int64Builder:
		n, err := common.ToInt64(v)
		if err != nil {
			return b.mismatch(v, err)
		}
		vb.Append(n)
	case *array.Int32Builder:
		n, err := common.ToInt32(v)
		if err != nil {
			return b.mismatch(v, err)
		}
		vb.Append(n)
	case *array.Float64Builder:
		f, err := common.ToFloat64(v)
		if err != nil {
			return b.mismatch(v, err)
		}
		vb.Append(f)
	case *array.Float32Builder:
		f, err := common.ToFloat64(v)
		if err != nil {
			return b.mismatch(v, err)
		}
		vb.Append(float32(f))
	case *array.StringBuilder:
		s, ok := v.(string)
		if !ok {
			return b.mismatch(v, nil)
		}
		vb.Append(s)
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return b.mismatch(v, nil)
		}
		vb.Append(x)
	case *array.TimestampBuilder:
		t, ok := v.(time.Time)
		if !ok {
			return b.mismatch(v, nil)
		}
		ts, err := arrow.TimestampFromTime(t, b.dtype.(*arrow.TimestampType).Unit)
		if err != nil {
			return b.mismatch(v, err)
		}
		vb.Append(ts)
	default:
		return dferrors.NewUnsupportedTypeError("Append", b.dtype.String())
	}
	return nil
}

// category returns the dictionary code of v, adding it to the domain when new.
func (b *ColumnBuilder) category(v any) (int32, error) {
	var key any
	switch b.dict.ValueType.ID() {
	case arrow.INT64:
		n, err := common.ToInt64(v)
		if err != nil {
			return 0, b.mismatch(v, err)
		}
		key = n
	case arrow.FLOAT64:
		f, err := common.ToFloat64(v)
		if err != nil {
			return 0, b.mismatch(v, err)
		}
		if f == 0 {
			f = 0
		}
		key = f
	case arrow.STRING:
		s, ok := v.(string)
		if !ok {
			return 0, b.mismatch(v, nil)
		}
		key = s
	}

	if code, ok := b.catIndex[key]; ok {
		return code, nil
	}
	code := int32(len(b.cats))
	b.cats = append(b.cats, key)
	b.catIndex[key] = code
	return code, nil
}

func (b *ColumnBuilder) mismatch(v any, cause error) error {
	msg := fmt.Sprintf("cannot store %s value %v in %s column",
		common.GetTypeName(v), v, ValueType(b.dtype))
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return dferrors.NewTypeMismatchError("Append", b.name, msg)
}

// NewArray returns the built array and resets the builder.
func (b *ColumnBuilder) NewArray() arrow.Array {
	if b.dict == nil {
		return b.values.NewArray()
	}

	indices := b.indices.NewArray()
	defer indices.Release()

	vb := array.NewBuilder(b.mem, b.dict.ValueType)
	defer vb.Release()
	for _, c := range b.cats {
		switch x := vb.(type) {
		case *array.Int64Builder:
			x.Append(c.(int64))
		case *array.Float64Builder:
			x.Append(c.(float64))
		case *array.StringBuilder:
			x.Append(c.(string))
		}
	}
	values := vb.NewArray()
	defer values.Release()

	return array.NewDictionaryArray(b.dict, indices, values)
}

// Release frees the builder's buffers.
func (b *ColumnBuilder) Release() {
	if b.values != nil {
		b.values.Release()
	}
	if b.indices != nil {
		b.indices.Release()
	}
}
