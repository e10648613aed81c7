package series

import (
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnBuilderAppend(t *testing.T) {
	mem := memory.NewGoAllocator()

	tests := []struct {
		name    string
		dtype   arrow.DataType
		values  []any
		want    []any
		wantErr bool
	}{
		{
			name:   "int64 accepts ints and integral floats",
			dtype:  arrow.PrimitiveTypes.Int64,
			values: []any{1, int32(2), 3.0, nil},
			want:   []any{int64(1), int64(2), int64(3), nil},
		},
		{
			name:    "int64 rejects fractional float",
			dtype:   arrow.PrimitiveTypes.Int64,
			values:  []any{2.5},
			wantErr: true,
		},
		{
			name:    "int64 rejects string",
			dtype:   arrow.PrimitiveTypes.Int64,
			values:  []any{"7"},
			wantErr: true,
		},
		{
			name:   "int32 narrows",
			dtype:  arrow.PrimitiveTypes.Int32,
			values: []any{int64(4)},
			want:   []any{int32(4)},
		},
		{
			name:    "int32 overflow",
			dtype:   arrow.PrimitiveTypes.Int32,
			values:  []any{int64(math.MaxInt32) + 1},
			wantErr: true,
		},
		{
			name:   "float64 accepts any number",
			dtype:  arrow.PrimitiveTypes.Float64,
			values: []any{1, 2.5, float32(0.5)},
			want:   []any{1.0, 2.5, 0.5},
		},
		{
			name:   "float32",
			dtype:  arrow.PrimitiveTypes.Float32,
			values: []any{0.25},
			want:   []any{float32(0.25)},
		},
		{
			name:    "float64 rejects bool",
			dtype:   arrow.PrimitiveTypes.Float64,
			values:  []any{true},
			wantErr: true,
		},
		{
			name:   "string",
			dtype:  arrow.BinaryTypes.String,
			values: []any{"a", nil},
			want:   []any{"a", nil},
		},
		{
			name:    "string rejects number",
			dtype:   arrow.BinaryTypes.String,
			values:  []any{1},
			wantErr: true,
		},
		{
			name:   "bool",
			dtype:  arrow.FixedWidthTypes.Boolean,
			values: []any{false},
			want:   []any{false},
		},
		{
			name:    "bool rejects int",
			dtype:   arrow.FixedWidthTypes.Boolean,
			values:  []any{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewColumnBuilder("col", tt.dtype, mem)
			require.NoError(t, err)
			defer b.Release()

			for _, v := range tt.values {
				err = b.Append(v)
				if err != nil {
					break
				}
			}
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
				return
			}
			require.NoError(t, err)

			arr := b.NewArray()
			defer arr.Release()
			got := make([]any, arr.Len())
			for i := range got {
				got[i] = ValueAt(arr, i)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumnBuilderTimestamp(t *testing.T) {
	b, err := NewColumnBuilder("ts", TimestampType, memory.NewGoAllocator())
	require.NoError(t, err)
	defer b.Release()

	when := time.Date(2020, 5, 17, 8, 30, 0, 0, time.UTC)
	require.NoError(t, b.Append(when))
	require.Error(t, b.Append("2020-05-17"))

	arr := b.NewArray()
	defer arr.Release()
	require.Equal(t, 1, arr.Len())
	assert.True(t, when.Equal(ValueAt(arr, 0).(time.Time)))
}

func TestColumnBuilderUnsupportedType(t *testing.T) {
	_, err := NewColumnBuilder("x", arrow.PrimitiveTypes.Uint16, memory.NewGoAllocator())
	require.Error(t, err)
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}

func TestColumnBuilderLikeKeepsCategories(t *testing.T) {
	mem := memory.NewGoAllocator()

	s, err := NewCategorical("cat", []float64{1, 3, 4}, nil, nil, mem)
	require.NoError(t, err)
	defer s.Release()

	b, err := NewColumnBuilderLike("cat", s.array, mem)
	require.NoError(t, err)
	defer b.Release()

	for i := 0; i < s.Len(); i++ {
		require.NoError(t, b.AppendFrom(s.array, i))
	}
	require.NoError(t, b.Append(0))
	b.AppendNull()

	arr := b.NewArray()
	defer arr.Release()

	assert.Equal(t, []any{1.0, 3.0, 4.0, 0.0}, Categories(arr))
	assert.Equal(t, 0.0, ValueAt(arr, 3))
	assert.Nil(t, ValueAt(arr, 4))
	assert.Equal(t, 5, arr.Len())
}

func TestColumnBuilderLikeSkipsNaNCategory(t *testing.T) {
	mem := memory.NewGoAllocator()

	db := array.NewFloat64Builder(mem)
	defer db.Release()
	db.AppendValues([]float64{1, math.NaN(), 3}, nil)
	dict := db.NewArray()
	defer dict.Release()

	ib := array.NewInt32Builder(mem)
	defer ib.Release()
	ib.AppendValues([]int32{0, 1, 2}, nil)
	indices := ib.NewArray()
	defer indices.Release()

	dtype := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.PrimitiveTypes.Float64}
	src := array.NewDictionaryArray(dtype, indices, dict)
	defer src.Release()

	b, err := NewColumnBuilderLike("v", src, mem)
	require.NoError(t, err)
	defer b.Release()
	for i := 0; i < src.Len(); i++ {
		require.NoError(t, b.AppendFrom(src, i))
	}
	require.NoError(t, b.Append(0))

	arr := b.NewArray()
	defer arr.Release()

	assert.Equal(t, []any{1.0, 3.0, 0.0}, Categories(arr))
	assert.Equal(t, 1.0, ValueAt(arr, 0))
	assert.True(t, arr.IsNull(1))
	assert.Equal(t, 3.0, ValueAt(arr, 2))
	assert.Equal(t, 0.0, ValueAt(arr, 3))
}

func TestCategoricalBuilderRejectsWrongKind(t *testing.T) {
	b, err := NewCategoricalBuilder("c", arrow.BinaryTypes.String, []any{"a"}, memory.NewGoAllocator())
	require.NoError(t, err)
	defer b.Release()

	err = b.Append(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
}
