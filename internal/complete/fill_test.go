package complete_test

import (
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/tidy/internal/complete"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteForFill(t *testing.T) {
	stringCategorical := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	intCategorical := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.PrimitiveTypes.Int64}

	tests := []struct {
		name     string
		dtype    arrow.DataType
		value    any
		expected arrow.DataType
	}{
		{"int64 with int", arrow.PrimitiveTypes.Int64, 1, arrow.PrimitiveTypes.Int64},
		{"int64 with integral float", arrow.PrimitiveTypes.Int64, 2.0, arrow.PrimitiveTypes.Int64},
		{"int64 with fractional float", arrow.PrimitiveTypes.Int64, 1.5, arrow.PrimitiveTypes.Float64},
		{"int32 with int", arrow.PrimitiveTypes.Int32, int64(7), arrow.PrimitiveTypes.Int32},
		{"int32 with fractional float", arrow.PrimitiveTypes.Int32, float32(0.25), arrow.PrimitiveTypes.Float64},
		{"float64 with int", arrow.PrimitiveTypes.Float64, 3, arrow.PrimitiveTypes.Float64},
		{"float32 with float", arrow.PrimitiveTypes.Float32, 0.5, arrow.PrimitiveTypes.Float32},
		{"string", arrow.BinaryTypes.String, "x", arrow.BinaryTypes.String},
		{"bool", arrow.FixedWidthTypes.Boolean, true, arrow.FixedWidthTypes.Boolean},
		{"timestamp", series.TimestampType, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), series.TimestampType},
		{"string categorical", stringCategorical, "new", stringCategorical},
		{"int categorical", intCategorical, 4.0, intCategorical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := complete.PromoteForFill("col", tt.dtype, tt.value)
			require.NoError(t, err)
			assert.True(t, arrow.TypeEqual(tt.expected, got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestPromoteForFill_Mismatch(t *testing.T) {
	intCategorical := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.PrimitiveTypes.Int64}

	tests := []struct {
		name  string
		dtype arrow.DataType
		value any
	}{
		{"string with int", arrow.BinaryTypes.String, 1},
		{"int with string", arrow.PrimitiveTypes.Int64, "1"},
		{"int32 out of range", arrow.PrimitiveTypes.Int32, int64(math.MaxInt32) + 1},
		{"float with bool", arrow.PrimitiveTypes.Float64, true},
		{"bool with int", arrow.FixedWidthTypes.Boolean, 0},
		{"timestamp with string", series.TimestampType, "2020-01-01"},
		{"int categorical with fraction", intCategorical, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := complete.PromoteForFill("col", tt.dtype, tt.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, dferrors.ErrTypeMismatch)
		})
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		name     string
		r        complete.Range
		expected complete.Values
	}{
		{"default step", complete.Range{Start: 1, Stop: 5}, complete.Values{int64(1), int64(2), int64(3), int64(4)}},
		{"stride", complete.Range{Start: 0, Stop: 10, Step: 3}, complete.Values{int64(0), int64(3), int64(6), int64(9)}},
		{"descending", complete.Range{Start: 5, Stop: 1, Step: -2}, complete.Values{int64(5), int64(3)}},
		{"empty", complete.Range{Start: 1, Stop: 1}, complete.Values{}},
		{"wrong direction", complete.Range{Start: 5, Stop: 1, Step: 1}, complete.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.r.Len()
			require.NoError(t, err)
			assert.Equal(t, len(tt.expected), n)

			vals, err := tt.r.Values()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, vals)
		})
	}
}

func TestRange_WideSpans(t *testing.T) {
	t.Run("extreme strides stay exact", func(t *testing.T) {
		up := complete.Range{Start: math.MinInt64, Stop: math.MaxInt64, Step: math.MaxInt64}
		vals, err := up.Values()
		require.NoError(t, err)
		assert.Equal(t, complete.Values{int64(math.MinInt64), int64(-1), int64(math.MaxInt64 - 1)}, vals)

		down := complete.Range{Start: math.MaxInt64, Stop: math.MinInt64, Step: math.MinInt64}
		vals, err = down.Values()
		require.NoError(t, err)
		assert.Equal(t, complete.Values{int64(math.MaxInt64), int64(-1)}, vals)
	})

	tooLarge := []complete.Range{
		{Start: -10, Stop: math.MaxInt64, Step: 1},
		{Start: 0, Stop: math.MaxInt64, Step: 2},
		{Start: math.MaxInt64, Stop: math.MinInt64, Step: -1},
	}
	for _, r := range tooLarge {
		_, err := r.Len()
		require.Error(t, err)
		assert.ErrorIs(t, err, dferrors.ErrConfiguration)

		_, err = r.Values()
		assert.ErrorIs(t, err, dferrors.ErrConfiguration)
	}
}
