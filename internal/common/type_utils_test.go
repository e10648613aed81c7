package common_test

import (
	"math"
	"testing"
	"time"

	"github.com/paveg/tidy/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsScalar(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{"int", 1, true},
		{"uint8", uint8(1), true},
		{"float64", 0.5, true},
		{"string", "a", true},
		{"bool", false, true},
		{"time", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"nil", nil, false},
		{"slice", []int{2, 3, 4}, false},
		{"map", map[string]int{"a": 1}, false},
		{"array", [2]int{1, 2}, false},
		{"struct", struct{}{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, common.IsScalar(tt.value))
		})
	}
}

func TestToInt64(t *testing.T) {
	t.Run("integer types", func(t *testing.T) {
		for _, v := range []any{int(42), int8(42), int16(42), int32(42), int64(42), uint(42), uint16(42), uint64(42)} {
			result, err := common.ToInt64(v)
			require.NoError(t, err)
			assert.Equal(t, int64(42), result)
		}
	})

	t.Run("integral floats", func(t *testing.T) {
		result, err := common.ToInt64(2004.0)
		require.NoError(t, err)
		assert.Equal(t, int64(2004), result)
	})

	t.Run("fractional float rejected", func(t *testing.T) {
		_, err := common.ToInt64(42.7)
		require.Error(t, err)
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := common.ToInt64(uint64(math.MaxUint64))
		require.Error(t, err)

		// float64(MaxInt64) rounds up to 2^63, one past the int64 range.
		_, err = common.ToInt64(float64(math.MaxInt64))
		require.Error(t, err)

		result, err := common.ToInt64(float64(math.MinInt64))
		require.NoError(t, err)
		assert.Equal(t, int64(math.MinInt64), result)
	})

	t.Run("strings and bools are not parsed", func(t *testing.T) {
		_, err := common.ToInt64("42")
		require.Error(t, err)
		_, err = common.ToInt64(true)
		require.Error(t, err)
	})
}

func TestToInt32(t *testing.T) {
	result, err := common.ToInt32(int64(7))
	require.NoError(t, err)
	assert.Equal(t, int32(7), result)

	_, err = common.ToInt32(int64(math.MaxInt64))
	require.Error(t, err)
}

func TestToFloat64(t *testing.T) {
	result, err := common.ToFloat64(int(42))
	require.NoError(t, err)
	assert.InDelta(t, 42.0, result, 1e-9)

	result, err = common.ToFloat64(float32(3.14))
	require.NoError(t, err)
	assert.InDelta(t, 3.14, result, 0.01)

	_, err = common.ToFloat64("3.14")
	require.Error(t, err)
}

func TestIsIntegral(t *testing.T) {
	assert.True(t, common.IsIntegral(3))
	assert.True(t, common.IsIntegral(3.0))
	assert.False(t, common.IsIntegral(3.5))
	assert.False(t, common.IsIntegral(math.NaN()))
	assert.False(t, common.IsIntegral(math.Inf(1)))
	assert.False(t, common.IsIntegral("3"))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "hello", common.ToString("hello"))
	assert.Equal(t, "42", common.ToString(42))
	assert.Equal(t, "3.14", common.ToString(3.14))
	assert.Equal(t, "true", common.ToString(true))
	assert.Equal(t, "null", common.ToString(nil))
	assert.Equal(t, "1999-01-01T00:00:00Z", common.ToString(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestGetTypeName(t *testing.T) {
	assert.Equal(t, "int", common.GetTypeName(42))
	assert.Equal(t, "int32", common.GetTypeName(int32(42)))
	assert.Equal(t, "[]int", common.GetTypeName([]int{1}))
	assert.Equal(t, "nil", common.GetTypeName(nil))
}
