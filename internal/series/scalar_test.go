package series

import (
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendKeyEquality(t *testing.T) {
	mem := memory.NewGoAllocator()

	floats := NewNullable("f", []float64{math.NaN(), math.NaN(), 0, math.Copysign(0, -1), 1, 0},
		[]bool{true, true, true, true, true, false}, mem)
	defer floats.Release()

	key := func(i int) string { return string(AppendKey(nil, floats.array, i)) }

	assert.Equal(t, key(0), key(1), "NaN equals NaN")
	assert.Equal(t, key(2), key(3), "-0 equals 0")
	assert.NotEqual(t, key(2), key(4))
	assert.NotEqual(t, key(2), key(5), "null differs from zero")
}

func TestAppendKeyIntWidthsAgree(t *testing.T) {
	mem := memory.NewGoAllocator()

	a := New("a", []int64{7}, mem)
	defer a.Release()
	b := New("b", []int32{7}, mem)
	defer b.Release()

	assert.Equal(t, AppendKey(nil, a.array, 0), AppendKey(nil, b.array, 0))
}

func TestAppendScalarKeyTimesOutsideNanosecondRange(t *testing.T) {
	// 2^64 ns apart: equal UnixNano after wrapping, yet distinct instants.
	early := time.Unix(-10_000_000_000, 0).UTC()
	late := time.Unix(-10_000_000_000+18_446_744_073, 709_551_616).UTC()
	assert.NotEqual(t, AppendScalarKey(nil, early), AppendScalarKey(nil, late))

	far := time.Date(3000, 6, 1, 12, 0, 0, 5, time.UTC)
	assert.Equal(t, AppendScalarKey(nil, far), AppendScalarKey(nil, far.In(time.FixedZone("X", 3600))))
	assert.NotEqual(t, AppendScalarKey(nil, far), AppendScalarKey(nil, far.Add(time.Nanosecond)))
}

func TestAppendKeyStringsDoNotRunTogether(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := New("s", []string{"ab", "c", "a", "bc"}, mem)
	defer s.Release()

	first := AppendKey(AppendKey(nil, s.array, 0), s.array, 1)
	second := AppendKey(AppendKey(nil, s.array, 2), s.array, 3)
	assert.NotEqual(t, first, second)
}

func TestAppendKeyCategoricalDecodes(t *testing.T) {
	mem := memory.NewGoAllocator()

	cat, err := NewCategorical("c", []string{"x", "y"}, nil, []string{"y", "x"}, mem)
	require.NoError(t, err)
	defer cat.Release()
	plain := New("p", []string{"x", "y"}, mem)
	defer plain.Release()

	for i := 0; i < 2; i++ {
		assert.Equal(t, AppendKey(nil, plain.array, i), AppendKey(nil, cat.array, i))
	}
}

func TestCompare(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := NewNullable("n", []float64{1, 2, math.NaN(), 0}, []bool{true, true, true, false}, mem)
	defer s.Release()

	assert.Equal(t, -1, Compare(s.array, 0, s.array, 1))
	assert.Equal(t, 1, Compare(s.array, 1, s.array, 0))
	assert.Equal(t, -1, Compare(s.array, 1, s.array, 2), "NaN sorts last")
	assert.Equal(t, -1, Compare(s.array, 1, s.array, 3), "null sorts last")
	assert.Equal(t, 0, Compare(s.array, 2, s.array, 3))
}

func TestCompareValues(t *testing.T) {
	early := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		x, y any
		want int
	}{
		{"ints", int64(1), int64(2), -1},
		{"strings", "b", "a", 1},
		{"bools", false, true, -1},
		{"times", early.Add(time.Hour), early, 1},
		{"nil last", nil, int64(1), 1},
		{"both nil", nil, nil, 0},
		{"kind mismatch", int64(1), "a", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareValues(tt.x, tt.y))
		})
	}
}

func TestNewCategorical(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("observed categories are sorted", func(t *testing.T) {
		s, err := NewCategorical("c", []int64{4, 1, 3, 1}, nil, nil, mem)
		require.NoError(t, err)
		defer s.Release()

		assert.True(t, s.IsCategorical())
		assert.Equal(t, []any{int64(1), int64(3), int64(4)}, Categories(s.array))
		assert.Equal(t, []int64{4, 1, 3, 1}, s.Values())
	})

	t.Run("NaN and nulls are not categories", func(t *testing.T) {
		s, err := NewCategorical("c", []float64{1, math.NaN(), 3, 2}, []bool{true, true, true, false}, nil, mem)
		require.NoError(t, err)
		defer s.Release()

		assert.Equal(t, []any{1.0, 3.0}, Categories(s.array))
		assert.True(t, s.IsNull(1))
		assert.True(t, s.IsNull(3))
	})

	t.Run("declared categories must cover values", func(t *testing.T) {
		_, err := NewCategorical("c", []string{"a", "z"}, nil, []string{"a", "b"}, mem)
		require.Error(t, err)
	})
}
