package dataframe

import (
	"fmt"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIndex(t *testing.T) {
	idx := NewKeyIndex(1)

	assert.True(t, idx.Put("a", 0))
	assert.True(t, idx.Put("b", 1))
	assert.False(t, idx.Put("a", 2))

	// force several resizes
	for i := 0; i < 100; i++ {
		idx.Put(fmt.Sprintf("k%d", i), 10+i)
	}

	rows, ok := idx.Get("a")
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, rows)

	rows, ok = idx.Get("k99")
	require.True(t, ok)
	assert.Equal(t, []int{109}, rows)

	_, ok = idx.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 102, idx.Len())
	first := idx.FirstRows()
	assert.Equal(t, []int{0, 1, 10}, first[:3])
}

func TestBuildKeyIndexTreatsNaNAndNullAsValues(t *testing.T) {
	mem := memory.NewGoAllocator()
	col := series.NewNullable("v", []float64{math.NaN(), 1, math.NaN(), 0, 0}, []bool{true, true, true, false, false}, mem)
	defer col.Release()

	arr := col.Array()
	defer arr.Release()

	idx := BuildKeyIndex([]arrow.Array{arr}, arr.Len())
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []int{0, 1, 3}, idx.FirstRows())
}

func TestDistinct(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := New(
		series.New("type", []string{"apple", "orange", "apple", "orange", "orange", "orange"}, mem),
		series.New("size", []string{"XS", "S", "M", "S", "S", "M"}, mem),
		series.New("year", []int64{2010, 2010, 2012, 2010, 2011, 2012}, mem),
	)
	defer df.Release()

	out, err := df.Distinct("type", "size")
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []string{"type", "size"}, out.Columns())
	assert.Equal(t, []any{"apple", "orange", "apple", "orange"}, values(t, out, "type"))
	assert.Equal(t, []any{"XS", "S", "M", "M"}, values(t, out, "size"))

	_, err = df.Distinct("sise")
	assert.ErrorIs(t, err, dferrors.ErrConfiguration)
}

func TestGroupRows(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := New(
		series.New("state", []string{"CA", "TX", "CA", "TX"}, mem),
		series.New("year", []int64{2010, 2010, 2013, 2013}, mem),
	)
	defer df.Release()

	groups, err := df.GroupRows("state")
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, Group{First: 0, Rows: []int{0, 2}}, groups[0])
	assert.Equal(t, Group{First: 1, Rows: []int{1, 3}}, groups[1])
}
