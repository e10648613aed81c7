package dataframe

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/tidy/internal/series"
	"github.com/paveg/tidy/internal/validation"
)

// SortBy returns a new DataFrame ordered lexicographically by columns.
// The sort is stable. Categorical columns order by category position, the
// others by value. Absent values (null or NaN) sort last in either
// direction.
func (df *DataFrame) SortBy(columns []string, ascending []bool) (*DataFrame, error) {
	perm, err := df.SortIndices(columns, ascending)
	if err != nil {
		return nil, err
	}
	return df.Take(perm)
}

// SortIndices returns the row permutation SortBy applies.
func (df *DataFrame) SortIndices(columns []string, ascending []bool) ([]int, error) {
	if err := validation.ValidateLength(len(columns), len(ascending), "Sort", "ascending flags per sort column"); err != nil {
		return nil, err
	}
	cols, err := df.arrays("Sort", columns)
	if err != nil {
		return nil, err
	}

	perm := make([]int, df.Len())
	for i := range perm {
		perm[i] = i
	}

	sort.SliceStable(perm, func(a, b int) bool {
		i, j := perm[a], perm[b]
		for k, col := range cols {
			c := compareRows(col, i, j)
			if c == 0 {
				continue
			}
			if !ascending[k] && !series.IsAbsent(col, i) && !series.IsAbsent(col, j) {
				c = -c
			}
			return c < 0
		}
		return false
	})
	return perm, nil
}

// compareRows orders two rows of one column. Present categorical values
// compare by dictionary index.
func compareRows(col arrow.Array, i, j int) int {
	if d, ok := col.(*array.Dictionary); ok && !series.IsAbsent(col, i) && !series.IsAbsent(col, j) {
		a, b := d.GetValueIndex(i), d.GetValueIndex(j)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return series.Compare(col, i, col, j)
}
