// Package testutil provides fixtures and assertions shared by the test files
// of the completion engine, the I/O layer and the CLI.
//
// The fixtures are the small frames completion is usually demonstrated on:
//   - FillFrame: groups of items with a missing value
//   - TaxonomyFrame: species abundance per year
//   - StateYearFrame: yearly values per state, for by-group completion
//   - ProjectFrame: two independent nested groupings
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tidy/internal/dataframe"
	"github.com/paveg/tidy/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a memory allocator for a test.
// Returns a TestMemoryContext that should be released with defer.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewGoAllocator()

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			// The Go allocator is reclaimed by the GC
		},
	}
}

// FillFrameOption configures FillFrame.
type FillFrameOption func(*fillFrameConfig)

type fillFrameConfig struct {
	categorical bool
	withValues  bool
}

// WithCategoricalValue1 stores value1 as a categorical over {1, 3, 4}.
func WithCategoricalValue1() FillFrameOption {
	return func(cfg *fillFrameConfig) {
		cfg.categorical = true
	}
}

// WithoutValues drops value1 and value2, leaving only key columns.
func WithoutValues() FillFrameOption {
	return func(cfg *fillFrameConfig) {
		cfg.withValues = false
	}
}

// FillFrame creates the frame
//
//	group  item_id  item_name  value1  value2
//	1      1        a          1       4
//	2      2        a          null    5
//	1      2        b          3       6
//	2      3        b          4       7
func FillFrame(allocator memory.Allocator, opts ...FillFrameOption) *dataframe.DataFrame {
	cfg := &fillFrameConfig{withValues: true}
	for _, opt := range opts {
		opt(cfg)
	}

	cols := []dataframe.ISeries{
		series.New("group", []int64{1, 2, 1, 2}, allocator),
		series.New("item_id", []int64{1, 2, 2, 3}, allocator),
		series.New("item_name", []string{"a", "a", "b", "b"}, allocator),
	}
	if !cfg.withValues {
		return dataframe.New(cols...)
	}

	values := []float64{1, 0, 3, 4}
	valid := []bool{true, false, true, true}
	if cfg.categorical {
		value1, err := series.NewCategorical("value1", values, valid, nil, allocator)
		if err != nil {
			panic(err)
		}
		cols = append(cols, value1)
	} else {
		cols = append(cols, series.NewNullable("value1", values, valid, allocator))
	}
	cols = append(cols, series.New("value2", []int64{4, 5, 6, 7}, allocator))
	return dataframe.New(cols...)
}

// TaxonomyFrame creates the frame
//
//	Year  Taxon       Abundance
//	1999  Saccharina  4
//	2000  Saccharina  5
//	2004  Saccharina  2
//	1999  Agarum      1
//	2004  Agarum      8
func TaxonomyFrame(allocator memory.Allocator) *dataframe.DataFrame {
	return dataframe.New(
		series.New("Year", []int64{1999, 2000, 2004, 1999, 2004}, allocator),
		series.New("Taxon", []string{"Saccharina", "Saccharina", "Saccharina", "Agarum", "Agarum"}, allocator),
		series.New("Abundance", []int64{4, 5, 2, 1, 8}, allocator),
	)
}

// StateYearFrame creates a frame of yearly values for CA (2010, 2013),
// HI (2010, 2012, 2016) and NY (2009, 2013).
func StateYearFrame(allocator memory.Allocator) *dataframe.DataFrame {
	return dataframe.New(
		series.New("state", []string{"CA", "CA", "HI", "HI", "HI", "NY", "NY"}, allocator),
		series.New("year", []int64{2010, 2013, 2010, 2012, 2016, 2009, 2013}, allocator),
		series.New("value", []int64{1, 3, 1, 2, 3, 2, 5}, allocator),
	)
}

// ProjectFrame creates a frame where (meta, domain1) and
// (project_id, question_count) are two nested groupings.
func ProjectFrame(allocator memory.Allocator) *dataframe.DataFrame {
	return dataframe.New(
		series.New("project_id", []int64{1, 1, 1, 1, 2, 2, 2}, allocator),
		series.New("meta", []string{"A", "A", "B", "B", "A", "B", "C"}, allocator),
		series.New("domain1", []string{"d", "e", "h", "i", "d", "i", "k"}, allocator),
		series.New("question_count", []int64{3, 3, 3, 3, 2, 2, 2}, allocator),
		series.New("tag_count", []int64{2, 1, 3, 2, 1, 1, 2}, allocator),
	)
}

// ColumnValues returns the values of a column as Go values, nil for nulls
// and decoded values for categorical columns.
func ColumnValues(t testing.TB, df *dataframe.DataFrame, name string) []any {
	t.Helper()

	col, ok := df.Column(name)
	require.True(t, ok, "column %s should exist", name)
	arr := col.Array()
	defer arr.Release()

	out := make([]any, arr.Len())
	for i := range out {
		out[i] = series.ValueAt(arr, i)
	}
	return out
}

// Rows returns the frame as rows of Go values, columns in frame order.
func Rows(t testing.TB, df *dataframe.DataFrame) [][]any {
	t.Helper()

	rows := make([][]any, df.Len())
	for i := range rows {
		rows[i] = make([]any, 0, df.Width())
	}
	for _, name := range df.Columns() {
		for i, v := range ColumnValues(t, df, name) {
			rows[i] = append(rows[i], v)
		}
	}
	return rows
}

// AssertFrameEqual checks that two frames have the same columns, in order,
// with equal types and equal values.
func AssertFrameEqual(t testing.TB, expected, actual *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, expected, "expected DataFrame should not be nil")
	require.NotNil(t, actual, "actual DataFrame should not be nil")

	require.Equal(t, expected.Columns(), actual.Columns(), "DataFrame columns should match")
	require.Equal(t, expected.Len(), actual.Len(), "DataFrame lengths should match")

	for _, name := range expected.Columns() {
		expectedCol, _ := expected.Column(name)
		actualCol, _ := actual.Column(name)
		assert.True(t, arrow.TypeEqual(expectedCol.DataType(), actualCol.DataType()),
			"column %s type: expected %s, got %s", name, expectedCol.DataType(), actualCol.DataType())
		assert.Equal(t, ColumnValues(t, expected, name), ColumnValues(t, actual, name),
			"column %s data should match", name)
	}
}

// AssertDataFrameHasColumns verifies that a DataFrame has exactly the expected columns.
func AssertDataFrameHasColumns(t testing.TB, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Equal(t, expectedColumns, df.Columns(), "columns should match")
}
