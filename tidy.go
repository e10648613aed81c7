// Package tidy completes tables: it turns implicitly missing rows into
// explicit ones.
//
// A table records, say, abundance per species and year, but only for the
// years a species was seen. Completing it on Year and Taxon adds a row for
// every species and year pair, with the measured columns left null or
// filled with a chosen value:
//
//	df := tidy.NewDataFrame(years, taxa, abundance)
//	defer df.Release()
//
//	out, err := df.Complete([]tidy.GroupSpec{tidy.Col("Year"), tidy.Col("Taxon")},
//		tidy.Options{FillValue: map[string]any{"Abundance": 0}, Explicit: true})
//	if err != nil {
//		return err
//	}
//	defer out.Release()
//
// Groups can be single columns (Col), observed combinations of several
// columns (Nest), explicit values per column (Map with Values, Range,
// FullSeq or Func) and prebuilt combinations (From, FromSeries).
//
// This package is the sole public API; everything else lives in internal/.
package tidy

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tidy/internal/complete"
	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
	tidyio "github.com/paveg/tidy/internal/io"
	"github.com/paveg/tidy/internal/series"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
}

// DataFrame is the public type for a DataFrame.
// It wraps the internal dataframe.DataFrame to hide implementation details.
type DataFrame struct {
	df *dataframe.DataFrame
}

// NewDataFrame creates a new DataFrame from ISeries. The frame takes
// ownership of the series.
func NewDataFrame(series ...ISeries) *DataFrame {
	internalSeries := make([]dataframe.ISeries, len(series))
	for i, s := range series {
		internalSeries[i] = s
	}
	return &DataFrame{df: dataframe.New(internalSeries...)}
}

// NewSeries creates a new typed Series from values.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// NewNullableSeries creates a Series where valid[i] == false marks row i as
// null.
func NewNullableSeries[T any](name string, values []T, valid []bool, mem memory.Allocator) ISeries {
	return series.NewNullable(name, values, valid, mem)
}

// NewCategoricalSeries creates a dictionary encoded Series over int64,
// float64 or string values. A nil categories slice uses the sorted observed
// values as the domain.
func NewCategoricalSeries[T series.CategoryValue](name string, values []T, valid []bool, categories []T, mem memory.Allocator) (ISeries, error) {
	s, err := series.NewCategorical(name, values, valid, categories, mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ReadFile reads a CSV, Parquet, JSON or JSON Lines file, chosen by
// extension.
func ReadFile(path string, mem memory.Allocator) (*DataFrame, error) {
	df, err := tidyio.ReadFile(path, mem)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}

// WriteFile writes the DataFrame in the format named by the extension of path.
func (d *DataFrame) WriteFile(path string) error {
	return tidyio.WriteFile(path, d.df)
}

// Columns returns the column names in order.
func (d *DataFrame) Columns() []string {
	return d.df.Columns()
}

// Len returns the number of rows.
func (d *DataFrame) Len() int {
	return d.df.Len()
}

// Width returns the number of columns.
func (d *DataFrame) Width() int {
	return d.df.Width()
}

// Column returns the column with the given name.
func (d *DataFrame) Column(name string) (ISeries, bool) {
	return d.df.Column(name)
}

// HasColumn returns true if the DataFrame has the given column.
func (d *DataFrame) HasColumn(name string) bool {
	return d.df.HasColumn(name)
}

// Value returns the cell at row i of column name, nil when it is null or
// the column does not exist.
func (d *DataFrame) Value(name string, i int) any {
	arrays, err := d.df.Arrays(name)
	if err != nil || i < 0 || i >= d.df.Len() {
		return nil
	}
	return series.ValueAt(arrays[0], i)
}

// Select returns a new DataFrame with only the specified columns.
func (d *DataFrame) Select(names ...string) *DataFrame {
	return &DataFrame{df: d.df.Select(names...)}
}

// Drop returns a new DataFrame without the specified columns.
func (d *DataFrame) Drop(names ...string) *DataFrame {
	return &DataFrame{df: d.df.Drop(names...)}
}

// SortBy returns a new DataFrame sorted by the specified columns. Nulls
// sort last.
func (d *DataFrame) SortBy(columns []string, ascending []bool) (*DataFrame, error) {
	sorted, err := d.df.SortBy(columns, ascending)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: sorted}, nil
}

// String returns a string representation of the DataFrame.
func (d *DataFrame) String() string {
	return d.df.String()
}

// Release releases the memory used by the DataFrame.
func (d *DataFrame) Release() {
	d.df.Release()
}

// WithDataFrame creates a DataFrame, runs fn on it and releases it.
func WithDataFrame(factory func() *DataFrame, fn func(*DataFrame) error) error {
	df := factory()
	defer df.Release()
	return fn(df)
}

// GroupSpec describes one group of key columns to complete on.
type GroupSpec struct {
	spec   complete.GroupSpec
	series ISeries
}

// MapEntry pairs a column with the values it should take.
type MapEntry = complete.MapEntry

// ValueSource supplies the values of a mapped column: Values, Range,
// FullSeq or Func.
type ValueSource = complete.ValueSource

// Options controls Complete. See DefaultOptions.
type Options = complete.Options

// DefaultOptions returns options with Explicit set.
func DefaultOptions() Options {
	return complete.DefaultOptions()
}

// Col groups on the observed values of one column.
func Col(name string) GroupSpec {
	return GroupSpec{spec: complete.Column(name)}
}

// Nest groups on the combinations of columns observed together.
func Nest(columns ...string) GroupSpec {
	return GroupSpec{spec: complete.Nested(columns)}
}

// Map groups on explicit values per column. The entries are crossed with
// each other, the last entry varying fastest.
func Map(entries ...MapEntry) GroupSpec {
	return GroupSpec{spec: complete.Mapping(entries)}
}

// Entry returns a map entry for column.
func Entry(column string, source ValueSource) MapEntry {
	return MapEntry{Column: column, Source: source}
}

// From groups on the rows of a prebuilt frame, whose columns name table
// columns. The frame is borrowed for the duration of Complete.
func From(df *DataFrame) GroupSpec {
	var frame *dataframe.DataFrame
	if df != nil {
		frame = df.df
	}
	return GroupSpec{spec: complete.Prebuilt{Frame: frame}}
}

// FromSeries groups on the values of a named series, as if it were a one
// column prebuilt frame.
func FromSeries(s ISeries) GroupSpec {
	return GroupSpec{series: s}
}

// Values is a literal sequence of values; nil stands for a null key.
func Values(values ...any) ValueSource {
	return complete.Values(values)
}

// Range is the half-open integer range [start, stop) counting by step.
func Range(start, stop, step int64) ValueSource {
	return complete.Range{Start: start, Stop: stop, Step: step}
}

// FullSeq spans the minimum to the maximum of column in steps of period,
// evaluated for each by-group separately.
func FullSeq(column string, period int64) ValueSource {
	return complete.FullSeq(column, period)
}

// Func computes values from the rows of a by-group, or of the whole table
// without by columns. It may return a slice of scalars, Values, Range, a
// Series or a one column DataFrame. The partition is only valid during the
// call. With parallel group building enabled fn runs concurrently.
func Func(fn func(part *DataFrame) (any, error)) ValueSource {
	return complete.Func(func(part *dataframe.DataFrame) (any, error) {
		v, err := fn(&DataFrame{df: part})
		if df, ok := v.(*DataFrame); ok && df != nil {
			return df.df, err
		}
		return v, err
	})
}

// Complete returns a copy of the DataFrame with a row for every
// combination of the groups. Existing rows are kept; new rows have null
// non-key cells unless opts.FillValue fills them.
func (d *DataFrame) Complete(groups []GroupSpec, opts Options) (*DataFrame, error) {
	specs := make([]complete.GroupSpec, len(groups))
	for i, g := range groups {
		if g.series == nil {
			specs[i] = g.spec
			continue
		}
		frame, err := seriesFrame(g.series)
		if err != nil {
			return nil, err
		}
		defer frame.Release()
		specs[i] = complete.Prebuilt{Frame: frame}
	}

	out, err := complete.Complete(d.df, specs, opts)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: out}, nil
}

// seriesFrame wraps s in a one column frame sharing its data.
func seriesFrame(s ISeries) (*dataframe.DataFrame, error) {
	if s.Name() == "" {
		return nil, dferrors.NewConfigurationError("Complete", "", "series used as a group must be named")
	}
	arr := s.Array()
	defer arr.Release()
	return dataframe.New(series.Wrap(s.Name(), arr)), nil
}
