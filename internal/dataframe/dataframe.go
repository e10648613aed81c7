// Package dataframe provides the columnar table used by the completion engine
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/tidy/internal/series"
)

// DataFrame represents a table of data with typed columns.
// A DataFrame owns one reference to each of its columns; frames derived from
// it (Select, Drop, WithColumn, ...) hold their own references, so every
// frame must be released independently.
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new DataFrame from a slice of ISeries. The DataFrame takes
// ownership of the series; a later series replaces an earlier one of the
// same name.
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		if prev, dup := columns[name]; dup {
			prev.Release()
		} else {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// NewFromArrays builds a DataFrame from parallel name and array slices.
// Each array is retained.
func NewFromArrays(names []string, arrays []arrow.Array) *DataFrame {
	cols := make([]ISeries, len(names))
	for i, name := range names {
		cols[i] = series.Wrap(name, arrays[i])
	}
	return New(cols...)
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	if len(df.order) == 0 {
		return []string{}
	}
	return append([]string(nil), df.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.order)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	series, exists := df.columns[name]
	return series, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Select returns a new DataFrame with only the specified columns, in the
// order given. Unknown names are skipped.
func (df *DataFrame) Select(names ...string) *DataFrame {
	cols := make([]ISeries, 0, len(names))
	for _, name := range names {
		if s, exists := df.columns[name]; exists {
			cols = append(cols, share(s))
		}
	}
	return New(cols...)
}

// Drop returns a new DataFrame without the specified columns
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}

	cols := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		if !dropSet[name] {
			cols = append(cols, share(df.columns[name]))
		}
	}
	return New(cols...)
}

// WithColumn returns a new DataFrame where s replaces the column of the same
// name, or is appended when no such column exists. The new frame takes
// ownership of s.
func (df *DataFrame) WithColumn(s ISeries) *DataFrame {
	cols := make([]ISeries, 0, len(df.order)+1)
	replaced := false
	for _, name := range df.order {
		if name == s.Name() {
			cols = append(cols, s)
			replaced = true
			continue
		}
		cols = append(cols, share(df.columns[name]))
	}
	if !replaced {
		cols = append(cols, s)
	}
	return New(cols...)
}

// Clone returns a frame sharing this frame's column data.
func (df *DataFrame) Clone() *DataFrame {
	return df.Select(df.order...)
}

// Arrays returns the underlying arrays of the named columns, without
// retaining them. The arrays are valid while df is.
func (df *DataFrame) Arrays(names ...string) ([]arrow.Array, error) {
	return df.arrays("Arrays", names)
}

func (df *DataFrame) arrays(op string, names []string) ([]arrow.Array, error) {
	arrays := make([]arrow.Array, len(names))
	for i, name := range names {
		s, ok := df.columns[name]
		if !ok {
			return nil, columnNotFound(op, name, df.order)
		}
		arrays[i] = borrow(s)
	}
	return arrays, nil
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		series := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, series.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, series := range df.columns {
		series.Release()
	}
}

// share returns a new handle on the same column data.
func share(s ISeries) ISeries {
	return rename(s, s.Name())
}

// borrow returns the column's array without keeping an extra reference.
func borrow(s ISeries) arrow.Array {
	arr := s.Array()
	arr.Release()
	return arr
}
