package complete

import (
	"fmt"
	"math"

	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
)

// GroupSpec is one group argument of Complete: a Column, Nested, Mapping or
// Prebuilt.
type GroupSpec interface {
	groupColumns() []string
	describe() string
}

// Column completes over the distinct observed values of one column.
type Column string

// Nested completes over the observed combinations of several columns, not
// the cross product of their values.
type Nested []string

// Mapping completes over explicit values. Entries are crossed in order, the
// last entry varying fastest.
type Mapping []MapEntry

// MapEntry assigns a value source to one column.
type MapEntry struct {
	Column string
	Source ValueSource
}

// Prebuilt completes over the rows of a frame of key columns, deduplicated.
// The frame is borrowed; Complete does not release it.
type Prebuilt struct {
	Frame *dataframe.DataFrame
}

func (c Column) groupColumns() []string { return []string{string(c)} }
func (c Column) describe() string       { return fmt.Sprintf("column %q", string(c)) }

func (n Nested) groupColumns() []string { return append([]string(nil), n...) }
func (n Nested) describe() string       { return fmt.Sprintf("nested columns %q", []string(n)) }

func (m Mapping) groupColumns() []string {
	cols := make([]string, len(m))
	for i, e := range m {
		cols[i] = e.Column
	}
	return cols
}
func (m Mapping) describe() string { return fmt.Sprintf("mapping over %q", m.groupColumns()) }

func (p Prebuilt) groupColumns() []string {
	if p.Frame == nil {
		return nil
	}
	return p.Frame.Columns()
}
func (p Prebuilt) describe() string { return fmt.Sprintf("prebuilt combinations %q", p.groupColumns()) }

// ValueSource supplies the values of one mapped column: Values, Range or Func.
type ValueSource interface {
	isValueSource()
}

// Values is a literal sequence of scalars. A nil element is a null key.
type Values []any

// Range is the half-open integer range [Start, Stop) with stride Step.
// A zero Step means 1; a negative Step counts down.
type Range struct {
	Start, Stop, Step int64
}

// Func computes values from the table, or from the by-group partition when
// Options.By is set. It may return a flat slice of scalars, Values, Range or
// a single column series.
type Func func(part *dataframe.DataFrame) (any, error)

func (Values) isValueSource() {}
func (Range) isValueSource()  {}
func (Func) isValueSource()   {}

// maxSequenceLen bounds how many values a Range or full sequence may expand
// to.
const maxSequenceLen = math.MaxInt32

// Len returns the number of values in the range. Ranges with more than
// maxSequenceLen values are a ConfigurationError.
func (r Range) Len() (int, error) {
	return r.sequence().len("")
}

// Values expands the range.
func (r Range) Values() (Values, error) {
	return r.sequence().values("")
}

func (r Range) sequence() sequence {
	step := r.stride()
	var n uint64
	switch {
	case step > 0 && r.Stop > r.Start:
		n = (uint64(r.Stop)-uint64(r.Start)-1)/uint64(step) + 1
	case step < 0 && r.Stop < r.Start:
		n = (uint64(r.Start)-uint64(r.Stop)-1)/magnitude(step) + 1
	}
	return sequence{start: r.Start, step: step, n: n}
}

func (r Range) stride() int64 {
	if r.Step == 0 {
		return 1
	}
	return r.Step
}

// magnitude returns |step| for a negative step, MinInt64 included.
func magnitude(step int64) uint64 {
	return uint64(-(step + 1)) + 1
}

// sequence is n integers from start counting by step. Counts are unsigned
// so that spans wider than MaxInt64 do not wrap.
type sequence struct {
	start, step int64
	n           uint64
}

func (s sequence) len(column string) (int, error) {
	if s.n > maxSequenceLen {
		return 0, dferrors.NewConfigurationError(opComplete, column,
			fmt.Sprintf("integer sequence of %d values is too large to enumerate", s.n))
	}
	return int(s.n), nil
}

func (s sequence) values(column string) (Values, error) {
	n, err := s.len(column)
	if err != nil {
		return nil, err
	}
	out := make(Values, n)
	v := s.start
	for i := range out {
		out[i] = v
		v += s.step
	}
	return out, nil
}

// FullSeq returns a Func yielding every period-th integer from the minimum to
// the maximum observed value of column, both included. Absent values are
// ignored; a partition without values yields an empty sequence.
func FullSeq(column string, period int64) Func {
	return func(part *dataframe.DataFrame) (any, error) {
		if period <= 0 {
			return nil, dferrors.NewConfigurationError(opComplete, column,
				fmt.Sprintf("full sequence period must be positive, got %d", period))
		}
		lo, hi, ok, err := integerBounds(part, column)
		if err != nil || !ok {
			return Values{}, err
		}
		n := (uint64(hi) - uint64(lo)) / uint64(period)
		if n < math.MaxUint64 {
			n++
		}
		return sequence{start: lo, step: period, n: n}, nil
	}
}
