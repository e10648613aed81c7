package complete

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tidy/internal/common"
	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/series"
)

// KeySet is a table of unique key tuples over Columns.
type KeySet struct {
	Columns []string
	Frame   *dataframe.DataFrame
}

// Len returns the number of tuples.
func (k KeySet) Len() int {
	return k.Frame.Len()
}

// Release releases the tuple frame.
func (k KeySet) Release() {
	k.Frame.Release()
}

// keySource produces one KeySet. Static sources are resolved once against
// the whole table; the others are derived from each partition.
type keySource struct {
	columns []string
	static  *dataframe.DataFrame
	derive  func(part *dataframe.DataFrame) (*dataframe.DataFrame, error)
}

// resolve returns the KeySet of this source for a partition. The caller
// owns the result.
func (s *keySource) resolve(part *dataframe.DataFrame) (KeySet, error) {
	if s.static != nil {
		return KeySet{Columns: s.columns, Frame: s.static.Clone()}, nil
	}
	frame, err := s.derive(part)
	if err != nil {
		return KeySet{}, err
	}
	return KeySet{Columns: s.columns, Frame: frame}, nil
}

func (s *keySource) release() {
	if s.static != nil {
		s.static.Release()
	}
}

// resolveSources turns validated group specs into key sources, in group
// order. A Mapping contributes one source per entry. With a positive limit,
// static key sets whose product already exceeds it are rejected before the
// remaining ones are built.
func resolveSources(table *dataframe.DataFrame, groups []GroupSpec, limit int) ([]*keySource, error) {
	var sources []*keySource
	fail := func(err error) ([]*keySource, error) {
		releaseSources(sources)
		return nil, err
	}
	bound := staticBound{limit: limit, active: limit > 0 && table.Len() > 0 && !hasFunc(groups), product: 1}

	for _, g := range groups {
		switch spec := g.(type) {
		case Column:
			sources = append(sources, observed(string(spec)))
		case Nested:
			sources = append(sources, observed(spec...))
		case Mapping:
			for _, entry := range spec {
				src, err := mappedSource(table, entry, &bound)
				if err != nil {
					return fail(err)
				}
				sources = append(sources, src)
			}
		case Prebuilt:
			frame, err := conformFrame(table, spec.Frame)
			if err != nil {
				return fail(err)
			}
			sources = append(sources, &keySource{columns: spec.Frame.Columns(), static: frame})
			if err := bound.add(uint64(frame.Len())); err != nil {
				return fail(err)
			}
		default:
			return fail(dferrors.NewConfigurationError(opComplete, "",
				fmt.Sprintf("unsupported group spec %T", g)))
		}
	}
	return sources, nil
}

// staticBound tracks the product of the static key set sizes. Every other
// key set of a non-empty table holds at least one tuple unless a Func
// supplies it, so while active the product is a lower bound of the
// combination space.
type staticBound struct {
	limit   int
	active  bool
	product uint64
}

func (b *staticBound) add(n uint64) error {
	if !b.active {
		return nil
	}
	if n != 0 && b.product > math.MaxUint64/n {
		b.product = math.MaxUint64
	} else {
		b.product *= n
	}
	if b.product > uint64(b.limit) {
		return dferrors.NewConfigurationError(opComplete, "",
			fmt.Sprintf("combination space of at least %d rows exceeds the limit of %d", b.product, b.limit))
	}
	return nil
}

func hasFunc(groups []GroupSpec) bool {
	for _, g := range groups {
		if m, ok := g.(Mapping); ok {
			for _, entry := range m {
				if _, ok := entry.Source.(Func); ok {
					return true
				}
			}
		}
	}
	return false
}

func releaseSources(sources []*keySource) {
	for _, s := range sources {
		s.release()
	}
}

// observed derives the distinct co-occurring values of columns.
func observed(columns ...string) *keySource {
	cols := append([]string(nil), columns...)
	return &keySource{
		columns: cols,
		derive: func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			for _, c := range cols {
				if !part.HasColumn(c) {
					return nil, dferrors.NewColumnNotFoundErrorWithSuggestions(opComplete, c, part.Columns())
				}
			}
			return part.Distinct(cols...)
		},
	}
}

func mappedSource(table *dataframe.DataFrame, entry MapEntry, bound *staticBound) (*keySource, error) {
	template := columnArray(table, entry.Column)
	switch src := entry.Source.(type) {
	case Values:
		frame, err := buildValues(entry.Column, template, src)
		if err != nil {
			return nil, err
		}
		if err := bound.add(uint64(frame.Len())); err != nil {
			frame.Release()
			return nil, err
		}
		return &keySource{columns: []string{entry.Column}, static: frame}, nil
	case Range:
		seq := src.sequence()
		if err := bound.add(seq.n); err != nil {
			return nil, err
		}
		vals, err := seq.values(entry.Column)
		if err != nil {
			return nil, err
		}
		frame, err := buildValues(entry.Column, template, vals)
		if err != nil {
			return nil, err
		}
		return &keySource{columns: []string{entry.Column}, static: frame}, nil
	case Func:
		if src == nil {
			break
		}
		return &keySource{
			columns: []string{entry.Column},
			derive: func(part *dataframe.DataFrame) (*dataframe.DataFrame, error) {
				out, err := src(part)
				if err != nil {
					return nil, dferrors.Wrap(opComplete, entry.Column, err)
				}
				vals, err := toValues(entry.Column, out)
				if err != nil {
					return nil, err
				}
				return buildValues(entry.Column, template, vals)
			},
		}, nil
	}
	return nil, dferrors.NewConfigurationError(opComplete, entry.Column, "mapping entry has no value source")
}

// toValues flattens what a Func returned.
func toValues(column string, out any) (Values, error) {
	switch v := out.(type) {
	case Values:
		return v, nil
	case Range:
		return v.sequence().values(column)
	case sequence:
		return v.values(column)
	case dataframe.ISeries:
		arr := v.Array()
		defer arr.Release()
		return arrayValues(arr), nil
	case *dataframe.DataFrame:
		if v.Width() == 1 {
			arrs, _ := v.Arrays(v.Columns()[0])
			return arrayValues(arrs[0]), nil
		}
	case nil:
		return nil, notFlat(column, "got nil")
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, notFlat(column, "got "+common.GetTypeName(out))
	}
	vals := make(Values, rv.Len())
	for i := range vals {
		elem := rv.Index(i).Interface()
		if elem != nil && !common.IsScalar(elem) {
			return nil, notFlat(column, "got element of type "+common.GetTypeName(elem))
		}
		vals[i] = elem
	}
	return vals, nil
}

func notFlat(column, detail string) error {
	return dferrors.NewConfigurationError(opComplete, column,
		"value source must be a flat sequence of scalars, "+detail)
}

func arrayValues(arr arrow.Array) Values {
	vals := make(Values, arr.Len())
	for i := range vals {
		vals[i] = series.ValueAt(arr, i)
	}
	return vals
}

// buildValues stores vals in a column shaped like template and drops
// repeated values, keeping first appearances.
func buildValues(name string, template arrow.Array, vals Values) (*dataframe.DataFrame, error) {
	b, err := series.NewColumnBuilderLike(name, template, memory.NewGoAllocator())
	if err != nil {
		return nil, err
	}
	defer b.Release()

	for _, v := range vals {
		if v != nil && !common.IsScalar(v) {
			return nil, notFlat(name, "got element of type "+common.GetTypeName(v))
		}
		if err := b.Append(v); err != nil {
			return nil, retag(name, err)
		}
	}

	arr := b.NewArray()
	defer arr.Release()
	frame := dataframe.New(series.Wrap(name, arr))
	defer frame.Release()
	return frame.Distinct(name)
}

// conformFrame converts a prebuilt frame to the table's column types and
// deduplicates its rows.
func conformFrame(table, frame *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	names := frame.Columns()
	cols := make([]dataframe.ISeries, 0, len(names))
	for _, name := range names {
		col, err := conformColumn(name, columnArray(table, name), columnArray(frame, name))
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
		cols = append(cols, col)
	}

	conformed := dataframe.New(cols...)
	defer conformed.Release()
	return conformed.Distinct(names...)
}

func conformColumn(name string, template, src arrow.Array) (dataframe.ISeries, error) {
	b, err := series.NewColumnBuilderLike(name, template, memory.NewGoAllocator())
	if err != nil {
		return nil, err
	}
	defer b.Release()

	for i := 0; i < src.Len(); i++ {
		if err := b.AppendFrom(src, i); err != nil {
			return nil, retag(name, err)
		}
	}
	arr := b.NewArray()
	defer arr.Release()
	return series.Wrap(name, arr), nil
}

// integerBounds returns the smallest and largest present value of an
// integral column. ok is false when the column holds no values.
func integerBounds(part *dataframe.DataFrame, column string) (lo, hi int64, ok bool, err error) {
	if !part.HasColumn(column) {
		return 0, 0, false, dferrors.NewColumnNotFoundErrorWithSuggestions(opComplete, column, part.Columns())
	}
	arr := columnArray(part, column)
	for i := 0; i < arr.Len(); i++ {
		if series.IsAbsent(arr, i) {
			continue
		}
		v := series.ValueAt(arr, i)
		n, convErr := common.ToInt64(v)
		if convErr != nil {
			return 0, 0, false, dferrors.NewTypeMismatchError(opComplete, column,
				fmt.Sprintf("full sequence needs integer values, got %v", v))
		}
		if !ok || n < lo {
			lo = n
		}
		if !ok || n > hi {
			hi = n
		}
		ok = true
	}
	return lo, hi, ok, nil
}

// columnArray borrows the array of a column known to exist.
func columnArray(df *dataframe.DataFrame, name string) arrow.Array {
	arrs, _ := df.Arrays(name)
	return arrs[0]
}

// retag reports a failed append as a type mismatch of this operation.
func retag(column string, err error) error {
	msg := err.Error()
	var dfErr *dferrors.DataFrameError
	if errors.As(err, &dfErr) {
		if dfErr.Kind != dferrors.KindTypeMismatch {
			return err
		}
		msg = dfErr.Message
	}
	return dferrors.NewTypeMismatchError(opComplete, column, msg)
}
