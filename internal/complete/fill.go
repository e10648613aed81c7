package complete

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tidy/internal/common"
	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/series"
	"github.com/paveg/tidy/internal/validation"
)

// fillTarget is one column to fill and the type it ends up with.
type fillTarget struct {
	column string
	value  any
	dtype  arrow.DataType
}

// planFill checks a fill value against the table and returns the columns to
// fill, in table order. A scalar targets every non-key column; a map
// targets the columns it names, none of which may be a key column.
func planFill(table *dataframe.DataFrame, keys []string, fill any) ([]fillTarget, error) {
	if fill == nil {
		return nil, nil
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	values, isMap, err := fillMap(fill)
	if err != nil {
		return nil, err
	}
	if !isMap {
		if err := validation.ValidateScalar(opComplete, "", "fill value", fill); err != nil {
			return nil, err
		}
		values = make(map[string]any)
		for _, name := range table.Columns() {
			if !isKey[name] {
				values[name] = fill
			}
		}
	} else {
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !table.HasColumn(name) {
				return nil, dferrors.NewColumnNotFoundErrorWithSuggestions(opComplete, name, table.Columns())
			}
			if isKey[name] {
				return nil, dferrors.NewConfigurationError(opComplete, name, "fill value targets a key column")
			}
			if err := validation.ValidateScalar(opComplete, name, "fill value for column "+name, values[name]); err != nil {
				return nil, err
			}
		}
	}

	var targets []fillTarget
	for _, name := range table.Columns() {
		v, ok := values[name]
		if !ok {
			continue
		}
		col, _ := table.Column(name)
		dtype, err := PromoteForFill(name, col.DataType(), v)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fillTarget{column: name, value: v, dtype: dtype})
	}
	return targets, nil
}

// fillMap converts a map keyed by strings to map[string]any.
func fillMap(fill any) (map[string]any, bool, error) {
	if m, ok := fill.(map[string]any); ok {
		return m, true, nil
	}
	rv := reflect.ValueOf(fill)
	if rv.Kind() != reflect.Map {
		return nil, false, nil
	}
	if rv.Type().Key().Kind() != reflect.String {
		return nil, true, dferrors.NewConfigurationError(opComplete, "",
			"fill value map must be keyed by column name, got "+rv.Type().String())
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true, nil
}

// PromoteForFill returns the type a column of type dtype has after value is
// filled into it:
//
//	column            fill value                            result
//	Int64, Int32      integer, or float with integral value  unchanged
//	Int64, Int32      float with a fractional part           Float64
//	Float64, Float32  any number                             unchanged
//	String            string                                 unchanged
//	Boolean           bool                                   unchanged
//	Timestamp         time.Time                              unchanged
//	Categorical       value of the dictionary value type     unchanged, domain extended
//
// Any other pairing is a type mismatch.
func PromoteForFill(column string, dtype arrow.DataType, value any) (arrow.DataType, error) {
	switch dtype.ID() {
	case arrow.INT64, arrow.INT32:
		if common.IsFloatType(value) && !common.IsIntegral(value) {
			return arrow.PrimitiveTypes.Float64, nil
		}
	}

	b, err := series.NewColumnBuilder(column, dtype, memory.NewGoAllocator())
	if err != nil {
		return nil, retag(column, err)
	}
	defer b.Release()
	if err := b.Append(value); err != nil {
		return nil, dferrors.NewTypeMismatchError(opComplete, column,
			fmt.Sprintf("fill value %v of type %s cannot be stored in a %s column",
				value, common.GetTypeName(value), series.ValueType(dtype)))
	}
	return dtype, nil
}

// applyFill returns a copy of a.frame with the targets filled. With explicit
// set every absent cell of a target column is filled; otherwise only cells
// of introduced rows are.
func applyFill(a *alignment, targets []fillTarget, explicit bool) (*dataframe.DataFrame, error) {
	out := a.frame.Clone()
	for _, t := range targets {
		col, err := fillColumn(a, t, explicit)
		if err != nil {
			out.Release()
			return nil, err
		}
		next := out.WithColumn(col)
		out.Release()
		out = next
	}
	return out, nil
}

func fillColumn(a *alignment, t fillTarget, explicit bool) (dataframe.ISeries, error) {
	arr := columnArray(a.frame, t.column)
	mem := memory.NewGoAllocator()

	var (
		b   *series.ColumnBuilder
		err error
	)
	if arrow.TypeEqual(arr.DataType(), t.dtype) {
		b, err = series.NewColumnBuilderLike(t.column, arr, mem)
	} else {
		b, err = series.NewColumnBuilder(t.column, t.dtype, mem)
	}
	if err != nil {
		return nil, retag(t.column, err)
	}
	defer b.Release()

	for i := 0; i < arr.Len(); i++ {
		if series.IsAbsent(arr, i) && (explicit || a.introduced[i]) {
			err = b.Append(t.value)
		} else {
			err = b.AppendFrom(arr, i)
		}
		if err != nil {
			return nil, retag(t.column, err)
		}
	}

	filled := b.NewArray()
	defer filled.Release()
	return series.Wrap(t.column, filled), nil
}
