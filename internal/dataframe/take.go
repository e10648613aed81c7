package dataframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/series"
)

// Take returns a new DataFrame holding the given rows, in order. A negative
// index produces a null row. Categorical columns keep their categories.
func (df *DataFrame) Take(indices []int) (*DataFrame, error) {
	mem := memory.NewGoAllocator()

	cols := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		col, err := takeColumn(df.columns[name], indices, mem)
		if err != nil {
			releaseAll(cols)
			return nil, err
		}
		cols = append(cols, col)
	}
	return New(cols...), nil
}

// TakeArray gathers rows of arr; negative indices produce nulls.
func TakeArray(name string, arr arrow.Array, indices []int, mem memory.Allocator) (arrow.Array, error) {
	b, err := series.NewColumnBuilderLike(name, arr, mem)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	for _, i := range indices {
		if i < 0 {
			b.AppendNull()
			continue
		}
		if i >= arr.Len() {
			return nil, dferrors.NewConfigurationError("Take", name, "row index out of range")
		}
		if err := b.AppendFrom(arr, i); err != nil {
			return nil, err
		}
	}
	return b.NewArray(), nil
}

func takeColumn(s ISeries, indices []int, mem memory.Allocator) (ISeries, error) {
	arr, err := TakeArray(s.Name(), borrow(s), indices, mem)
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	return series.Wrap(s.Name(), arr), nil
}

// Concat stacks this frame and others row-wise. Every frame must have the
// same column names; columns are matched by name and laid out in this
// frame's order. Column types must agree, except that categorical columns
// merge their categories.
func (df *DataFrame) Concat(others ...*DataFrame) (*DataFrame, error) {
	for _, other := range others {
		if err := df.checkSameSchema(other); err != nil {
			return nil, err
		}
	}

	mem := memory.NewGoAllocator()
	cols := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		col, err := concatColumn(name, df, others, mem)
		if err != nil {
			releaseAll(cols)
			return nil, err
		}
		cols = append(cols, col)
	}
	return New(cols...), nil
}

func concatColumn(name string, first *DataFrame, others []*DataFrame, mem memory.Allocator) (ISeries, error) {
	b, err := series.NewColumnBuilderLike(name, borrow(first.columns[name]), mem)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	for _, frame := range append([]*DataFrame{first}, others...) {
		arr := borrow(frame.columns[name])
		for i := 0; i < arr.Len(); i++ {
			if err := b.AppendFrom(arr, i); err != nil {
				return nil, err
			}
		}
	}

	arr := b.NewArray()
	defer arr.Release()
	return series.Wrap(name, arr), nil
}

// checkSameSchema checks that other has this frame's columns with compatible types.
func (df *DataFrame) checkSameSchema(other *DataFrame) error {
	if len(df.order) != len(other.order) {
		return dferrors.NewConfigurationError("Concat", "", "frames have different column counts")
	}

	for _, name := range df.order {
		otherSeries, ok := other.columns[name]
		if !ok {
			return dferrors.NewColumnNotFoundError("Concat", name)
		}
		left := df.columns[name].DataType()
		right := otherSeries.DataType()
		if arrow.TypeEqual(left, right) {
			continue
		}
		if arrow.TypeEqual(series.ValueType(left), series.ValueType(right)) && left.ID() == arrow.DICTIONARY {
			continue
		}
		return dferrors.NewTypeMismatchError("Concat", name,
			"cannot stack "+right.String()+" onto "+left.String())
	}
	return nil
}

func releaseAll(cols []ISeries) {
	for _, c := range cols {
		c.Release()
	}
}

// ConcatColumns places the columns of frames side by side. Every frame must
// have the same number of rows and column names must not repeat.
func ConcatColumns(frames ...*DataFrame) (*DataFrame, error) {
	var cols []ISeries
	seen := make(map[string]bool)
	for _, f := range frames {
		if len(cols) > 0 && f.Width() > 0 && f.Len() != cols[0].Len() {
			releaseAll(cols)
			return nil, dferrors.NewConfigurationError("ConcatColumns", "",
				fmt.Sprintf("frames have different lengths (%d and %d)", cols[0].Len(), f.Len()))
		}
		for _, name := range f.order {
			if seen[name] {
				releaseAll(cols)
				return nil, dferrors.NewConfigurationError("ConcatColumns", name, "column appears in more than one frame")
			}
			seen[name] = true
			cols = append(cols, share(f.columns[name]))
		}
	}
	return New(cols...), nil
}
