package dataframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/series"
)

// rightSuffix is appended to right-hand column names that collide with
// left-hand ones.
const rightSuffix = "_right"

// OuterJoinIndices matches rows of df against rows of right on key equality
// and returns paired row indices, with -1 marking a missing side. Rows follow
// df's order, each followed by its matches in right order; right rows that
// matched nothing come last, in right order. Null keys match null keys.
func (df *DataFrame) OuterJoinIndices(right *DataFrame, leftKeys, rightKeys []string) ([]int, []int, error) {
	if len(leftKeys) != len(rightKeys) {
		return nil, nil, dferrors.NewConfigurationError("Join", "",
			fmt.Sprintf("number of left keys (%d) must match number of right keys (%d)",
				len(leftKeys), len(rightKeys)))
	}

	leftCols, err := df.arrays("Join", leftKeys)
	if err != nil {
		return nil, nil, err
	}
	rightCols, err := right.arrays("Join", rightKeys)
	if err != nil {
		return nil, nil, err
	}

	index := BuildKeyIndex(rightCols, right.Len())
	leftRows := make([]int, 0, df.Len())
	rightRows := make([]int, 0, df.Len())
	matched := make([]bool, right.Len())

	var buf []byte
	for i := 0; i < df.Len(); i++ {
		buf = RowKey(buf[:0], leftCols, i)
		rows, ok := index.Get(string(buf))
		if !ok {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, -1)
			continue
		}
		for _, r := range rows {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, r)
			matched[r] = true
		}
	}

	for r, ok := range matched {
		if !ok {
			leftRows = append(leftRows, -1)
			rightRows = append(rightRows, r)
		}
	}
	return leftRows, rightRows, nil
}

// JoinRows assembles the output of a join from paired row indices as
// returned by OuterJoinIndices. Key columns appear once, under the left
// names, holding the left value when the left row exists and the right
// value otherwise.
func (df *DataFrame) JoinRows(right *DataFrame, leftRows, rightRows []int, leftKeys, rightKeys []string) (*DataFrame, error) {
	if len(leftRows) != len(rightRows) {
		return nil, dferrors.NewInternalError("Join",
			fmt.Errorf("left indices length (%d) must match right indices length (%d)",
				len(leftRows), len(rightRows)))
	}

	mem := memory.NewGoAllocator()
	var cols []ISeries
	fail := func(err error) (*DataFrame, error) {
		releaseAll(cols)
		return nil, err
	}

	rightKeyOf := make(map[string]string, len(leftKeys))
	isRightKey := make(map[string]bool, len(rightKeys))
	for i, name := range leftKeys {
		rightKeyOf[name] = rightKeys[i]
		isRightKey[rightKeys[i]] = true
	}

	for _, name := range df.order {
		var (
			col ISeries
			err error
		)
		if rk, ok := rightKeyOf[name]; ok {
			col, err = coalesceColumn(name, df.columns[name], right.columns[rk], leftRows, rightRows, mem)
		} else {
			col, err = takeColumn(df.columns[name], leftRows, mem)
		}
		if err != nil {
			return fail(err)
		}
		cols = append(cols, col)
	}

	for _, name := range right.order {
		if isRightKey[name] {
			continue
		}
		col, err := takeColumn(right.columns[name], rightRows, mem)
		if err != nil {
			return fail(err)
		}
		if df.HasColumn(name) {
			renamed := rename(col, name+rightSuffix)
			col.Release()
			col = renamed
		}
		cols = append(cols, col)
	}

	return New(cols...), nil
}

func coalesceColumn(name string, left, right ISeries, leftRows, rightRows []int, mem memory.Allocator) (ISeries, error) {
	leftArr, rightArr := borrow(left), borrow(right)

	b, err := series.NewColumnBuilderLike(name, leftArr, mem)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	for i, l := range leftRows {
		switch {
		case l >= 0:
			err = b.AppendFrom(leftArr, l)
		case rightRows[i] >= 0:
			err = b.AppendFrom(rightArr, rightRows[i])
		default:
			b.AppendNull()
		}
		if err != nil {
			return nil, err
		}
	}

	arr := b.NewArray()
	defer arr.Release()
	return series.Wrap(name, arr), nil
}

func rename(s ISeries, name string) ISeries {
	arr := s.Array()
	defer arr.Release()
	return series.Wrap(name, arr)
}
