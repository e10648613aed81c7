package complete

import (
	"github.com/paveg/tidy/internal/dataframe"
)

// alignment is the outer alignment of a table with its combination space.
type alignment struct {
	// frame has the table's columns in the table's order.
	frame *dataframe.DataFrame
	// introduced marks rows whose key tuple matched no table row.
	introduced []bool
}

func (a *alignment) release() {
	a.frame.Release()
}

// countIntroduced returns how many rows completion added.
func (a *alignment) countIntroduced() int {
	n := 0
	for _, in := range a.introduced {
		if in {
			n++
		}
	}
	return n
}

// align full-outer joins space to table on keys. Rows follow the
// combination space, each tuple followed by every table row carrying it;
// table rows whose tuple is not in the space come last, in table order.
// Key columns take the tuple's value, other columns the table row's value
// or null for introduced rows.
func align(table, space *dataframe.DataFrame, keys []string) (*alignment, error) {
	spaceRows, tableRows, err := space.OuterJoinIndices(table, keys, keys)
	if err != nil {
		return nil, err
	}

	joined, err := space.JoinRows(table, spaceRows, tableRows, keys, keys)
	if err != nil {
		return nil, err
	}
	defer joined.Release()

	introduced := make([]bool, len(tableRows))
	for i, r := range tableRows {
		introduced[i] = r < 0
	}

	return &alignment{
		frame:      joined.Select(table.Columns()...),
		introduced: introduced,
	}, nil
}
