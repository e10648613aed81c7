package dataframe

// Distinct returns the unique combinations of the given columns, in order of
// first appearance. Nulls take part as values.
func (df *DataFrame) Distinct(columns ...string) (*DataFrame, error) {
	idx, err := df.keyIndex("Distinct", columns)
	if err != nil {
		return nil, err
	}
	keys := df.Select(columns...)
	defer keys.Release()
	return keys.Take(idx.FirstRows())
}

// Group is one partition produced by GroupRows.
type Group struct {
	// First is the first row of the group, which carries its key values.
	First int
	// Rows lists the group's rows in table order.
	Rows []int
}

// GroupRows partitions the rows by the values of columns. Groups come in
// order of first appearance.
func (df *DataFrame) GroupRows(columns ...string) ([]Group, error) {
	idx, err := df.keyIndex("GroupRows", columns)
	if err != nil {
		return nil, err
	}

	cols, _ := df.Arrays(columns...)
	groups := make([]Group, 0, idx.Len())
	var buf []byte
	for _, first := range idx.FirstRows() {
		buf = RowKey(buf[:0], cols, first)
		rows, _ := idx.Get(string(buf))
		groups = append(groups, Group{First: first, Rows: rows})
	}
	return groups, nil
}

func (df *DataFrame) keyIndex(op string, columns []string) (*KeyIndex, error) {
	cols, err := df.arrays(op, columns)
	if err != nil {
		return nil, err
	}
	return BuildKeyIndex(cols, df.Len()), nil
}
