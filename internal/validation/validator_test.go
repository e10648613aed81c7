package validation_test

import (
	"testing"

	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockColumnProvider implements ColumnProvider for testing.
type MockColumnProvider struct {
	columns []string
	length  int
}

func (m *MockColumnProvider) HasColumn(name string) bool {
	for _, col := range m.columns {
		if col == name {
			return true
		}
	}
	return false
}

func (m *MockColumnProvider) Columns() []string {
	return m.columns
}

func (m *MockColumnProvider) Len() int {
	return m.length
}

func (m *MockColumnProvider) Width() int {
	return len(m.columns)
}

func TestColumnValidator(t *testing.T) {
	mockDF := &MockColumnProvider{columns: []string{"id", "item_name"}, length: 3}

	t.Run("Valid columns", func(t *testing.T) {
		err := validation.NewColumnValidator(mockDF, "Complete", "id", "item_name").Validate()
		require.NoError(t, err)
	})

	t.Run("Invalid column", func(t *testing.T) {
		err := validation.NewColumnValidator(mockDF, "Complete", "age").Validate()
		require.Error(t, err)

		var dfErr *dferrors.DataFrameError
		require.ErrorAs(t, err, &dfErr)
		assert.Equal(t, "Complete", dfErr.Op)
		assert.Equal(t, "age", dfErr.Column)
		assert.Equal(t, "column does not exist", dfErr.Message)
		assert.ErrorIs(t, err, dferrors.ErrConfiguration)
	})

	t.Run("Close name gets a suggestion", func(t *testing.T) {
		err := validation.ValidateColumns(mockDF, "Complete", "itemname")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did you mean 'item_name'")
	})

	t.Run("First missing column is reported", func(t *testing.T) {
		err := validation.NewColumnValidator(mockDF, "Complete", "id", "missing", "nope").Validate()
		var dfErr *dferrors.DataFrameError
		require.ErrorAs(t, err, &dfErr)
		assert.Equal(t, "missing", dfErr.Column)
	})
}

func TestLengthValidator(t *testing.T) {
	require.NoError(t, validation.ValidateLength(3, 3, "SortBy", "columns and ascending arrays"))

	err := validation.ValidateLength(3, 2, "SortBy", "columns and ascending arrays")
	var dfErr *dferrors.DataFrameError
	require.ErrorAs(t, err, &dfErr)
	assert.Equal(t, "SortBy", dfErr.Op)
	assert.Contains(t, dfErr.Message, "expected length 3, got 2")
}

func TestDisjointValidator(t *testing.T) {
	names := []string{"groups", "by"}

	tests := []struct {
		name    string
		sets    [][]string
		column  string
		message string
	}{
		{
			name: "disjoint",
			sets: [][]string{{"a", "b"}, {"c"}},
		},
		{
			name:    "overlap across sets",
			sets:    [][]string{{"a", "b"}, {"b"}},
			column:  "b",
			message: "column appears in both groups and by",
		},
		{
			name:    "repeat within a set",
			sets:    [][]string{{"a", "a"}, {}},
			column:  "a",
			message: "column listed more than once in groups",
		},
		{
			name:    "unlabelled set",
			sets:    [][]string{{"a"}, {"b"}, {"a"}},
			column:  "a",
			message: "column appears in both groups and set 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateDisjoint("Complete", names, tt.sets...)
			if tt.message == "" {
				require.NoError(t, err)
				return
			}
			var dfErr *dferrors.DataFrameError
			require.ErrorAs(t, err, &dfErr)
			assert.Equal(t, tt.column, dfErr.Column)
			assert.Equal(t, tt.message, dfErr.Message)
		})
	}
}

func TestNotEmptyValidator(t *testing.T) {
	require.NoError(t, validation.NewNotEmptyValidator("Complete", "", 2, "nested columns").Validate())

	err := validation.NewNotEmptyValidator("Complete", "", 0, "nested columns").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested columns must not be empty")
}

func TestScalarValidator(t *testing.T) {
	for _, v := range []any{0, 1.5, "x", true, int32(3)} {
		require.NoError(t, validation.ValidateScalar("Complete", "value", "fill value", v))
	}

	for _, v := range []any{nil, []int{1}, map[string]any{}, struct{}{}} {
		err := validation.ValidateScalar("Complete", "value", "fill value", v)
		require.Error(t, err)
		assert.ErrorIs(t, err, dferrors.ErrConfiguration)
		assert.Contains(t, err.Error(), "fill value must be a scalar")
	}
}

func TestCompoundValidator(t *testing.T) {
	mockDF := &MockColumnProvider{columns: []string{"id"}}

	v := validation.NewCompoundValidator(validation.NewColumnValidator(mockDF, "Complete", "id"))
	require.NoError(t, v.Validate())

	v.Add(
		validation.NewLengthValidator(1, 2, "Complete", "first"),
		validation.NewColumnValidator(mockDF, "Complete", "missing"),
	)
	err := v.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
}
