// Package validation provides input validation utilities for completion
// requests. Validators are small reusable checks (column existence, length
// consistency, disjoint column sets, scalar values) that can be composed
// and run eagerly before any work is done.
package validation

import (
	"fmt"

	"github.com/paveg/tidy/internal/common"
	"github.com/paveg/tidy/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the DataFrame
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundErrorWithSuggestions(v.op, column, v.df.Columns())
		}
	}
	return nil
}

// LengthValidator validates array length consistency
type LengthValidator struct {
	expected int
	actual   int
	op       string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		context:  context,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual)
		return errors.NewConfigurationError(v.op, "", message)
	}
	return nil
}

// DisjointValidator checks that named column lists share no column, and that
// no list repeats a column.
type DisjointValidator struct {
	op    string
	names []string
	sets  [][]string
}

// NewDisjointValidator creates a validator over labelled column lists.
// names[i] labels sets[i] in error messages.
func NewDisjointValidator(op string, names []string, sets ...[]string) *DisjointValidator {
	return &DisjointValidator{op: op, names: names, sets: sets}
}

// Validate reports the first column that appears twice.
func (v *DisjointValidator) Validate() error {
	owner := make(map[string]int)
	for i, set := range v.sets {
		for _, column := range set {
			prev, seen := owner[column]
			if !seen {
				owner[column] = i
				continue
			}
			if prev == i {
				return errors.NewConfigurationError(v.op, column,
					fmt.Sprintf("column listed more than once in %s", v.label(i)))
			}
			return errors.NewConfigurationError(v.op, column,
				fmt.Sprintf("column appears in both %s and %s", v.label(prev), v.label(i)))
		}
	}
	return nil
}

func (v *DisjointValidator) label(i int) string {
	if i < len(v.names) {
		return v.names[i]
	}
	return fmt.Sprintf("set %d", i)
}

// NotEmptyValidator checks that a list has at least one element.
type NotEmptyValidator struct {
	op     string
	column string
	size   int
	what   string
}

// NewNotEmptyValidator creates a validator for a list of size elements.
func NewNotEmptyValidator(op, column string, size int, what string) *NotEmptyValidator {
	return &NotEmptyValidator{op: op, column: column, size: size, what: what}
}

// Validate fails when the list is empty.
func (v *NotEmptyValidator) Validate() error {
	if v.size == 0 {
		return errors.NewConfigurationError(v.op, v.column, v.what+" must not be empty")
	}
	return nil
}

// ScalarValidator checks that a value can be stored in a single cell.
type ScalarValidator struct {
	op     string
	column string
	what   string
	value  any
}

// NewScalarValidator creates a validator for a cell value; what names the
// value in the error message.
func NewScalarValidator(op, column, what string, value any) *ScalarValidator {
	return &ScalarValidator{op: op, column: column, what: what, value: value}
}

// Validate fails for nil, slices, maps and other composite values.
func (v *ScalarValidator) Validate() error {
	if !common.IsScalar(v.value) {
		return errors.NewConfigurationError(v.op, v.column,
			fmt.Sprintf("%s must be a scalar, got %s", v.what, common.GetTypeName(v.value)))
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Add appends validators to run after the existing ones.
func (v *CompoundValidator) Add(validators ...Validator) {
	v.validators = append(v.validators, validators...)
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}

// ValidateDisjoint is a convenience function for disjointness validation
func ValidateDisjoint(op string, names []string, sets ...[]string) error {
	return NewDisjointValidator(op, names, sets...).Validate()
}

// ValidateScalar is a convenience function for scalar validation
func ValidateScalar(op, column, what string, value any) error {
	return NewScalarValidator(op, column, what, value).Validate()
}
