// Package errors provides standardized error types for DataFrame operations.
// This package defines DataFrameError for consistent error handling across
// all public APIs, with operation context, an error kind and wrapping support.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies a DataFrameError.
type Kind int

const (
	// KindInternal marks failures that are not caused by the caller's arguments.
	KindInternal Kind = iota
	// KindConfiguration marks invalid arguments: unknown columns, overlapping
	// groups, non-scalar fill values and the like.
	KindConfiguration
	// KindTypeMismatch marks values that cannot be represented in a column's type.
	KindTypeMismatch
)

// Sentinels for errors.Is checks against a Kind.
var (
	ErrConfiguration = stderrors.New("configuration error")
	ErrTypeMismatch  = stderrors.New("type mismatch")
	ErrInternal      = stderrors.New("internal error")
)

// DataFrameError represents standardized errors across all DataFrame operations
type DataFrameError struct {
	Op      string // Operation name (e.g., "Complete", "Sort", "Join")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Kind    Kind   // Error classification
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *DataFrameError) Error() string {
	var msg string
	if e.Column != "" {
		msg = fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	} else {
		msg = fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *DataFrameError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
// A DataFrameError matches the sentinel of its Kind, or another
// DataFrameError with the same operation, column and message.
func (e *DataFrameError) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrTypeMismatch:
		return e.Kind == KindTypeMismatch
	case ErrInternal:
		return e.Kind == KindInternal
	}
	if df, ok := target.(*DataFrameError); ok {
		return e.Op == df.Op && e.Column == df.Column && e.Message == df.Message
	}
	return false
}

// Common error constructors for consistent error creation

// NewConfigurationError creates an error for invalid operation arguments
func NewConfigurationError(op, column, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: message,
		Kind:    KindConfiguration,
	}
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *DataFrameError {
	return NewConfigurationError(op, column, "column does not exist")
}

// NewColumnNotFoundErrorWithSuggestions behaves like NewColumnNotFoundError and
// points at the closest available column name when one is near enough.
func NewColumnNotFoundErrorWithSuggestions(op, column string, available []string) *DataFrameError {
	err := NewColumnNotFoundError(op, column)
	if suggestions := findSimilarColumns(column, available); len(suggestions) > 0 {
		err.Message = fmt.Sprintf("column does not exist (did you mean '%s'?)", suggestions[0])
	}
	return err
}

// NewTypeMismatchError creates an error for values a column type cannot hold
func NewTypeMismatchError(op, column, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: message,
		Kind:    KindTypeMismatch,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, typeName string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
		Kind:    KindTypeMismatch,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: "internal error occurred",
		Kind:    KindInternal,
		Cause:   cause,
	}
}

// Wrap attaches a cause to a configuration error raised by op.
func Wrap(op, column string, cause error) *DataFrameError {
	var dfErr *DataFrameError
	if stderrors.As(cause, &dfErr) {
		return dfErr
	}
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: "invalid argument",
		Kind:    KindConfiguration,
		Cause:   cause,
	}
}

// maxSuggestionDistance bounds how far a suggestion may be from the input.
const maxSuggestionDistance = 2

// findSimilarColumns returns available names within a small edit distance of
// column, compared case-insensitively and ignoring underscores. Closest first.
func findSimilarColumns(column string, available []string) []string {
	target := normalizeColumnName(column)
	best := maxSuggestionDistance + 1
	var matches []string
	for _, candidate := range available {
		d := levenshtein(target, normalizeColumnName(candidate))
		switch {
		case d < best:
			best = d
			matches = []string{candidate}
		case d == best:
			matches = append(matches, candidate)
		}
	}
	if best > maxSuggestionDistance {
		return nil
	}
	return matches
}

func normalizeColumnName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "")
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
