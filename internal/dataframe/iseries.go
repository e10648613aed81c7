package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow"
	dferrors "github.com/paveg/tidy/internal/errors"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
}

func columnNotFound(op, name string, available []string) error {
	return dferrors.NewColumnNotFoundErrorWithSuggestions(op, name, available)
}
