package series

import (
	"errors"
	"math"
	"slices"

	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/tidy/internal/errors"
)

// CategoryValue lists the element types a categorical series may hold.
type CategoryValue interface {
	string | int64 | float64
}

// NewCategorical creates a dictionary encoded series. When categories is nil
// the domain is the sorted set of present values; otherwise the domain is
// exactly categories, in order, and every present value must belong to it.
func NewCategorical[T CategoryValue](name string, values []T, valid []bool, categories []T, mem memory.Allocator) (*Series[T], error) {
	valueType, err := DataTypeOf[T]()
	if err != nil {
		return nil, err
	}
	if valid != nil && len(valid) != len(values) {
		return nil, dferrors.NewConfigurationError("NewCategorical", name, "validity length does not match values")
	}

	if categories == nil {
		categories = observedCategories(values, valid)
	}
	domain := make([]any, len(categories))
	for i, c := range categories {
		domain[i] = any(c)
	}

	b, err := NewCategoricalBuilder(name, valueType, domain, mem)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	known := len(b.cats)

	for i, v := range values {
		if valid != nil && !valid[i] {
			b.AppendNull()
			continue
		}
		if err := b.Append(any(v)); err != nil {
			return nil, err
		}
		if len(b.cats) != known {
			return nil, b.mismatch(any(v), errNotACategory)
		}
	}

	return &Series[T]{name: name, array: b.NewArray()}, nil
}

var errNotACategory = errors.New("value is not one of the declared categories")

func observedCategories[T CategoryValue](values []T, valid []bool) []T {
	seen := make(map[T]struct{}, len(values))
	var out []T
	for i, v := range values {
		if valid != nil && !valid[i] {
			continue
		}
		if f, ok := any(v).(float64); ok && math.IsNaN(f) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
