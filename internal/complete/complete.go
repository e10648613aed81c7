// Package complete makes implicitly missing rows of a table explicit.
//
// Complete takes a table and a list of column groups. Each group yields a
// set of key tuples: the observed values of a column, the observed
// combinations of several columns, explicit values, or a prebuilt frame of
// combinations. The cartesian product of the groups, optionally computed
// separately for every by-group, is outer-joined with the table so that
// every combination appears at least once. Rows added this way have null
// non-key cells, which can then be filled.
//
// The size of the combination space is the product of the group sizes,
// summed over by-groups, and can be far larger than the input table. It
// dominates both time and memory; Config.MaxCombinations bounds it.
package complete

import (
	"context"
	"fmt"

	"github.com/paveg/tidy/internal/config"
	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/logging"
	"github.com/paveg/tidy/internal/monitoring"
	"github.com/paveg/tidy/internal/validation"
)

const opComplete = "Complete"

// Options controls Complete.
type Options struct {
	// By partitions the table; each partition gets its own combination
	// space, built from that partition's rows.
	By []string
	// Sort orders the result by the by columns, then the group columns in
	// group order.
	Sort bool
	// FillValue is nil, a scalar filled into every non-key column, or a map
	// from non-key column name to scalar.
	FillValue any
	// Explicit fills every absent cell of the fill columns. When false only
	// the cells of rows added by completion are filled.
	Explicit bool
}

// DefaultOptions returns options with Explicit set.
func DefaultOptions() Options {
	return Options{Explicit: true}
}

// Complete returns df with a row for every key combination the groups
// describe. Rows of df are kept, including those whose key tuple is not in
// the combination space. Columns keep df's order and types, except where
// PromoteForFill widens a filled column. Without groups the result equals
// df.
//
// Without Sort, rows follow the combination space, each combination
// followed by the rows of df that carry it; rows of df outside the space
// come last.
func Complete(df *dataframe.DataFrame, groups []GroupSpec, opts Options) (*dataframe.DataFrame, error) {
	if df == nil {
		return nil, dferrors.NewConfigurationError(opComplete, "", "table is nil")
	}
	log := logging.WithOp(opComplete)
	cfg := config.GetGlobalConfig()

	keys, err := validate(df, groups, opts.By)
	if err != nil {
		return nil, err
	}
	targets, err := planFill(df, keys, opts.FillValue)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		log.Debug("no groups to complete")
		return df.Clone(), nil
	}

	var sources []*keySource
	err = monitoring.RecordGlobalStage("resolve", func() (int, error) {
		var err error
		sources, err = resolveSources(df, groups, cfg.MaxCombinations)
		return len(sources), err
	})
	if err != nil {
		return nil, err
	}
	defer releaseSources(sources)
	log.Debug("resolved groups", "groups", len(groups), "key_sets", len(sources), "by", opts.By)

	b := &builder{table: df, sources: sources, by: opts.By, keys: keys, cfg: cfg}
	var space *dataframe.DataFrame
	err = monitoring.RecordGlobalStage("build", func() (int, error) {
		var err error
		if space, err = b.build(context.Background()); err != nil {
			return 0, err
		}
		return space.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	defer space.Release()

	var aligned *alignment
	err = monitoring.RecordGlobalStage("align", func() (int, error) {
		var err error
		if aligned, err = align(df, space, keys); err != nil {
			return 0, err
		}
		return aligned.frame.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	defer aligned.release()
	log.Debug("aligned", "rows", aligned.frame.Len(), "introduced", aligned.countIntroduced())

	var filled *dataframe.DataFrame
	err = monitoring.RecordGlobalStage("fill", func() (int, error) {
		var err error
		if filled, err = applyFill(aligned, targets, opts.Explicit); err != nil {
			return 0, err
		}
		return filled.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	defer filled.Release()
	if len(targets) > 0 {
		log.Debug("filled", "columns", len(targets), "explicit", opts.Explicit)
	}

	var out *dataframe.DataFrame
	err = monitoring.RecordGlobalStage("order", func() (int, error) {
		var err error
		if out, err = order(filled, keys, opts.Sort); err != nil {
			return 0, err
		}
		return out.Len(), nil
	})
	return out, err
}

// validate checks the groups and by columns against df and returns the key
// columns: by columns first, then group columns in group order.
func validate(df *dataframe.DataFrame, groups []GroupSpec, by []string) ([]string, error) {
	if err := validation.ValidateColumns(df, opComplete, by...); err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(groups)+1)
	sets := make([][]string, 0, len(groups)+1)
	labels, sets = append(labels, "by"), append(sets, by)

	for i, g := range groups {
		if err := checkGroup(df, i, g); err != nil {
			return nil, err
		}
		labels = append(labels, fmt.Sprintf("group %d (%s)", i+1, g.describe()))
		sets = append(sets, g.groupColumns())
	}

	if err := validation.ValidateDisjoint(opComplete, labels, sets...); err != nil {
		return nil, err
	}

	keys := append([]string(nil), by...)
	for _, g := range groups {
		keys = append(keys, g.groupColumns()...)
	}
	return keys, nil
}

func checkGroup(df *dataframe.DataFrame, i int, g GroupSpec) error {
	what := fmt.Sprintf("group %d", i+1)
	if g == nil {
		return dferrors.NewConfigurationError(opComplete, "", what+" is nil")
	}

	v := validation.NewCompoundValidator()
	switch spec := g.(type) {
	case Column:
		v.Add(validation.NewNotEmptyValidator(opComplete, "", len(spec), what+" column name"))
	case Nested:
		v.Add(validation.NewNotEmptyValidator(opComplete, "", len(spec), what+" nested columns"))
	case Mapping:
		v.Add(validation.NewNotEmptyValidator(opComplete, "", len(spec), what+" mapping"))
		for _, e := range spec {
			if e.Source == nil {
				return dferrors.NewConfigurationError(opComplete, e.Column, "mapping entry has no value source")
			}
		}
	case Prebuilt:
		if spec.Frame == nil {
			return dferrors.NewConfigurationError(opComplete, "", what+" has no prebuilt frame")
		}
		v.Add(validation.NewNotEmptyValidator(opComplete, "", spec.Frame.Width(), what+" prebuilt columns"))
	}
	v.Add(validation.NewColumnValidator(df, opComplete, g.groupColumns()...))
	return v.Validate()
}
