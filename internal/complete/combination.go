package complete

import (
	"context"
	"fmt"
	"math"

	"github.com/paveg/tidy/internal/config"
	"github.com/paveg/tidy/internal/dataframe"
	dferrors "github.com/paveg/tidy/internal/errors"
	"github.com/paveg/tidy/internal/logging"
	"github.com/paveg/tidy/internal/parallel"
)

// partitionSets holds the key sets resolved for one by-group.
type partitionSets struct {
	first int // row carrying the group's by values
	sets  []KeySet
}

func (p partitionSets) release() {
	for _, s := range p.sets {
		s.Release()
	}
}

// builder assembles the combination space of one Complete call.
type builder struct {
	table   *dataframe.DataFrame
	sources []*keySource
	by      []string
	keys    []string // by columns, then group columns
	cfg     config.Config
}

// build returns a frame of the key columns holding every target key tuple.
// Without by columns it is the cartesian product of the key sets, last set
// varying fastest. With by columns each group's product is prefixed with the
// group's by values, and groups are stacked in order of first appearance.
func (b *builder) build(ctx context.Context) (*dataframe.DataFrame, error) {
	log := logging.WithColumns(opComplete, b.keys)

	if len(b.by) == 0 {
		sets, err := resolveAll(b.sources, b.table)
		if err != nil {
			return nil, err
		}
		defer partitionSets{sets: sets}.release()

		size, err := productSize(sets)
		if err != nil {
			return nil, err
		}
		if err := b.checkLimit(size); err != nil {
			return nil, err
		}
		log.Debug("combination space", "rows", size, "key_sets", len(sets))
		return cartesian(sets)
	}

	groups, err := b.table.GroupRows(b.by...)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		empty := b.table.Select(b.keys...)
		defer empty.Release()
		return empty.Take(nil)
	}

	parts, err := b.resolveGroups(ctx, groups)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, p := range parts {
			p.release()
		}
	}()

	total := 0
	for _, p := range parts {
		size, err := productSize(p.sets)
		if err != nil {
			return nil, err
		}
		if size > math.MaxInt-total {
			return nil, overflow()
		}
		total += size
	}
	if err := b.checkLimit(total); err != nil {
		return nil, err
	}
	log.Debug("combination space", "rows", total, "groups", len(parts))

	byFrame := b.table.Select(b.by...)
	defer byFrame.Release()

	frames, err := runGroups(ctx, b.cfg, parts,
		func(_ context.Context, _ int, p partitionSets) (*dataframe.DataFrame, error) {
			return prefixed(byFrame, p)
		},
		(*dataframe.DataFrame).Release)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, f := range frames {
			f.Release()
		}
	}()
	return frames[0].Concat(frames[1:]...)
}

// resolveGroups resolves the key sets of every by-group.
func (b *builder) resolveGroups(ctx context.Context, groups []dataframe.Group) ([]partitionSets, error) {
	log := logging.WithOp(opComplete)
	parts, err := runGroups(ctx, b.cfg, groups,
		func(_ context.Context, _ int, g dataframe.Group) (partitionSets, error) {
			part, err := b.table.Take(g.Rows)
			if err != nil {
				return partitionSets{}, err
			}
			defer part.Release()

			sets, err := resolveAll(b.sources, part)
			if err != nil {
				return partitionSets{}, err
			}
			return partitionSets{first: g.First, sets: sets}, nil
		},
		partitionSets.release)
	if err != nil {
		return nil, err
	}
	for i, p := range parts {
		log.Debug("group key sets", "group", i, "rows", len(groups[i].Rows), "sizes", setSizes(p.sets))
	}
	return parts, nil
}

// runGroups applies fn to every item, on the worker pool when there are at
// least ParallelGroupThreshold items. Results keep item order either way.
// On error, the results already produced are released.
func runGroups[T, R any](
	ctx context.Context, cfg config.Config, items []T,
	fn func(context.Context, int, T) (R, error), release func(R),
) ([]R, error) {
	results := make([]R, len(items))
	done := make([]bool, len(items))
	cleanup := func() {
		for i, ok := range done {
			if ok {
				release(results[i])
			}
		}
	}

	if cfg.ParallelGroupThreshold > 0 && len(items) >= cfg.ParallelGroupThreshold {
		pool := parallel.NewWorkerPool(cfg.Workers())
		defer pool.Close()
		logging.Debug("building groups on the worker pool", "groups", len(items), "workers", pool.NumWorkers())

		_, err := parallel.TryProcessIndexed(ctx, pool, items,
			func(ctx context.Context, i int, item T) (struct{}, error) {
				r, err := fn(ctx, i, item)
				if err != nil {
					return struct{}{}, err
				}
				results[i], done[i] = r, true
				return struct{}{}, nil
			})
		if err != nil {
			cleanup()
			return nil, err
		}
		return results, nil
	}

	for i, item := range items {
		r, err := fn(ctx, i, item)
		if err != nil {
			cleanup()
			return nil, err
		}
		results[i], done[i] = r, true
	}
	return results, nil
}

// resolveAll resolves every source against one partition.
func resolveAll(sources []*keySource, part *dataframe.DataFrame) ([]KeySet, error) {
	sets := make([]KeySet, 0, len(sources))
	for _, src := range sources {
		set, err := src.resolve(part)
		if err != nil {
			partitionSets{sets: sets}.release()
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// prefixed returns the group's product with its by values in front.
func prefixed(byFrame *dataframe.DataFrame, p partitionSets) (*dataframe.DataFrame, error) {
	product, err := cartesian(p.sets)
	if err != nil {
		return nil, err
	}
	defer product.Release()

	rows := make([]int, product.Len())
	for i := range rows {
		rows[i] = p.first
	}
	prefix, err := byFrame.Take(rows)
	if err != nil {
		return nil, err
	}
	defer prefix.Release()

	return dataframe.ConcatColumns(prefix, product)
}

// cartesian crosses the key sets in order, the last set varying fastest.
func cartesian(sets []KeySet) (*dataframe.DataFrame, error) {
	size, err := productSize(sets)
	if err != nil {
		return nil, err
	}

	strides := make([]int, len(sets))
	stride := 1
	for i := len(sets) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= sets[i].Len()
	}

	taken := make([]*dataframe.DataFrame, 0, len(sets))
	defer func() {
		for _, t := range taken {
			t.Release()
		}
	}()

	for i, set := range sets {
		rows := make([]int, size)
		n := set.Len()
		for r := range rows {
			rows[r] = (r / strides[i]) % n
		}
		t, err := set.Frame.Take(rows)
		if err != nil {
			return nil, err
		}
		taken = append(taken, t)
	}
	return dataframe.ConcatColumns(taken...)
}

// productSize returns the number of tuples in the cartesian product of sets.
func productSize(sets []KeySet) (int, error) {
	size := 1
	for _, s := range sets {
		n := s.Len()
		if n != 0 && size > math.MaxInt/n {
			return 0, overflow()
		}
		size *= n
	}
	return size, nil
}

func (b *builder) checkLimit(size int) error {
	if limit := b.cfg.MaxCombinations; limit > 0 && size > limit {
		return dferrors.NewConfigurationError(opComplete, "",
			fmt.Sprintf("combination space of %d rows exceeds the limit of %d", size, limit))
	}
	return nil
}

func overflow() error {
	return dferrors.NewConfigurationError(opComplete, "", "combination space is too large to enumerate")
}

func setSizes(sets []KeySet) []int {
	sizes := make([]int, len(sets))
	for i, s := range sets {
		sizes[i] = s.Len()
	}
	return sizes
}
