package parallel_test

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paveg/tidy/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()
	assert.Equal(t, runtime.NumCPU(), pool.NumWorkers())

	pool2 := parallel.NewWorkerPool(4)
	defer pool2.Close()
	assert.Equal(t, 4, pool2.NumWorkers())

	pool3 := parallel.NewWorkerPool(-1)
	defer pool3.Close()
	assert.Equal(t, runtime.NumCPU(), pool3.NumWorkers())
}

func TestTryProcessIndexed(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	var concurrent, maxConcurrent int64
	input := make([]int, 20)
	for i := range input {
		input[i] = i
	}

	results, err := parallel.TryProcessIndexed(context.Background(), pool, input,
		func(_ context.Context, _ int, x int) (int, error) {
			current := atomic.AddInt64(&concurrent, 1)
			for {
				seen := atomic.LoadInt64(&maxConcurrent)
				if current <= seen || atomic.CompareAndSwapInt64(&maxConcurrent, seen, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&concurrent, -1)
			return x * 2, nil
		})

	require.NoError(t, err)
	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i*2, r)
	}
	assert.LessOrEqual(t, maxConcurrent, int64(4), "pool size bounds concurrency")
}

func TestTryProcessIndexedEmpty(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	results, err := parallel.TryProcessIndexed(context.Background(), pool, []string{},
		func(_ context.Context, _ int, v string) (string, error) { return v, nil })
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestTryProcessIndexedError(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	boom := errors.New("boom")
	results, err := parallel.TryProcessIndexed(context.Background(), pool, []int{1, 2, 3},
		func(_ context.Context, _ int, x int) (int, error) {
			if x == 2 {
				return 0, boom
			}
			return x, nil
		})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, results)
}

func TestTryProcessIndexedCanceledContext(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parallel.TryProcessIndexed(ctx, pool, []int{1, 2},
		func(_ context.Context, _ int, x int) (int, error) { return x, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPoolClose(t *testing.T) {
	pool := parallel.NewWorkerPool(2)

	results, err := parallel.TryProcessIndexed(context.Background(), pool, []int{1, 2, 3},
		func(_ context.Context, _ int, x int) (int, error) { return x, nil })
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, results)

	pool.Close()
	assert.NotPanics(t, func() {
		pool.Close()
	})

	_, err = parallel.TryProcessIndexed(context.Background(), pool, []int{1},
		func(_ context.Context, _ int, x int) (int, error) { return x, nil })
	assert.ErrorIs(t, err, context.Canceled)
}
