package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithResults(t *testing.T) {
	t.Run("results are positional", func(t *testing.T) {
		fns := make([]func() (int, error), 5)
		for i := range fns {
			fns[i] = func() (int, error) { return i * i, nil }
		}

		results, errs := ExecuteWithResults(context.Background(), 2, fns...)
		require.Len(t, results, 5)
		for i, r := range results {
			assert.Equal(t, i*i, r)
			assert.NoError(t, errs[i])
		}
	})

	t.Run("panic becomes error", func(t *testing.T) {
		_, errs := ExecuteWithResults(context.Background(), 1,
			func() (int, error) { return 1, nil },
			func() (int, error) { panic("restart failed") },
		)
		assert.NoError(t, errs[0])
		var panicErr *PanicError
		require.True(t, errors.As(errs[1], &panicErr))
		assert.Equal(t, 1, panicErr.Task)
	})

	t.Run("no functions", func(t *testing.T) {
		results, errs := ExecuteWithResults[int](context.Background(), 1)
		assert.Nil(t, results)
		assert.Nil(t, errs)
	})
}

func TestBatch(t *testing.T) {
	batches := Batch([]string{"a", "b", "c", "d", "e"}, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, batches)
	assert.Nil(t, Batch([]string{}, 3))
	assert.Len(t, Batch(make([]int, 25), 0), 3)
}

func TestGetSemaphoreLimit(t *testing.T) {
	t.Setenv("SEMAPHORE_LIMIT", "")
	assert.Equal(t, DefaultSemaphoreLimit, GetSemaphoreLimit())

	t.Setenv("SEMAPHORE_LIMIT", "12")
	assert.Equal(t, 12, GetSemaphoreLimit())

	t.Setenv("SEMAPHORE_LIMIT", "nope")
	assert.Equal(t, DefaultSemaphoreLimit, GetSemaphoreLimit())
}
