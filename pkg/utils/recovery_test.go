package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverTask(t *testing.T) {
	t.Run("panic is reported", func(t *testing.T) {
		var got error
		func() {
			defer RecoverTask(3, func(err error) { got = err })
			panic("empty cluster")
		}()

		var panicErr *PanicError
		require.True(t, errors.As(got, &panicErr))
		assert.Equal(t, 3, panicErr.Task)
		assert.Equal(t, "empty cluster", panicErr.Value)
		assert.NotEmpty(t, panicErr.Stack)
		assert.Equal(t, "task 3 panicked: empty cluster", got.Error())
	})

	t.Run("no panic leaves callback uncalled", func(t *testing.T) {
		called := false
		func() {
			defer RecoverTask(0, func(error) { called = true })
		}()
		assert.False(t, called)
	})

	t.Run("nil callback", func(t *testing.T) {
		assert.NotPanics(t, func() {
			defer RecoverTask(1, nil)
			panic("ignored")
		})
	})
}
