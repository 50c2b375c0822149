package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownHooks_AddContext(t *testing.T) {
	t.Run("adds hook successfully", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		called := false

		hooks.AddContext("test", func(ctx context.Context) error {
			called = true
			return nil
		})

		require.Len(t, hooks.hooks, 1)
		assert.Equal(t, "test", hooks.hooks[0].name)

		hooks.Execute(context.Background())
		assert.True(t, called, "hook should have been called")
	})

	t.Run("ignores nil hook", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		hooks.AddContext("nil-hook", nil)
		require.Len(t, hooks.hooks, 0, "nil hook should not be added")
	})
}

func TestShutdownHooks_Add(t *testing.T) {
	t.Run("wraps and adds hook successfully", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		called := false

		hooks.Add("test", func() error {
			called = true
			return nil
		})

		require.Len(t, hooks.hooks, 1)

		hooks.Execute(context.Background())
		assert.True(t, called, "hook should have been called")
	})

	t.Run("ignores nil hook", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		hooks.Add("nil-hook", nil)
		require.Len(t, hooks.hooks, 0, "nil hook should not be added")
	})
}

func TestShutdownHooks_Execute(t *testing.T) {
	t.Run("executes hooks in order", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		var order []string

		hooks.AddContext("first", func(ctx context.Context) error {
			order = append(order, "first")
			return nil
		})
		hooks.AddContext("second", func(ctx context.Context) error {
			order = append(order, "second")
			return nil
		})

		hooks.Execute(context.Background())

		assert.Equal(t, []string{"first", "second"}, order,
			"hooks should execute in the order they were added")
	})

	t.Run("continues execution when hook fails", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		var executed []string

		hooks.AddContext("failing", func(ctx context.Context) error {
			executed = append(executed, "failing")
			return errors.New("hook failed")
		})
		hooks.AddContext("after", func(ctx context.Context) error {
			executed = append(executed, "after")
			return nil
		})

		hooks.Execute(context.Background())

		assert.Equal(t, []string{"failing", "after"}, executed,
			"all hooks should execute even when one fails")
	})

	t.Run("handles empty hooks list", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		hooks.Execute(context.Background())
	})
}
