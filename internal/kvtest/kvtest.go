// Package kvtest holds the behaviour every types.Backend must share, run
// against each implementation from its own package tests.
package kvtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Factory returns a fresh, unattached backend.
type Factory func() types.Backend

// Run exercises the lifecycle and key-value contract. config must be
// valid for the backend under test; persistent reports whether values
// survive a Detach/Attach cycle on the same DataDir.
func Run(t *testing.T, newBackend Factory, config types.Config, persistent bool) {
	t.Helper()

	t.Run("operations before attach return ErrDetached", func(t *testing.T) {
		b := newBackend()
		_, _, err := b.Get("k")
		assert.ErrorIs(t, err, types.ErrDetached)
		assert.ErrorIs(t, b.Set("k", "v"), types.ErrDetached)
		assert.ErrorIs(t, b.Remove("k"), types.ErrDetached)
	})

	t.Run("attach twice returns ErrAlreadyAttached", func(t *testing.T) {
		b := newBackend()
		require.NoError(t, b.Attach(config))
		defer b.Detach()
		assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
	})

	t.Run("attach rejects invalid config", func(t *testing.T) {
		b := newBackend()
		bad := config
		bad.Backend = ""
		assert.ErrorIs(t, b.Attach(bad), types.ErrBackendEmpty)
	})

	t.Run("detach is idempotent", func(t *testing.T) {
		b := newBackend()
		require.NoError(t, b.Attach(config))
		assert.NoError(t, b.Detach())
		assert.NoError(t, b.Detach())
		_, _, err := b.Get("k")
		assert.ErrorIs(t, err, types.ErrDetached)
	})

	t.Run("missing key", func(t *testing.T) {
		b := newBackend()
		require.NoError(t, b.Attach(config))
		defer b.Detach()

		v, ok, err := b.Get("missing")
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "", v)
		assert.NoError(t, b.Remove("missing"))
	})

	t.Run("set get overwrite remove", func(t *testing.T) {
		b := newBackend()
		require.NoError(t, b.Attach(config))
		defer b.Detach()

		require.NoError(t, b.Set("k", `{"filter":"all"}`))
		v, ok, err := b.Get("k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"filter":"all"}`, v)

		require.NoError(t, b.Set("k", "second"))
		v, _, _ = b.Get("k")
		assert.Equal(t, "second", v)

		require.NoError(t, b.Set("other", "x"))
		require.NoError(t, b.Remove("k"))
		_, ok, err = b.Get("k")
		require.NoError(t, err)
		assert.False(t, ok)
		v, ok, _ = b.Get("other")
		assert.True(t, ok)
		assert.Equal(t, "x", v)
	})

	t.Run("values with newlines and unicode", func(t *testing.T) {
		b := newBackend()
		require.NoError(t, b.Attach(config))
		defer b.Detach()

		value := "line one\nline two é中"
		require.NoError(t, b.Set("multi", value))
		v, ok, err := b.Get("multi")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, value, v)
	})

	t.Run("reattach", func(t *testing.T) {
		b := newBackend()
		require.NoError(t, b.Attach(config))
		require.NoError(t, b.Set("durable", "yes"))
		require.NoError(t, b.Detach())

		b2 := newBackend()
		require.NoError(t, b2.Attach(config))
		defer b2.Detach()
		v, ok, err := b2.Get("durable")
		require.NoError(t, err)
		if persistent {
			assert.True(t, ok)
			assert.Equal(t, "yes", v)
		} else {
			assert.False(t, ok)
		}
		require.NoError(t, b2.Remove("durable"))
	})
}
