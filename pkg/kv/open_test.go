package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

func TestOpenEachBackend(t *testing.T) {
	for _, name := range []string{types.BackendMemory, types.BackendFile, types.BackendSQLite, types.BackendBolt} {
		t.Run(name, func(t *testing.T) {
			b, err := Open(types.Config{Backend: name, DataDir: t.TempDir()})
			require.NoError(t, err)
			defer b.Detach()

			require.NoError(t, b.Set("k", "v"))
			v, ok, err := b.Get("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", v)
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(types.Config{Backend: "redis"})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)

	_, err = New("")
	assert.ErrorIs(t, err, types.ErrBackendEmpty)
}
