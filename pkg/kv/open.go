// Package kv exposes the key-value backend factory while keeping the
// implementations internal.
package kv

import (
	"fmt"

	"github.com/mesh-intelligence/statekit/internal/boltkv"
	"github.com/mesh-intelligence/statekit/internal/filekv"
	"github.com/mesh-intelligence/statekit/internal/memkv"
	"github.com/mesh-intelligence/statekit/internal/sqlite"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

// New returns an unattached backend by name.
func New(backend string) (types.Backend, error) {
	switch backend {
	case types.BackendMemory:
		return memkv.NewBackend(), nil
	case types.BackendFile:
		return filekv.NewBackend(), nil
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case types.BackendBolt:
		return boltkv.NewBackend(), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}

// Open creates the backend named by config and attaches it. The caller
// must Detach it when done.
//
// Example:
//
//	backend, err := kv.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".statekit-db",
//	})
//	defer backend.Detach()
func Open(config types.Config) (types.Backend, error) {
	b, err := New(config.Backend)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(config); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", config.Backend, err)
	}
	return b, nil
}
