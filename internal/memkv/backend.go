// Package memkv implements an in-process key-value backend. Nothing
// survives Detach; it backs tests and the "memory" backend setting.
package memkv

import (
	"sync"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Backend is a mutex-guarded map.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	data     map[string]string
}

// NewBackend creates a memory backend. It is not attached.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach validates config and prepares an empty map.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	b.data = make(map[string]string)
	b.attached = true
	return nil
}

// Detach drops all data. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attached = false
	b.data = nil
	return nil
}

// Get returns the value stored under key.
func (b *Backend) Get(key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return "", false, types.ErrDetached
	}
	v, ok := b.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (b *Backend) Set(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	b.data[key] = value
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (b *Backend) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	delete(b.data, key)
	return nil
}
