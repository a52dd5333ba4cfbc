// Package boltkv implements a key-value backend on a bbolt database file.
package boltkv

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// DBFileName is the database created inside DataDir.
const DBFileName = "statekit.bolt"

const bucketKV = "kv"

// openTimeout bounds waiting for the file lock held by another process.
const openTimeout = time.Second

// Backend implements types.Backend on a single bbolt bucket.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	db       *bolt.DB
}

// NewBackend creates a bolt backend. It is not attached.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (or creates) the database and its bucket.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dataDir, DBFileName), 0o644, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKV))
		return err
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("initialize bucket: %w", err)
	}

	b.db = db
	b.attached = true
	return nil
}

// Detach closes the database file. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	return nil
}

// Get returns the value stored under key.
func (b *Backend) Get(key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return "", false, types.ErrDetached
	}

	var (
		value string
		ok    bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketKV)).Get([]byte(key))
		if v != nil {
			value, ok = string(v), true
		}
		return nil
	})
	return value, ok, err
}

// Set stores value under key.
func (b *Backend) Set(key, value string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrDetached
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).Put([]byte(key), []byte(value))
	})
}

// Remove deletes key. Removing a missing key is not an error.
func (b *Backend) Remove(key string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrDetached
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).Delete([]byte(key))
	})
}
