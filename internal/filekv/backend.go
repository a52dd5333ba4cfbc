// Package filekv implements a key-value backend stored as a JSONL file in
// the data directory. Every write rewrites the file atomically.
package filekv

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// FileName is the data file created inside DataDir.
const FileName = "kv.jsonl"

// maxRecordSize bounds a single JSONL line. Longer lines are refused by
// Set and skipped by Attach.
var maxRecordSize = 16 * 1024 * 1024

// ErrRecordTooLarge is returned by Set when the encoded record would exceed
// the line limit.
var ErrRecordTooLarge = errors.New("record too large")

// record is one line of kv.jsonl.
type record struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
}

// Backend keeps the file contents in memory and rewrites the file on
// every Set and Remove.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	path     string
	data     map[string]record
}

// NewBackend creates a file backend. It is not attached.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach creates DataDir if needed and loads kv.jsonl. Malformed lines,
// lines over the record limit and records without a key are skipped; for duplicate keys the last line wins.
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

	path := filepath.Join(dataDir, FileName)
	raw, err := readJSONL(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", FileName, err)
	}

	data := make(map[string]record, len(raw))
	for _, line := range raw {
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil || rec.Key == "" {
			continue
		}
		data[rec.Key] = rec
	}

	b.path = path
	b.data = data
	b.attached = true
	return nil
}

// Detach releases the in-memory copy. Idempotent.
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
	rec, ok := b.data[key]
	return rec.Value, ok, nil
}

// Set stores value under key and persists the file.
func (b *Backend) Set(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	rec := record{Key: key, Value: value, UpdatedAt: time.Now().UTC().Format(time.RFC3339)}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	if len(line) > maxRecordSize {
		return fmt.Errorf("set %q: %w: %d bytes, limit %d", key, ErrRecordTooLarge, len(line), maxRecordSize)
	}
	prev, had := b.data[key]
	b.data[key] = rec
	if err := b.persistLocked(); err != nil {
		if had {
			b.data[key] = prev
		} else {
			delete(b.data, key)
		}
		return err
	}
	return nil
}

// Remove deletes key and persists the file. Removing a missing key is not
// an error and does not touch the file.
func (b *Backend) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	prev, ok := b.data[key]
	if !ok {
		return nil
	}
	delete(b.data, key)
	if err := b.persistLocked(); err != nil {
		b.data[key] = prev
		return err
	}
	return nil
}

// persistLocked writes all records sorted by key. The caller must hold
// b.mu for writing.
func (b *Backend) persistLocked() error {
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		line, err := json.Marshal(b.data[k])
		if err != nil {
			return fmt.Errorf("marshal %q: %w", k, err)
		}
		records = append(records, line)
	}
	if err := writeJSONL(b.path, records); err != nil {
		return fmt.Errorf("persist %s: %w", FileName, err)
	}
	return nil
}
