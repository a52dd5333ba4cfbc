// Package persist saves a chosen subset of snapshot fields to a key-value
// backend and restores them on start. Persistence is best-effort: failures
// are logged and swallowed, and unreadable data loads as absent.
package persist

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Adapter serializes snapshots under a single key.
type Adapter struct {
	kv     types.KV
	key    string
	fields []string
	schema types.Schema
	sync   string
	log    *zap.Logger

	mu      sync.Mutex
	pending *types.Snapshot
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithFields sets the persisted fields. Fields left out (status, error,
// anything secret or derived) are never written.
func WithFields(fields ...string) Option {
	return func(a *Adapter) {
		if len(fields) > 0 {
			a.fields = append([]string(nil), fields...)
		}
	}
}

// WithSchema sets the schema used to decode stored values.
func WithSchema(schema types.Schema) Option {
	return func(a *Adapter) { a.schema = schema }
}

// WithSyncStrategy selects when writes reach the backend: on every Save
// (types.SyncImmediate) or only on Flush and Close (types.SyncOnClose).
func WithSyncStrategy(strategy string) Option {
	return func(a *Adapter) {
		if strategy != "" {
			a.sync = strategy
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

// New creates an Adapter writing to kv.
func New(kv types.KV, opts ...Option) *Adapter {
	a := &Adapter{
		kv:     kv,
		key:    types.DefaultStorageKey,
		fields: append([]string(nil), types.DefaultPersistFields...),
		schema: types.DefaultSchema(),
		sync:   types.SyncImmediate,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromConfig creates an Adapter using the storage key, persisted fields
// and sync strategy of config.
func FromConfig(kv types.KV, config types.Config, log *zap.Logger) *Adapter {
	return New(kv,
		WithKey(config.GetStorageKey()),
		WithFields(config.GetPersistFields()...),
		WithSyncStrategy(config.GetSyncStrategy()),
		WithLogger(log),
	)
}

// Key returns the storage key.
func (a *Adapter) Key() string {
	return a.key
}

// Save writes the persisted subset of s. Errors are logged, never
// returned.
func (a *Adapter) Save(s types.Snapshot) {
	if a.sync == types.SyncOnClose {
		a.mu.Lock()
		a.pending = &s
		a.mu.Unlock()
		return
	}
	_ = a.write(s)
}

// Subscriber returns a store subscriber that writes through on every
// commit.
func (a *Adapter) Subscriber() types.RenderFunc {
	return a.Save
}

// Load restores the persisted fields. It returns false when nothing is
// stored or the stored data cannot be read; the caller then falls back to
// defaults. A field whose stored value does not decode is dropped.
func (a *Adapter) Load() (types.Partial, bool) {
	a.mu.Lock()
	pending := a.pending
	a.mu.Unlock()
	if pending != nil {
		return pending.Pick(a.fields...), true
	}

	raw, ok, err := a.kv.Get(a.key)
	if err != nil {
		a.log.Warn("persist: read failed, using defaults", zap.String("key", a.key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var stored map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored == nil {
		a.log.Warn("persist: stored state is corrupt, using defaults", zap.String("key", a.key), zap.Error(err))
		return nil, false
	}

	out := make(types.Partial, len(a.fields))
	for _, field := range a.fields {
		value, present := stored[field]
		if !present {
			continue
		}
		v, err := a.decode(field, value)
		if err != nil {
			a.log.Warn("persist: dropping unreadable field", zap.String("field", field), zap.Error(err))
			continue
		}
		out[field] = v
	}
	return out, true
}

// Clear removes the stored entry and any pending write.
func (a *Adapter) Clear() {
	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()

	if err := a.kv.Remove(a.key); err != nil {
		a.log.Warn("persist: remove failed", zap.String("key", a.key), zap.Error(err))
	}
}

// Flush writes a pending snapshot held by the on_close strategy.
func (a *Adapter) Flush() error {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	if pending == nil {
		return nil
	}
	return a.write(*pending)
}

// Close flushes pending writes.
func (a *Adapter) Close() error {
	return a.Flush()
}

func (a *Adapter) write(s types.Snapshot) error {
	data, err := json.Marshal(s.Pick(a.fields...))
	if err != nil {
		a.log.Warn("persist: encode failed", zap.String("key", a.key), zap.Error(err))
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := a.kv.Set(a.key, string(data)); err != nil {
		a.log.Warn("persist: write failed", zap.String("key", a.key), zap.Error(err))
		return fmt.Errorf("write %q: %w", a.key, err)
	}
	a.log.Debug("persist: saved", zap.String("key", a.key), zap.Uint64("version", s.Version()))
	return nil
}

func (a *Adapter) decode(field string, raw json.RawMessage) (any, error) {
	if _, known := a.schema[field]; known {
		return a.schema.Decode(field, raw)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
