// Package store holds the single current state snapshot, merges partial
// updates into new snapshots and notifies subscribers after every commit.
package store

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Store is the single source of truth for application state. Construct
// one per application and pass it to every consumer.
type Store struct {
	mu      sync.RWMutex
	current types.Snapshot
	subs    []*subscriber
	nextSub uint64

	// dispatch serializes commit plus notification so subscribers see
	// snapshots in commit order.
	dispatch sync.Mutex

	schema types.Schema
	strict bool
	log    *zap.Logger
}

type subscriber struct {
	id uint64
	fn types.RenderFunc
}

// Option configures a Store.
type Option func(*Store)

// WithSchema sets the schema used by strict validation.
func WithSchema(schema types.Schema) Option {
	return func(s *Store) { s.schema = schema }
}

// WithStrict rejects partials that do not match the schema.
func WithStrict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Store holding initial. A zero initial snapshot is replaced
// by an empty one so GetState never returns a zero value.
func New(initial types.Snapshot, opts ...Option) *Store {
	if initial.IsZero() {
		initial = types.NewSnapshot(nil)
	}
	s := &Store{
		current: initial,
		schema:  types.DefaultSchema(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetState returns the current snapshot.
func (s *Store) GetState() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Validate checks partial against the schema when the store is strict.
// A permissive store accepts everything.
func (s *Store) Validate(partial types.Partial) error {
	if !s.strict {
		return nil
	}
	if err := s.schema.Validate(partial); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// SetState merges partial into the current snapshot, notifies every
// subscriber once and returns the new snapshot. In strict mode a partial
// that fails schema validation is rejected and nothing changes.
//
// Subscribers must not call SetState synchronously.
func (s *Store) SetState(partial types.Partial) (types.Snapshot, error) {
	if err := s.Validate(partial); err != nil {
		s.log.Debug("rejected state update", zap.Strings("fields", partial.Keys()), zap.Error(err))
		return s.GetState(), err
	}

	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	next := s.current.Merge(partial)
	s.current = next
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	s.notify(subs, next)
	return next, nil
}

// Replace installs a whole snapshot, dropping fields next does not carry,
// and notifies subscribers once. The version lineage continues from the
// current snapshot.
func (s *Store) Replace(next types.Snapshot) types.Snapshot {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	installed := s.current.Supersede(next)
	s.current = installed
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	s.notify(subs, installed)
	return installed
}

// Subscribe registers fn to receive every committed snapshot. Subscribers
// are called in registration order.
func (s *Store) Subscribe(fn types.RenderFunc) types.Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, &subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Store) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// snapshotSubsLocked copies the subscriber list. The caller must hold s.mu.
func (s *Store) snapshotSubsLocked() []*subscriber {
	out := make([]*subscriber, len(s.subs))
	copy(out, s.subs)
	return out
}

// notify calls each subscriber, recovering from panics so one failing
// renderer cannot leave the store wedged.
func (s *Store) notify(subs []*subscriber, snap types.Snapshot) {
	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("subscriber panicked", zap.Uint64("subscriber", sub.id), zap.Any("panic", r))
				}
			}()
			sub.fn(snap)
		}()
	}
}
