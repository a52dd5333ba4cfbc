// Package router keeps a navigation history and the store's route-synced
// fields in agreement. Programmatic navigation pushes entries; back and
// forward moves restore state from the entry without pushing.
package router

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Store is the part of the state store the router drives.
type Store interface {
	GetState() types.Snapshot
	SetState(types.Partial) (types.Snapshot, error)
	Validate(types.Partial) error
}

// Router maps locations to store state and back.
type Router struct {
	store  Store
	nav    types.Navigator
	routes map[string]bool
	log    *zap.Logger

	mu    sync.Mutex
	unsub types.Unsubscribe
}

// Option configures a Router.
type Option func(*Router)

// WithRoutes declares the known paths. Unknown paths still navigate; Known
// reports them as not found.
func WithRoutes(paths ...string) Option {
	return func(r *Router) {
		for _, p := range paths {
			r.routes[p] = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a Router. Call Init before use.
func New(store Store, nav types.Navigator, opts ...Option) *Router {
	r := &Router{
		store:  store,
		nav:    nav,
		routes: make(map[string]bool),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init reconciles the store with the navigator's current location,
// replaces the current entry with one carrying the synced state and
// starts listening for back/forward moves. The location wins over any
// restored state for the synced fields.
func (r *Router) Init() (types.Snapshot, error) {
	partial := DecodeLocation(r.nav.Location())
	if err := r.store.Validate(partial); err != nil {
		return r.store.GetState(), err
	}

	next := r.store.GetState().Merge(partial)
	r.nav.Replace(newEntry(next))

	snap, err := r.store.SetState(partial)
	if err != nil {
		return snap, err
	}

	r.mu.Lock()
	if r.unsub != nil {
		r.unsub()
	}
	r.unsub = r.nav.OnPopState(r.handlePopState)
	r.mu.Unlock()

	r.log.Debug("router initialized", zap.String("location", EncodeLocation(snap)))
	return snap, nil
}

// Close stops listening for back/forward moves.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
}

// Navigate moves to target, a path with an optional query. Without a
// query the current filter, category and search carry over. It returns
// false without touching the store or the history when target resolves to
// the current location.
func (r *Router) Navigate(target string) (types.Snapshot, bool, error) {
	path, query, hasQuery := splitTarget(target)
	partial := types.Partial{types.FieldRoute: path}
	if hasQuery {
		partial = DecodeLocation(path + "?" + query)
	}

	cur := r.store.GetState()
	if EncodeLocation(cur.Merge(partial)) == r.nav.Location() {
		return cur, false, nil
	}
	return r.Apply(partial)
}

// Apply merges partial into the store with a single SetState. When the
// encoded location changes, a navigation entry is pushed first and Apply
// returns true. partial may mix route-synced and other fields.
func (r *Router) Apply(partial types.Partial) (types.Snapshot, bool, error) {
	cur := r.store.GetState()
	if err := r.store.Validate(partial); err != nil {
		return cur, false, err
	}

	next := cur.Merge(partial)
	pushed := false
	if loc := EncodeLocation(next); loc != r.nav.Location() {
		r.nav.Push(newEntry(next))
		pushed = true
		r.log.Debug("navigated", zap.String("location", loc))
	}

	snap, err := r.store.SetState(partial)
	if err != nil {
		return snap, false, err
	}
	return snap, pushed, nil
}

// Known reports whether path was declared with WithRoutes.
func (r *Router) Known(path string) bool {
	return r.routes[path]
}

// Location returns the navigator's current URL.
func (r *Router) Location() string {
	return r.nav.Location()
}

// handlePopState restores the synced fields from entry, or from the
// location when the entry carries no state. It never pushes.
func (r *Router) handlePopState(entry types.RouteEntry) {
	var partial types.Partial
	if entry.State != nil {
		partial = make(types.Partial, len(SyncedFields))
		for _, f := range SyncedFields {
			if v, ok := entry.State[f]; ok {
				partial[f] = types.CloneValue(v)
			}
		}
	} else {
		partial = DecodeLocation(r.nav.Location())
	}

	if _, err := r.store.SetState(partial); err != nil {
		r.log.Warn("popstate: state rejected", zap.String("location", entry.URL()), zap.Error(err))
		return
	}
	r.log.Debug("popstate", zap.String("location", entry.URL()), zap.Bool("from_entry", entry.State != nil))
}

// newEntry builds a navigation entry for s, keyed with a UUID v7.
func newEntry(s types.Snapshot) types.RouteEntry {
	path, query := encode(s)
	return types.RouteEntry{
		Key:   newKey(),
		Path:  path,
		Query: query,
		State: s.Pick(SyncedFields...),
	}
}

func newKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
