package router

import (
	"net/url"
	"sync"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// MemoryNavigator is an in-memory browser history. Back, Forward and Go
// move through entries and dispatch popstate synchronously.
type MemoryNavigator struct {
	mu        sync.Mutex
	entries   []types.RouteEntry
	index     int
	listeners []*popListener
	nextID    uint64
}

type popListener struct {
	id uint64
	fn func(types.RouteEntry)
}

// NewMemoryNavigator starts a history with one entry for initialURL that
// carries no state, like a page opened by typing its address.
func NewMemoryNavigator(initialURL string) *MemoryNavigator {
	if initialURL == "" {
		initialURL = types.RouteHome
	}
	path, query := types.RouteHome, ""
	if u, err := url.Parse(initialURL); err == nil {
		if u.Path != "" {
			path = u.Path
		}
		query = u.RawQuery
	}
	return &MemoryNavigator{
		entries: []types.RouteEntry{{Key: newKey(), Path: path, Query: query}},
	}
}

// Push adds entry after the current one and drops forward entries.
func (n *MemoryNavigator) Push(entry types.RouteEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries[:n.index+1], cloneEntry(entry))
	n.index++
}

// Replace overwrites the current entry.
func (n *MemoryNavigator) Replace(entry types.RouteEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries[n.index] = cloneEntry(entry)
}

// Location returns the current URL.
func (n *MemoryNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.entries[n.index].URL()
}

// OnPopState registers fn for back/forward moves.
func (n *MemoryNavigator) OnPopState(fn func(types.RouteEntry)) types.Unsubscribe {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, &popListener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, l := range n.listeners {
				if l.id == id {
					n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Back moves one entry back. It returns false at the first entry.
func (n *MemoryNavigator) Back() bool { return n.Go(-1) }

// Forward moves one entry forward. It returns false at the last entry.
func (n *MemoryNavigator) Forward() bool { return n.Go(1) }

// Go moves delta entries and dispatches popstate. Out-of-range moves do
// nothing and return false.
func (n *MemoryNavigator) Go(delta int) bool {
	n.mu.Lock()
	target := n.index + delta
	if delta == 0 || target < 0 || target >= len(n.entries) {
		n.mu.Unlock()
		return false
	}
	n.index = target
	entry := cloneEntry(n.entries[target])
	listeners := make([]*popListener, len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.Unlock()

	for _, l := range listeners {
		l.fn(entry)
	}
	return true
}

// Len returns the number of entries.
func (n *MemoryNavigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// Index returns the position of the current entry.
func (n *MemoryNavigator) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index
}

// Current returns a copy of the current entry.
func (n *MemoryNavigator) Current() types.RouteEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return cloneEntry(n.entries[n.index])
}

// Entries returns a copy of every entry.
func (n *MemoryNavigator) Entries() []types.RouteEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]types.RouteEntry, len(n.entries))
	for i, e := range n.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

func cloneEntry(e types.RouteEntry) types.RouteEntry {
	if e.State != nil {
		e.State = types.CloneValue(e.State).(types.Partial)
	}
	return e
}
