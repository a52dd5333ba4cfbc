// Package history keeps a bounded stack of committed snapshots for undo
// and redo. The base snapshot always sits at the bottom of the stack and
// is never evicted.
package history

import (
	"sync"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Manager is a bounded undo stack with redo. The zero value is not usable;
// call New.
type Manager struct {
	mu    sync.Mutex
	stack []types.Snapshot
	redo  []types.Snapshot
	max   int
}

// New creates a Manager whose stack holds a clone of base. max bounds the
// number of entries above the base; zero or less means unbounded.
func New(base types.Snapshot, max int) *Manager {
	return &Manager{
		stack: []types.Snapshot{base.Clone()},
		max:   max,
	}
}

// Commit pushes s. When the stack exceeds the bound, the oldest entry
// above the base is evicted. Commit clears redo.
func (m *Manager) Commit(s types.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stack = append(m.stack, s)
	if m.max > 0 && len(m.stack)-1 > m.max {
		m.stack = append(m.stack[:1], m.stack[2:]...)
	}
	m.redo = nil
}

// Undo pops the top entry and returns the new top. It is a no-op that
// returns false when only the base remains.
func (m *Manager) Undo() (types.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.stack) <= 1 {
		return types.Snapshot{}, false
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	m.redo = append(m.redo, top)
	return m.stack[len(m.stack)-1], true
}

// Redo re-applies the most recently undone entry and returns it.
func (m *Manager) Redo() (types.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.redo) == 0 {
		return types.Snapshot{}, false
	}
	top := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.stack = append(m.stack, top)
	return top, true
}

// Rebase makes base the new bottom of the stack and drops every other
// entry, undone ones included.
func (m *Manager) Rebase(base types.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stack = []types.Snapshot{base.Clone()}
	m.redo = nil
}

// HasUndo reports whether Undo would change anything.
func (m *Manager) HasUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack) > 1
}

// HasRedo reports whether Redo would change anything.
func (m *Manager) HasRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Len returns the stack depth including the base.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack)
}
