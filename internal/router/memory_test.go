package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

func TestMemoryNavigatorPushTruncatesForward(t *testing.T) {
	nav := NewMemoryNavigator("/")
	nav.Push(types.RouteEntry{Path: "/a"})
	nav.Push(types.RouteEntry{Path: "/b"})
	nav.Back()
	nav.Back()

	nav.Push(types.RouteEntry{Path: "/c"})

	assert.Equal(t, 2, nav.Len())
	assert.Equal(t, "/c", nav.Location())
	assert.False(t, nav.Forward())
}

func TestMemoryNavigatorGoBounds(t *testing.T) {
	nav := NewMemoryNavigator("/?filter=active")
	fired := 0
	nav.OnPopState(func(types.RouteEntry) { fired++ })

	assert.False(t, nav.Back())
	assert.False(t, nav.Go(0))
	assert.Equal(t, 0, fired)
	assert.Equal(t, "/?filter=active", nav.Location())
}

func TestMemoryNavigatorUnsubscribe(t *testing.T) {
	nav := NewMemoryNavigator("/")
	nav.Push(types.RouteEntry{Path: "/a"})
	var got []string
	unsub := nav.OnPopState(func(e types.RouteEntry) { got = append(got, e.Path) })

	nav.Back()
	unsub()
	unsub()
	nav.Forward()

	assert.Equal(t, []string{"/"}, got)
}

func TestMemoryNavigatorEntriesAreCopies(t *testing.T) {
	nav := NewMemoryNavigator("/")
	state := types.Partial{types.FieldFilter: types.FilterActive}
	nav.Replace(types.RouteEntry{Path: "/", State: state})
	state[types.FieldFilter] = "mutated"

	entries := nav.Entries()
	entries[0].State[types.FieldFilter] = "mutated again"

	assert.Equal(t, types.FilterActive, nav.Current().State[types.FieldFilter])
}
