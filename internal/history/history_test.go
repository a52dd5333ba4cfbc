package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

func itemsSnapshot(titles ...string) types.Snapshot {
	items := make([]types.Item, len(titles))
	for i, title := range titles {
		items[i] = types.Item{ID: int64(i + 1), Title: title}
	}
	return types.NewSnapshot(types.Partial{types.FieldItems: items})
}

func titles(s types.Snapshot) []string {
	out := []string{}
	for _, it := range s.Items() {
		out = append(out, it.Title)
	}
	return out
}

func TestUndoOnBaseIsNoop(t *testing.T) {
	m := New(itemsSnapshot("A", "B", "C"), 0)

	_, ok := m.Undo()

	assert.False(t, ok)
	assert.False(t, m.HasUndo())
	assert.Equal(t, 1, m.Len())
}

func TestCommitThenUndoRestoresReference(t *testing.T) {
	base := itemsSnapshot("A", "B", "C")
	m := New(base, 0)

	m.Commit(itemsSnapshot("A", "C"))
	m.Commit(itemsSnapshot("C"))
	m.Commit(itemsSnapshot())
	require.True(t, m.HasUndo())

	var top types.Snapshot
	for i := 0; i < 3; i++ {
		var ok bool
		top, ok = m.Undo()
		require.True(t, ok)
	}

	assert.Equal(t, titles(base), titles(top))
	assert.False(t, m.HasUndo())
	assert.Equal(t, 1, m.Len())

	_, ok := m.Undo()
	assert.False(t, ok, "a further undo is a no-op")
	assert.Equal(t, 1, m.Len())
}

func TestUndoReturnsNewTop(t *testing.T) {
	m := New(itemsSnapshot("A", "B"), 0)
	m.Commit(itemsSnapshot("A"))

	top, ok := m.Undo()

	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, titles(top))
}

func TestBoundEvictsOldestAboveBase(t *testing.T) {
	m := New(itemsSnapshot("base"), 2)

	m.Commit(itemsSnapshot("one"))
	m.Commit(itemsSnapshot("two"))
	m.Commit(itemsSnapshot("three"))

	assert.Equal(t, 3, m.Len(), "base plus two entries")
	top, _ := m.Undo()
	assert.Equal(t, []string{"two"}, titles(top))
	top, _ = m.Undo()
	assert.Equal(t, []string{"base"}, titles(top), "base survives eviction")
	_, ok := m.Undo()
	assert.False(t, ok)
}

func TestRedo(t *testing.T) {
	m := New(itemsSnapshot("A"), 0)
	m.Commit(itemsSnapshot("B"))
	m.Undo()
	require.True(t, m.HasRedo())

	s, ok := m.Redo()
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, titles(s))
	assert.False(t, m.HasRedo())

	m.Undo()
	m.Commit(itemsSnapshot("C"))
	assert.False(t, m.HasRedo(), "commit clears redo")
	_, ok = m.Redo()
	assert.False(t, ok)
}

func TestBaseIsNotAliased(t *testing.T) {
	items := []types.Item{{ID: 1, Title: "A"}}
	m := New(types.NewSnapshot(types.Partial{types.FieldItems: items}), 0)
	items[0].Title = "mutated"

	m.Commit(itemsSnapshot("B"))
	top, ok := m.Undo()
	require.True(t, ok)
	got := top.Items()
	got[0].Title = "mutated again"

	m.Commit(itemsSnapshot("C"))
	top, _ = m.Undo()
	assert.Equal(t, []string{"A"}, titles(top))
}

func TestRebaseReplacesBottom(t *testing.T) {
	m := New(itemsSnapshot("A"), 0)
	m.Commit(itemsSnapshot("A", "B"))
	m.Commit(itemsSnapshot("A", "B", "C"))
	m.Undo()

	m.Rebase(itemsSnapshot("D"))

	assert.Equal(t, 1, m.Len())
	assert.False(t, m.HasUndo())
	assert.False(t, m.HasRedo())

	m.Commit(itemsSnapshot("E"))
	top, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"D"}, titles(top))
}
