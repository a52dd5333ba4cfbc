package types

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotMergeProducesNewValue(t *testing.T) {
	base := NewSnapshot(Partial{FieldFilter: FilterAll, FieldItems: []Item{}})

	next := base.Merge(Partial{FieldFilter: FilterCompleted})

	assert.Equal(t, FilterAll, base.Filter(), "base must be untouched")
	assert.Equal(t, FilterCompleted, next.Filter())
	assert.Equal(t, base.Version()+1, next.Version())
	assert.True(t, next.Has(FieldItems), "unmerged fields carry over")
}

func TestSnapshotMergeIsAssociative(t *testing.T) {
	partials := []Partial{
		{FieldFilter: FilterActive, FieldSearch: "a"},
		{FieldSearch: "b", FieldRoute: "/todos"},
		{FieldFilter: FilterCompleted, FieldStatus: StatusLoading},
	}

	s := NewSnapshot(DefaultFields())
	want := DefaultFields()
	for _, p := range partials {
		s = s.Merge(p)
		for k, v := range p {
			want[k] = v
		}
	}

	if diff := cmp.Diff(want, s.Fields()); diff != "" {
		t.Fatalf("merged fields mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotDoesNotAliasCallerData(t *testing.T) {
	items := []Item{{ID: 1, Title: "A"}}
	s := NewSnapshot(Partial{FieldItems: items})

	items[0].Title = "mutated"
	assert.Equal(t, "A", s.Items()[0].Title, "constructor input must be copied")

	got := s.Items()
	got[0].Title = "mutated"
	assert.Equal(t, "A", s.Items()[0].Title, "accessor output must be a copy")

	fields := s.Fields()
	fields[FieldItems].([]Item)[0].Title = "mutated"
	assert.Equal(t, "A", s.Items()[0].Title, "Fields output must be a copy")

	next := s.Merge(Partial{FieldItems: items})
	items[0].Title = "again"
	assert.Equal(t, "mutated", next.Items()[0].Title, "merged input must be copied")
}

func TestSnapshotPick(t *testing.T) {
	s := NewSnapshot(Partial{FieldRoute: "/", FieldFilter: FilterActive})

	got := s.Pick(FieldFilter, FieldSearch)

	assert.Equal(t, Partial{FieldFilter: FilterActive}, got)
}

func TestSnapshotSupersede(t *testing.T) {
	cur := NewSnapshot(Partial{FieldRoute: "/", FieldStatus: StatusError}).Merge(Partial{})
	base := NewSnapshot(Partial{FieldRoute: "/"})

	got := cur.Supersede(base)

	assert.Equal(t, cur.Version()+1, got.Version())
	assert.False(t, got.Has(FieldStatus))
}

func TestSnapshotAccessorsOnMissingFields(t *testing.T) {
	var s Snapshot
	assert.True(t, s.IsZero())
	assert.Equal(t, "", s.Route())
	assert.False(t, s.SelectedOnly())
	assert.NotNil(t, s.Items())
	assert.Empty(t, s.Items())
	assert.False(t, s.Confirm().Pending())

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))
}

func TestSnapshotMarshalJSON(t *testing.T) {
	s := NewSnapshot(Partial{
		FieldRoute: "/todos",
		FieldItems: []Item{{ID: 2, Title: "B", Completed: true}},
	})

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"route":"/todos","items":[{"id":2,"title":"B","completed":true}]}`, string(out))
}
