package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

func newTodoStore(opts ...Option) *Store {
	return New(types.NewSnapshot(types.Partial{
		types.FieldFilter: types.FilterAll,
		types.FieldItems:  []types.Item{},
	}), opts...)
}

func TestGetStateNeverZero(t *testing.T) {
	s := New(types.Snapshot{})
	assert.False(t, s.GetState().IsZero())
}

func TestSetStateWithoutSubscribers(t *testing.T) {
	s := newTodoStore()

	next, err := s.SetState(types.Partial{types.FieldFilter: types.FilterActive})

	require.NoError(t, err)
	assert.Equal(t, types.FilterActive, next.Filter())
	assert.Equal(t, next, s.GetState())
}

func TestSetStateNotifiesOncePerCall(t *testing.T) {
	s := newTodoStore()
	var seen []types.Snapshot
	s.Subscribe(func(snap types.Snapshot) { seen = append(seen, snap) })

	first, _ := s.SetState(types.Partial{types.FieldFilter: types.FilterActive, types.FieldSearch: "x"})
	second, _ := s.SetState(types.Partial{})

	require.Len(t, seen, 2)
	assert.Equal(t, first.Version(), seen[0].Version())
	assert.Equal(t, second.Version(), seen[1].Version())
	assert.NotEqual(t, first.Version(), second.Version(), "every call yields a new snapshot")
}

func TestSetStateMergesInOrder(t *testing.T) {
	s := newTodoStore()
	partials := []types.Partial{
		{types.FieldItems: []types.Item{{ID: 1, Title: "A"}}},
		{types.FieldFilter: types.FilterCompleted, types.FieldStatus: types.StatusLoading},
		{types.FieldStatus: types.StatusSuccess},
		{types.FieldItems: []types.Item{{ID: 1, Title: "A"}, {ID: 2, Title: "B", Completed: true}}},
	}

	want := s.GetState().Fields()
	for _, p := range partials {
		_, err := s.SetState(p)
		require.NoError(t, err)
		for k, v := range p {
			want[k] = v
		}
	}

	if diff := cmp.Diff(want, s.GetState().Fields()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestPermissiveModeAcceptsUnknownFields(t *testing.T) {
	s := newTodoStore()

	next, err := s.SetState(types.Partial{"theme": "dark"})

	require.NoError(t, err)
	v, ok := next.Get("theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestStrictModeRejectsInvalidPartials(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := newTodoStore(WithStrict(true), WithLogger(zap.New(core)))
	calls := 0
	s.Subscribe(func(types.Snapshot) { calls++ })
	before := s.GetState()

	_, err := s.SetState(types.Partial{"theme": "dark"})
	assert.ErrorIs(t, err, types.ErrUnknownField)

	_, err = s.SetState(types.Partial{types.FieldFilter: true})
	assert.ErrorIs(t, err, types.ErrFieldType)

	assert.Equal(t, 0, calls, "rejected updates must not render")
	assert.Equal(t, before.Version(), s.GetState().Version())
	assert.Equal(t, 2, logs.FilterMessage("rejected state update").Len())

	_, err = s.SetState(types.Partial{types.FieldFilter: types.FilterActive})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestStrictModeCustomSchema(t *testing.T) {
	s := New(types.NewSnapshot(nil), WithStrict(true), WithSchema(types.Schema{"theme": types.KindString}))

	_, err := s.SetState(types.Partial{"theme": "dark"})
	assert.NoError(t, err)

	_, err = s.SetState(types.Partial{types.FieldFilter: types.FilterAll})
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func TestUnsubscribe(t *testing.T) {
	s := newTodoStore()
	var a, b int
	unsubA := s.Subscribe(func(types.Snapshot) { a++ })
	s.Subscribe(func(types.Snapshot) { b++ })

	s.SetState(types.Partial{})
	unsubA()
	unsubA()
	s.SetState(types.Partial{})

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestSubscribersCalledInOrder(t *testing.T) {
	s := newTodoStore()
	var order []string
	s.Subscribe(func(types.Snapshot) { order = append(order, "persist") })
	s.Subscribe(func(types.Snapshot) { order = append(order, "render") })

	s.SetState(types.Partial{})

	assert.Equal(t, []string{"persist", "render"}, order)
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := newTodoStore(WithLogger(zap.New(core)))
	rendered := false
	s.Subscribe(func(types.Snapshot) { panic("boom") })
	s.Subscribe(func(types.Snapshot) { rendered = true })

	_, err := s.SetState(types.Partial{types.FieldSearch: "q"})

	require.NoError(t, err)
	assert.True(t, rendered)
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "q", s.GetState().Search())
}

func TestReplaceDropsFieldsAndNotifies(t *testing.T) {
	s := newTodoStore()
	s.SetState(types.Partial{types.FieldStatus: types.StatusError})
	var got types.Snapshot
	s.Subscribe(func(snap types.Snapshot) { got = snap })
	before := s.GetState()

	installed := s.Replace(types.NewSnapshot(types.Partial{types.FieldFilter: types.FilterAll}))

	assert.Equal(t, installed, got)
	assert.Equal(t, before.Version()+1, installed.Version())
	assert.False(t, installed.Has(types.FieldStatus))
}

func TestSubscriberSnapshotIsNotAliased(t *testing.T) {
	s := newTodoStore()
	s.Subscribe(func(snap types.Snapshot) {
		items := snap.Items()
		if len(items) > 0 {
			items[0].Title = "mutated by renderer"
		}
	})

	s.SetState(types.Partial{types.FieldItems: []types.Item{{ID: 1, Title: "A"}}})

	assert.Equal(t, "A", s.GetState().Items()[0].Title)
}
