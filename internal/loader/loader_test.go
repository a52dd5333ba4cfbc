package loader

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/statekit/internal/fixture"
	"github.com/mesh-intelligence/statekit/internal/store"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type reply struct {
	items []types.Item
	err   error
}

// gatedTransport blocks each fetch until the test releases it. When
// honorCancel is false it ignores cancellation, like a response that was
// already on the wire.
type gatedTransport struct {
	honorCancel bool
	started     chan string

	mu    sync.Mutex
	gates map[string]chan reply
}

func newGatedTransport(honorCancel bool) *gatedTransport {
	return &gatedTransport{
		honorCancel: honorCancel,
		started:     make(chan string, 8),
		gates:       make(map[string]chan reply),
	}
}

func (g *gatedTransport) gate(url string) chan reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[url]
	if !ok {
		ch = make(chan reply, 1)
		g.gates[url] = ch
	}
	return ch
}

func (g *gatedTransport) release(url string, r reply) {
	g.gate(url) <- r
}

func (g *gatedTransport) FetchJSON(ctx context.Context, url string, out any) error {
	ch := g.gate(url)
	g.started <- url
	var done <-chan struct{}
	if g.honorCancel {
		done = ctx.Done()
	}
	select {
	case r := <-ch:
		if r.err != nil {
			return r.err
		}
		*(out.(*[]types.Item)) = r.items
		return nil
	case <-done:
		return ctx.Err()
	}
}

func newStore() *store.Store {
	return store.New(types.NewSnapshot(types.DefaultFields()))
}

func waitStarted(t *testing.T, g *gatedTransport, url string) {
	t.Helper()
	select {
	case got := <-g.started:
		require.Equal(t, url, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch of %s never started", url)
	}
}

func TestLoadSuccess(t *testing.T) {
	s := newStore()
	g := newGatedTransport(true)
	l := New(s, g, WithLogger(zaptest.NewLogger(t)))

	var statuses []string
	s.Subscribe(func(snap types.Snapshot) { statuses = append(statuses, snap.Status()) })

	g.release("a", reply{items: []types.Item{{ID: 1, Title: "one"}}})
	require.NoError(t, l.Load(context.Background(), "a"))

	got := s.GetState()
	assert.Equal(t, types.StatusSuccess, got.Status())
	assert.Equal(t, []types.Item{{ID: 1, Title: "one"}}, got.Items())
	assert.Equal(t, []string{types.StatusLoading, types.StatusSuccess}, statuses)
	assert.False(t, l.InFlight())
}

func TestLatestRequestWins(t *testing.T) {
	s := newStore()
	g := newGatedTransport(false)
	l := New(s, g)

	errA := make(chan error, 1)
	go func() { errA <- l.Load(context.Background(), "a") }()
	waitStarted(t, g, "a")

	errB := make(chan error, 1)
	go func() { errB <- l.Load(context.Background(), "b") }()
	waitStarted(t, g, "b")

	g.release("b", reply{items: []types.Item{{ID: 2, Title: "from b"}}})
	require.NoError(t, <-errB)

	g.release("a", reply{items: []types.Item{{ID: 1, Title: "from a"}}})
	require.ErrorIs(t, <-errA, types.ErrStale)

	got := s.GetState()
	assert.Equal(t, types.StatusSuccess, got.Status())
	assert.Equal(t, []types.Item{{ID: 2, Title: "from b"}}, got.Items())
}

func TestNewRequestCancelsPrevious(t *testing.T) {
	s := newStore()
	g := newGatedTransport(true)
	l := New(s, g)

	errA := make(chan error, 1)
	go func() { errA <- l.Load(context.Background(), "a") }()
	waitStarted(t, g, "a")

	errB := make(chan error, 1)
	go func() { errB <- l.Load(context.Background(), "b") }()
	waitStarted(t, g, "b")

	require.ErrorIs(t, <-errA, types.ErrStale, "superseded request is dropped, not reported as cancelled")
	assert.Equal(t, types.StatusLoading, s.GetState().Status())

	g.release("b", reply{items: []types.Item{}})
	require.NoError(t, <-errB)
	assert.Equal(t, types.StatusSuccess, s.GetState().Status())
}

func TestCancel(t *testing.T) {
	s := newStore()
	g := newGatedTransport(true)
	l := New(s, g)

	assert.False(t, l.Cancel(), "nothing in flight")

	errc := make(chan error, 1)
	go func() { errc <- l.Load(context.Background(), "a") }()
	waitStarted(t, g, "a")
	require.True(t, l.InFlight())

	require.True(t, l.Cancel())
	err := <-errc

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, types.StatusCancelled, s.GetState().Status())
	assert.False(t, l.InFlight())
}

func TestLoadErrorSetsMessage(t *testing.T) {
	s := newStore()
	g := newGatedTransport(true)
	l := New(s, g)

	g.release("a", reply{err: &StatusError{Code: 503, URL: "a"}})
	err := l.Load(context.Background(), "a")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	got := s.GetState()
	assert.Equal(t, types.StatusError, got.Status())
	assert.Equal(t, Message(se), got.ErrorMessage())
}

// refusingStore rejects any write that would set status to refuse.
type refusingStore struct {
	*store.Store
	refuse string
	err    error
}

func (r *refusingStore) SetState(p types.Partial) (types.Snapshot, error) {
	if p[types.FieldStatus] == r.refuse {
		return types.Snapshot{}, r.err
	}
	return r.Store.SetState(p)
}

func TestRejectedWriteIsLoggedAndReturned(t *testing.T) {
	errRejected := errors.New("rejected")
	s := &refusingStore{Store: newStore(), refuse: types.StatusSuccess, err: errRejected}
	g := newGatedTransport(true)
	core, logs := observer.New(zap.WarnLevel)
	l := New(s, g, WithLogger(zap.New(core)))

	g.release("a", reply{items: []types.Item{{ID: 1, Title: "one"}}})
	err := l.Load(context.Background(), "a")

	require.ErrorIs(t, err, errRejected)
	entries := logs.FilterMessage("state update rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, types.StatusLoading, s.GetState().Status())
	assert.False(t, l.InFlight())
}

func TestExclusiveIgnoresSecondLoad(t *testing.T) {
	s := newStore()
	g := newGatedTransport(true)
	l := New(s, g, WithExclusive(true))

	errc := make(chan error, 1)
	go func() { errc <- l.Load(context.Background(), "a") }()
	waitStarted(t, g, "a")

	require.ErrorIs(t, l.Load(context.Background(), "b"), types.ErrLoadInFlight)

	g.release("a", reply{items: []types.Item{{ID: 1}}})
	require.NoError(t, <-errc)
	assert.Equal(t, "a", l.LastURL())
}

func TestRetryRepeatsLastURL(t *testing.T) {
	s := newStore()
	g := newGatedTransport(true)
	l := New(s, g)

	require.ErrorIs(t, l.Retry(context.Background()), types.ErrNoSourceURL)

	g.release("a", reply{err: errors.New("connection refused")})
	require.Error(t, l.Load(context.Background(), "a"))
	assert.Equal(t, types.StatusError, s.GetState().Status())

	g.release("a", reply{items: []types.Item{{ID: 3}}})
	require.NoError(t, l.Retry(context.Background()))
	assert.Equal(t, types.StatusSuccess, s.GetState().Status())
	assert.Empty(t, s.GetState().ErrorMessage())
}

func TestHTTPTransportAgainstFixture(t *testing.T) {
	srv := httptest.NewServer(fixture.Handler(nil, nil))
	defer srv.Close()

	s := newStore()
	tr := &HTTPTransport{Client: srv.Client(), Timeout: 5 * time.Second}
	l := New(s, tr)

	require.NoError(t, l.Load(context.Background(), srv.URL+"/todos?_limit=4"))
	assert.Len(t, s.GetState().Items(), 4)

	err := l.Load(context.Background(), srv.URL+"/todos?fail=500")
	require.Error(t, err)
	assert.Equal(t, "The server had a problem. Try again later.", s.GetState().ErrorMessage())
	assert.Len(t, s.GetState().Items(), 4, "a failed load keeps the previous list")

	require.Error(t, l.Load(context.Background(), srv.URL+"/todos?fail=404"))
	assert.Contains(t, s.GetState().ErrorMessage(), "could not be processed")
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Contains(t, Message(&StatusError{Code: 502}), "server had a problem")
	assert.Contains(t, Message(&StatusError{Code: 400}), "HTTP 400")
	assert.Contains(t, Message(context.DeadlineExceeded), "too long")
	assert.Contains(t, Message(ErrDecode), "could not be read")
	assert.Contains(t, Message(errors.New("dial tcp")), "Could not reach")
}
