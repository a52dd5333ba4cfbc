// Package app wires the store, persistence, history, router and loader
// into one application and exposes user intents. Every intent ends in at
// most one state commit, which flows to persistence, then to the render
// callbacks as a Frame.
package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/statekit/internal/derive"
	"github.com/mesh-intelligence/statekit/internal/history"
	"github.com/mesh-intelligence/statekit/internal/loader"
	"github.com/mesh-intelligence/statekit/internal/memkv"
	"github.com/mesh-intelligence/statekit/internal/persist"
	"github.com/mesh-intelligence/statekit/internal/router"
	"github.com/mesh-intelligence/statekit/internal/store"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Lifecycle errors.
var (
	ErrNotStarted     = errors.New("app is not started")
	ErrAlreadyStarted = errors.New("app is already started")
)

// Frame is what a renderer receives after every commit. UndoDepth counts
// the commits Undo can step back through.
type Frame struct {
	Snapshot  types.Snapshot
	View      derive.ViewModel
	Location  string
	NotFound  bool
	HasUndo   bool
	HasRedo   bool
	UndoDepth int
}

// App is one running application instance.
type App struct {
	cfg       types.Config
	log       *zap.Logger
	kv        types.KV
	ownedKV   types.Backend
	nav       types.Navigator
	transport types.Transport
	exclusive bool
	routes    []string

	// mu serializes intents so each read-modify-write of the item list
	// sees the previous one's result.
	mu      sync.Mutex
	started bool
	store   *store.Store
	persist *persist.Adapter
	history *history.Manager
	router  *router.Router
	loader  *loader.Loader
	unsubs  []types.Unsubscribe

	renderMu  sync.Mutex
	renderers []*renderer
	nextID    uint64
}

type renderer struct {
	id uint64
	fn func(Frame)
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger shared by every component.
func WithLogger(log *zap.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.log = log
		}
	}
}

// WithExclusiveLoads ignores new loads while one is in flight.
func WithExclusiveLoads(exclusive bool) Option {
	return func(a *App) { a.exclusive = exclusive }
}

// WithRoutes replaces the known routes.
func WithRoutes(paths ...string) Option {
	return func(a *App) { a.routes = paths }
}

// New validates config and assembles an App. A nil kv keeps state in
// memory only; a nil nav starts an in-memory history at the restored
// location; a nil transport uses HTTP.
func New(config types.Config, kv types.KV, nav types.Navigator, transport types.Transport, opts ...Option) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		cfg:       config,
		log:       zap.NewNop(),
		kv:        kv,
		nav:       nav,
		transport: transport,
		routes:    types.Routes(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.kv == nil {
		mem := memkv.NewBackend()
		memConfig := config
		memConfig.Backend = types.BackendMemory
		if err := mem.Attach(memConfig); err != nil {
			return nil, err
		}
		a.kv = mem
		a.ownedKV = mem
	}
	if a.transport == nil {
		a.transport = loader.NewHTTPTransport()
	}

	a.persist = persist.FromConfig(a.kv, config, a.log.Named("persist"))
	a.store = store.New(types.NewSnapshot(types.DefaultFields()),
		store.WithStrict(config.Strict),
		store.WithLogger(a.log.Named("store")),
	)
	a.loader = loader.New(loaderStore{a}, a.transport,
		loader.WithExclusive(a.exclusive),
		loader.WithLogger(a.log.Named("loader")),
	)
	return a, nil
}

// Start restores persisted state, reconciles it with the current location
// and renders the first frame.
func (a *App) Start() (Frame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return Frame{}, ErrAlreadyStarted
	}

	initial := types.NewSnapshot(types.DefaultFields())
	if restored, ok := a.persist.Load(); ok {
		if err := a.store.Validate(restored); err != nil {
			a.log.Warn("ignoring restored state", zap.Error(err))
		} else {
			initial = initial.Merge(restored)
			a.log.Debug("restored state", zap.Strings("fields", restored.Keys()))
		}
	}
	a.store.Replace(initial)

	if a.nav == nil {
		a.nav = router.NewMemoryNavigator(router.EncodeLocation(initial))
	}
	a.router = router.New(a.store, a.nav,
		router.WithRoutes(a.routes...),
		router.WithLogger(a.log.Named("router")),
	)

	a.unsubs = append(a.unsubs, a.store.Subscribe(a.persist.Subscriber()))
	snap, err := a.router.Init()
	if err != nil {
		return Frame{}, err
	}
	a.history = history.New(snap, a.cfg.MaxHistory)
	a.unsubs = append(a.unsubs, a.store.Subscribe(a.render))
	a.started = true

	frame := a.frame(snap)
	a.emit(frame)
	return frame, nil
}

// Close stops background work, flushes persistence and releases what New
// acquired. The App cannot be restarted.
func (a *App) Close() error {
	a.loader.Cancel()

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil
	if a.router != nil {
		a.router.Close()
	}
	err := a.persist.Close()
	if a.ownedKV != nil {
		if derr := a.ownedKV.Detach(); err == nil {
			err = derr
		}
	}
	a.started = false
	return err
}

// OnRender registers fn for every frame. Callbacks run synchronously on
// the committing goroutine and must not call intents.
func (a *App) OnRender(fn func(Frame)) types.Unsubscribe {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()
	a.nextID++
	id := a.nextID
	a.renderers = append(a.renderers, &renderer{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			a.renderMu.Lock()
			defer a.renderMu.Unlock()
			for i, r := range a.renderers {
				if r.id == id {
					a.renderers = append(a.renderers[:i:i], a.renderers[i+1:]...)
					return
				}
			}
		})
	}
}

// Frame computes the frame for the current state.
func (a *App) Frame() Frame {
	return a.frame(a.store.GetState())
}

// State returns the current snapshot.
func (a *App) State() types.Snapshot {
	return a.store.GetState()
}

// Config returns the configuration the App was built with.
func (a *App) Config() types.Config {
	return a.cfg
}

func (a *App) render(snap types.Snapshot) {
	a.emit(a.frame(snap))
}

func (a *App) emit(f Frame) {
	a.renderMu.Lock()
	rs := make([]*renderer, len(a.renderers))
	copy(rs, a.renderers)
	a.renderMu.Unlock()

	for _, r := range rs {
		r.fn(f)
	}
}

func (a *App) frame(snap types.Snapshot) Frame {
	f := Frame{
		Snapshot: snap,
		View:     derive.Derive(snap),
	}
	if a.router != nil {
		f.Location = a.router.Location()
		f.NotFound = !a.router.Known(snap.Route())
	}
	if a.history != nil {
		f.HasUndo = a.history.HasUndo()
		f.HasRedo = a.history.HasRedo()
		f.UndoDepth = a.history.Len() - 1
	}
	return f
}

// loaderStore routes loader writes through the App so a successful load
// is recorded in history and serialized with intents.
type loaderStore struct {
	a *App
}

func (s loaderStore) SetState(partial types.Partial) (types.Snapshot, error) {
	a := s.a
	a.mu.Lock()
	defer a.mu.Unlock()

	if partial[types.FieldStatus] == types.StatusSuccess {
		items, _ := partial[types.FieldItems].([]types.Item)
		partial[types.FieldNotice] = loadedNotice(len(items))
		partial[types.FieldConfirm] = types.Confirmation{}
		if a.history != nil {
			a.history.Commit(a.store.GetState().Merge(partial))
		}
	}
	return a.store.SetState(partial)
}

// Load fetches the item list from url, or from the configured source when
// url is empty. It blocks until the request finishes or is superseded.
func (a *App) Load(ctx context.Context, url string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if url == "" {
		url = a.cfg.GetSourceURL()
	}
	return a.loader.Load(ctx, url)
}

// Retry repeats the last load.
func (a *App) Retry(ctx context.Context) error {
	if err := a.ready(); err != nil {
		return err
	}
	if a.loader.LastURL() == "" {
		return a.loader.Load(ctx, a.cfg.GetSourceURL())
	}
	return a.loader.Retry(ctx)
}

// CancelLoad aborts the in-flight load. It reports whether one was
// running.
func (a *App) CancelLoad() bool {
	return a.loader.Cancel()
}

// Loading reports whether a load is in flight.
func (a *App) Loading() bool {
	return a.loader.InFlight()
}

func (a *App) ready() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return ErrNotStarted
	}
	return nil
}
