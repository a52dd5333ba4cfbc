// Package loader fetches the item list into the store with latest-wins
// semantics. Every request carries a sequence number; only the response
// to the newest request is written to state, and starting a request
// cancels the one before it.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Store is the part of the state store the loader writes to.
type Store interface {
	SetState(types.Partial) (types.Snapshot, error)
}

// Loader runs list fetches against a Transport.
//
// State updates happen while the loader lock is held so a stale response
// can never land after a newer request has set loading. Store subscribers
// must therefore not call back into the Loader synchronously.
type Loader struct {
	store     Store
	transport types.Transport
	log       *zap.Logger
	exclusive bool

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	lastURL string
	stopped bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithExclusive makes Load refuse new requests while one is in flight
// instead of superseding it.
func WithExclusive(exclusive bool) Option {
	return func(l *Loader) { l.exclusive = exclusive }
}

// New creates a Loader.
func New(store Store, transport types.Transport, opts ...Option) *Loader {
	l := &Loader{
		store:     store,
		transport: transport,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches url and writes the items to state if no newer request has
// started in the meantime. It blocks until the fetch finishes.
//
// A superseded request returns ErrStale and leaves state alone. A
// cancelled request sets status cancelled; any other failure sets status
// error with a readable message. Both return the underlying error.
func (l *Loader) Load(ctx context.Context, url string) error {
	if url == "" {
		return types.ErrNoSourceURL
	}

	l.mu.Lock()
	if l.exclusive && l.cancel != nil {
		l.mu.Unlock()
		l.log.Debug("load ignored, request in flight", zap.String("url", url))
		return types.ErrLoadInFlight
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	reqCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.lastURL = url
	l.stopped = false
	l.write(seq, types.Partial{
		types.FieldStatus: types.StatusLoading,
		types.FieldError:  "",
	})
	l.mu.Unlock()
	defer cancel()

	l.log.Debug("load started", zap.Uint64("seq", seq), zap.String("url", url))
	var items []types.Item
	fetchErr := l.transport.FetchJSON(reqCtx, url, &items)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		l.log.Debug("dropping stale response", zap.Uint64("seq", seq), zap.Uint64("latest", l.seq))
		return types.ErrStale
	}
	l.cancel = nil

	switch {
	case fetchErr == nil:
		if items == nil {
			items = []types.Item{}
		}
		if err := l.write(seq, types.Partial{
			types.FieldItems:  items,
			types.FieldStatus: types.StatusSuccess,
			types.FieldError:  "",
		}); err != nil {
			return fmt.Errorf("load %s: %w", url, err)
		}
		l.log.Debug("load finished", zap.Uint64("seq", seq), zap.Int("items", len(items)))
		return nil

	case l.stopped || errors.Is(fetchErr, context.Canceled):
		l.write(seq, types.Partial{types.FieldStatus: types.StatusCancelled})
		l.log.Debug("load cancelled", zap.Uint64("seq", seq))
		return fmt.Errorf("load %s: %w", url, fetchErr)

	default:
		l.write(seq, types.Partial{
			types.FieldStatus: types.StatusError,
			types.FieldError:  Message(fetchErr),
		})
		l.log.Warn("load failed", zap.String("url", url), zap.Error(fetchErr))
		return fmt.Errorf("load %s: %w", url, fetchErr)
	}
}

// write applies p to the store. A rejected write is logged and returned.
// The caller holds l.mu.
func (l *Loader) write(seq uint64, p types.Partial) error {
	if _, err := l.store.SetState(p); err != nil {
		l.log.Warn("state update rejected",
			zap.Uint64("seq", seq),
			zap.Strings("fields", p.Keys()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Retry repeats the last requested URL.
func (l *Loader) Retry(ctx context.Context) error {
	l.mu.Lock()
	url := l.lastURL
	l.mu.Unlock()
	return l.Load(ctx, url)
}

// Cancel aborts the in-flight request, if any. The request still finishes
// through Load, which then reports status cancelled.
func (l *Loader) Cancel() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return false
	}
	l.stopped = true
	l.cancel()
	return true
}

// InFlight reports whether a request is running.
func (l *Loader) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// LastURL returns the URL of the most recent request.
func (l *Loader) LastURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastURL
}
