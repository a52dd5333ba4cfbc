package types

import "context"

// RenderFunc receives every committed snapshot.
type RenderFunc func(Snapshot)

// Unsubscribe removes a previously registered callback. Calling it more
// than once is harmless.
type Unsubscribe func()

// Transport fetches a JSON document and decodes it into out. It must stop
// and return ctx.Err() (possibly wrapped) when ctx is cancelled.
type Transport interface {
	FetchJSON(ctx context.Context, url string, out any) error
}

// RouteEntry is one navigation history entry: a location plus the state
// fields attached to it. State is nil for entries created outside the
// router, such as a direct URL entry or a reload.
type RouteEntry struct {
	Key   string  `json:"key"`
	Path  string  `json:"path"`
	Query string  `json:"query,omitempty"`
	State Partial `json:"state,omitempty"`
}

// URL returns the path with its encoded query, if any.
func (e RouteEntry) URL() string {
	if e.Query == "" {
		return e.Path
	}
	return e.Path + "?" + e.Query
}

// Navigator is the browser-history primitive the router drives.
type Navigator interface {
	// Push adds an entry after the current one, discarding forward entries.
	Push(entry RouteEntry)

	// Replace overwrites the current entry.
	Replace(entry RouteEntry)

	// Location returns the current URL (path plus query).
	Location() string

	// OnPopState registers fn for back/forward moves. fn receives the
	// entry that became current.
	OnPopState(fn func(RouteEntry)) Unsubscribe
}
