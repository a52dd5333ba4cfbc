package types

import "errors"

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrSyncStrategyUnknown = errors.New("unknown sync strategy")
	ErrHistoryDepth        = errors.New("history depth must not be negative")
)

// Schema errors. Returned by Schema.Validate and by a strict Store.
var (
	ErrUnknownField = errors.New("unknown state field")
	ErrFieldType    = errors.New("state field has wrong type")
)

// Intent errors.
var (
	ErrItemNotFound     = errors.New("item not found")
	ErrEmptyTitle       = errors.New("title must not be empty")
	ErrNoPendingConfirm = errors.New("no pending confirmation")
	ErrConfirmPending   = errors.New("another confirmation is pending")
)

// Loader errors.
var (
	ErrStale        = errors.New("response superseded by a newer request")
	ErrLoadInFlight = errors.New("a load is already in flight")
	ErrNoSourceURL  = errors.New("no source URL to load")
)
