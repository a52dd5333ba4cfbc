package types

// KV is the local key-value store the persistence adapter writes to.
// Get reports a missing key with ok == false and a nil error.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Backend is a KV with an attach/detach lifecycle. Callers attach to a
// backend, use it, and detach when done.
type Backend interface {
	KV

	// Attach connects the backend described by config. Creates DataDir if
	// it does not exist. Returns ErrAlreadyAttached if called while
	// already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls
	// succeed. After Detach, operations return ErrDetached.
	Detach() error
}
