package types

import "fmt"

// Config holds backend selection and state-core policies.
type Config struct {
	Backend       string   `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir       string   `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	StorageKey    string   `json:"storage_key" yaml:"storage_key" mapstructure:"storage_key"`
	PersistFields []string `json:"persist_fields" yaml:"persist_fields" mapstructure:"persist_fields"`
	SyncStrategy  string   `json:"sync_strategy" yaml:"sync_strategy" mapstructure:"sync_strategy"`
	MaxHistory    int      `json:"max_history" yaml:"max_history" mapstructure:"max_history"`
	UndoFilter    bool     `json:"undo_filter" yaml:"undo_filter" mapstructure:"undo_filter"`
	Strict        bool     `json:"strict" yaml:"strict" mapstructure:"strict"`
	SourceURL     string   `json:"source_url" yaml:"source_url" mapstructure:"source_url"`
}

// Supported backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Persistence sync strategies.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
)

// Defaults applied by the Get* accessors.
const (
	DefaultStorageKey = "statekit-state"
	DefaultMaxHistory = 50
	DefaultSourceURL  = "https://jsonplaceholder.typicode.com/todos?_limit=12"
)

// DefaultPersistFields lists the fields saved when Config.PersistFields is
// empty. Status, error and notice are ephemeral and never persisted.
var DefaultPersistFields = []string{FieldItems, FieldFilter, FieldSearch, FieldCategory}

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMemory: true,
	BackendFile:   true,
	BackendSQLite: true,
	BackendBolt:   true,
}

// DefaultConfig returns a Config using the file backend in the current
// directory.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendFile,
		StorageKey:   DefaultStorageKey,
		SyncStrategy: SyncImmediate,
		MaxHistory:   DefaultMaxHistory,
		SourceURL:    DefaultSourceURL,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return fmt.Errorf("%w: %q", ErrBackendUnknown, c.Backend)
	}
	switch c.SyncStrategy {
	case "", SyncImmediate, SyncOnClose:
	default:
		return fmt.Errorf("%w: %q", ErrSyncStrategyUnknown, c.SyncStrategy)
	}
	if c.MaxHistory < 0 {
		return ErrHistoryDepth
	}
	schema := DefaultSchema()
	for _, f := range c.PersistFields {
		if _, ok := schema[f]; !ok {
			return fmt.Errorf("persist_fields: %w: %q", ErrUnknownField, f)
		}
	}
	return nil
}

// GetStorageKey returns the storage key, defaulting to DefaultStorageKey.
func (c Config) GetStorageKey() string {
	if c.StorageKey == "" {
		return DefaultStorageKey
	}
	return c.StorageKey
}

// GetPersistFields returns the persisted fields, defaulting to
// DefaultPersistFields.
func (c Config) GetPersistFields() []string {
	if len(c.PersistFields) == 0 {
		return append([]string(nil), DefaultPersistFields...)
	}
	return append([]string(nil), c.PersistFields...)
}

// GetSyncStrategy returns the sync strategy, defaulting to SyncImmediate.
func (c Config) GetSyncStrategy() string {
	if c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetSourceURL returns the remote list URL, defaulting to DefaultSourceURL.
func (c Config) GetSourceURL() string {
	if c.SourceURL == "" {
		return DefaultSourceURL
	}
	return c.SourceURL
}
