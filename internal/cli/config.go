package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/statekit/internal/paths"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "STATEKIT"

	// defaultBackend is what a fresh config.yaml selects.
	defaultBackend = types.BackendSQLite
)

// Config keys. They match the mapstructure tags of types.Config.
const (
	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyStorageKey    = "storage_key"
	cfgKeyPersistFields = "persist_fields"
	cfgKeySyncStrategy  = "sync_strategy"
	cfgKeyMaxHistory    = "max_history"
	cfgKeyUndoFilter    = "undo_filter"
	cfgKeyStrict        = "strict"
	cfgKeySourceURL     = "source_url"
)

// configFile is the document written to config.yaml on first run.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	SyncStrategy string `yaml:"sync_strategy"`
	MaxHistory   int    `yaml:"max_history"`
	UndoFilter   bool   `yaml:"undo_filter"`
	Strict       bool   `yaml:"strict"`
	SourceURL    string `yaml:"source_url"`
}

const configHeader = "# statekit configuration\n# Every key can be overridden with a STATEKIT_<KEY> environment variable.\n\n"

// loadConfig reads config.yaml from configDir. A missing file yields the
// defaults. Environment variables override the file.
func loadConfig(configDir string) (types.Config, error) {
	v := viper.New()
	def := types.DefaultConfig()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyStorageKey, def.StorageKey)
	v.SetDefault(cfgKeyPersistFields, types.DefaultPersistFields)
	v.SetDefault(cfgKeySyncStrategy, def.SyncStrategy)
	v.SetDefault(cfgKeyMaxHistory, def.MaxHistory)
	v.SetDefault(cfgKeyUndoFilter, false)
	v.SetDefault(cfgKeyStrict, false)
	v.SetDefault(cfgKeySourceURL, def.SourceURL)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// resolveConfig loads the configuration and applies the directory and
// backend flags on top of it.
func resolveConfig(flags *rootFlags) (types.Config, paths.Dirs, error) {
	var cfg types.Config
	dirs, err := paths.Resolve(flags.configDir, flags.dataDir, func(configDir string) (string, error) {
		loaded, err := loadConfig(configDir)
		if err != nil {
			return "", err
		}
		cfg = loaded
		return loaded.DataDir, nil
	})
	if err != nil {
		return types.Config{}, paths.Dirs{}, err
	}
	cfg.DataDir = dirs.Data
	if flags.backend != "" {
		cfg.Backend = flags.backend
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, paths.Dirs{}, userError("config: %w", err)
	}
	return cfg, dirs, nil
}

// writeConfigIfMissing creates config.yaml and its directory with default
// values. An existing file is left alone.
func writeConfigIfMissing(path, dataDir string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	def := types.DefaultConfig()
	data, err := yaml.Marshal(&configFile{
		Backend:      defaultBackend,
		DataDir:      dataDir,
		SyncStrategy: def.SyncStrategy,
		MaxHistory:   def.MaxHistory,
		SourceURL:    def.SourceURL,
	})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
