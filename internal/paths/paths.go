// Package paths resolves the configuration and data directories used by
// the statekit CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "statekit"

// CWD-relative directory name used when nothing overrides the data dir.
const DefaultDataDirName = ".statekit-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "STATEKIT_CONFIG_DIR"
	EnvDataDir   = "STATEKIT_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// Dirs is a resolved pair of directories. Both paths are absolute.
type Dirs struct {
	Config string
	Data   string
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/statekit (fallback ~/.config/statekit)
// macOS:   ~/Library/Application Support/statekit
// Windows: %APPDATA%/statekit
func DefaultConfigDir() (string, error) {
	if platformDir.goos == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the platform data directory. ResolveDataDir
// falls back to the CWD instead; this location is selected with
// --data-dir or data_dir.
//
// Linux:   $XDG_DATA_HOME/statekit (fallback ~/.local/share/statekit)
// macOS and Windows: same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	if platformDir.goos == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	return DefaultConfigDir()
}

func xdgDir(env, homeRel string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppName), nil
}

// ResolveConfigDir applies flag > STATEKIT_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config value > STATEKIT_DATA_DIR >
// $(CWD)/.statekit-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, candidate := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if candidate != "" {
			return filepath.Abs(candidate)
		}
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// Resolve resolves both directories. configValue is the data_dir read from
// the config file found in the resolved config directory.
func Resolve(configFlag, dataFlag string, configValue func(configDir string) (string, error)) (Dirs, error) {
	configDir, err := ResolveConfigDir(configFlag)
	if err != nil {
		return Dirs{}, err
	}
	var fromConfig string
	if configValue != nil {
		if fromConfig, err = configValue(configDir); err != nil {
			return Dirs{}, err
		}
	}
	dataDir, err := ResolveDataDir(dataFlag, fromConfig)
	if err != nil {
		return Dirs{}, err
	}
	return Dirs{Config: configDir, Data: dataDir}, nil
}
