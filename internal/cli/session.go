package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/statekit/internal/app"
	"github.com/mesh-intelligence/statekit/internal/paths"
	"github.com/mesh-intelligence/statekit/pkg/kv"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

// session is one opened application: config, storage and the App on top.
type session struct {
	cfg     types.Config
	dirs    paths.Dirs
	log     *zap.Logger
	backend types.Backend
	app     *app.App
}

// newLogger logs warnings to stderr, or everything with --verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}

// openSession resolves configuration, attaches the backend and builds the
// App. nav may be nil to start at the restored location. The App is not
// started.
func openSession(flags *rootFlags, nav types.Navigator, opts ...app.Option) (*session, error) {
	cfg, dirs, err := resolveConfig(flags)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(flags.verbose)
	if err != nil {
		return nil, sysError("logger: %w", err)
	}
	log.Debug("opening session",
		zap.String("backend", cfg.Backend),
		zap.String("config_dir", dirs.Config),
		zap.String("data_dir", dirs.Data),
	)

	backend, err := kv.Open(cfg)
	if err != nil {
		log.Sync()
		return nil, sysError("open storage: %w", err)
	}

	opts = append([]app.Option{app.WithLogger(log)}, opts...)
	a, err := app.New(cfg, backend, nav, nil, opts...)
	if err != nil {
		backend.Detach()
		log.Sync()
		return nil, userError("%w", err)
	}
	return &session{cfg: cfg, dirs: dirs, log: log, backend: backend, app: a}, nil
}

// startSession opens a session and starts its App.
func startSession(flags *rootFlags, nav types.Navigator, opts ...app.Option) (*session, app.Frame, error) {
	s, err := openSession(flags, nav, opts...)
	if err != nil {
		return nil, app.Frame{}, err
	}
	f, err := s.app.Start()
	if err != nil {
		s.Close()
		return nil, app.Frame{}, sysError("start: %w", err)
	}
	return s, f, nil
}

// Close flushes the App and detaches storage.
func (s *session) Close() error {
	err := s.app.Close()
	if derr := s.backend.Detach(); err == nil {
		err = derr
	}
	s.log.Sync()
	return err
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
