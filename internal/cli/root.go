// Package cli implements the statekit command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/statekit/pkg/statekit"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// rootFlags holds global flag values for one command tree.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
	verbose   bool
}

// NewRootCmd creates the top-level "statekit" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "statekit",
		Short:         "A client-side state store with URL sync, undo and persistence",
		Long:          "statekit keeps a todo list in a single state store, persists it to a local\nkey-value backend and drives it from the terminal or the command line.",
		Version:       statekit.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.statekit-db)")
	pf.StringVar(&flags.backend, "backend", "", "storage backend: memory, file, sqlite or bolt (overrides config)")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(flags),
		newStateCmd(flags),
		newViewCmd(flags),
		newAddCmd(flags),
		newToggleCmd(flags),
		newSelectCmd(flags),
		newEditCmd(flags),
		newRemoveCmd(flags),
		newClearCompletedCmd(flags),
		newFetchCmd(flags),
		newRunCmd(flags),
		newServeCmd(flags),
	)
	return root
}

// Execute runs the root command with os.Args and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "statekit:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
