package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/statekit/internal/app"
	"github.com/mesh-intelligence/statekit/internal/tui"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var exclusive bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if !stdoutIsTerminal() {
				return userError("run needs a terminal; use view and the item commands instead")
			}
			s, err := openSession(flags, nil, app.WithExclusiveLoads(exclusive))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); cerr != nil && err == nil {
					err = sysError("close: %w", cerr)
				}
			}()
			if err := tui.Run(cmd.Context(), s.app); err != nil {
				return sysError("%w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&exclusive, "exclusive-loads", false, "ignore reloads while one is in flight")
	return cmd
}

// stdoutIsTerminal is replaced in tests.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
