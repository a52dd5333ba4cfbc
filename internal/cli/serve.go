package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/statekit/internal/fixture"
)

const defaultServeAddr = "127.0.0.1:8089"

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo list over HTTP for fetch and the terminal UI",
		Long: "Serve a demo todo list at /todos. Point source_url (or STATEKIT_SOURCE_URL)\n" +
			"at it. The endpoint honours _limit, and fail=<code> or delay=<duration>\n" +
			"to exercise error and latency handling.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(flags.verbose)
			if err != nil {
				return sysError("logger: %w", err)
			}
			defer log.Sync()

			fmt.Fprintf(cmd.OutOrStdout(), "serving demo list at http://%s/todos\n", addr)
			if err := fixture.NewServer(addr, log.Named("fixture")).Run(cmd.Context()); err != nil {
				return sysError("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	return cmd
}
