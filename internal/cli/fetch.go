package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/statekit/internal/loader"
)

func newFetchCmd(flags *rootFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "fetch [url]",
		Short: "Replace the list with one loaded from a URL",
		Long:  "Load a JSON list of items and replace the current list with it. Without a\nURL the configured source_url is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, _, err := startSession(flags, nil)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); cerr != nil && err == nil {
					err = sysError("close: %w", cerr)
				}
			}()

			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			loadErr := s.app.Load(ctx, url)
			if err := printFrame(cmd.OutOrStdout(), s.app.Frame(), flags.jsonMode); err != nil {
				return err
			}
			if loadErr != nil {
				return sysError("fetch: %s", loader.Message(loadErr))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", loader.DefaultTimeout, "give up after this long")
	return cmd
}
