package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/statekit/pkg/statekit"
)

const modulePath = "github.com/mesh-intelligence/statekit"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the statekit version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "statekit v%s\nmodule: %s\n", statekit.Version, modulePath)
			return nil
		},
	}
}
