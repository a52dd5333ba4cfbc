package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

func newStateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear the persisted state",
	}
	cmd.AddCommand(newStateShowCmd(flags), newStateClearCmd(flags))
	return cmd
}

// stateOutput is the document printed by "state show".
type stateOutput struct {
	Backend    string         `json:"backend"`
	StorageKey string         `json:"storage_key"`
	Location   string         `json:"location"`
	Version    uint64         `json:"version"`
	State      types.Snapshot `json:"state"`
}

func newStateShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the restored state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			s, f, err := startSession(flags, nil)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); cerr != nil && err == nil {
					err = sysError("close: %w", cerr)
				}
			}()
			return printJSON(cmd.OutOrStdout(), stateOutput{
				Backend:    s.cfg.Backend,
				StorageKey: s.cfg.GetStorageKey(),
				Location:   f.Location,
				Version:    f.Snapshot.Version(),
				State:      f.Snapshot,
			})
		},
	}
}

func newStateClearCmd(flags *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset to the default state and remove the persisted entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return userError("state clear is destructive; pass --yes to confirm")
			}
			return withApp(cmd, flags, func(s *session) error {
				return s.app.Reset()
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}
