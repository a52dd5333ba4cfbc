package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// withApp starts a session, runs fn against its App and prints the
// resulting frame. The session is always closed, which flushes state.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(s *session) error) (err error) {
	s, _, err := startSession(flags, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = sysError("close: %w", cerr)
		}
	}()
	if err := fn(s); err != nil {
		return intentError(err)
	}
	return printFrame(cmd.OutOrStdout(), s.app.Frame(), flags.jsonMode)
}

// intentError classifies an intent failure as a user or system error.
func intentError(err error) error {
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, user := range []error{
		types.ErrItemNotFound,
		types.ErrEmptyTitle,
		types.ErrConfirmPending,
		types.ErrNoPendingConfirm,
		types.ErrUnknownField,
		types.ErrFieldType,
	} {
		if errors.Is(err, user) {
			return userError("%w", err)
		}
	}
	return sysError("%w", err)
}

func newAddCmd(flags *rootFlags) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add <title>...",
		Short: "Add an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(s *session) error {
				_, err := s.app.Add(strings.Join(args, " "), category)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category for the new item")
	return cmd
}

func newToggleCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>...",
		Short: "Flip the completed flag of items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(s *session) error {
				for _, id := range ids {
					if err := s.app.Toggle(id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newEditCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title>...",
		Short: "Change the title of an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(s *session) error {
				return s.app.Edit(id, strings.Join(args[1:], " "))
			})
		},
	}
}

func newRemoveCmd(flags *rootFlags) *cobra.Command {
	var yes, selected bool
	cmd := &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove an item, or every selected item with --selected",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if selected == (len(args) == 1) {
				return userError("remove takes either an item id or --selected")
			}
			if !yes {
				return userError("remove is destructive; pass --yes to confirm")
			}
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}
			return withApp(cmd, flags, func(s *session) error {
				request := func() error { return s.app.RequestRemove(id) }
				if selected {
					request = s.app.RemoveSelected
				}
				if err := request(); err != nil {
					return err
				}
				return s.app.Confirm()
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the removal")
	cmd.Flags().BoolVar(&selected, "selected", false, "remove every selected item")
	return cmd
}

func newClearCompletedCmd(flags *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove every completed item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return userError("clear-completed is destructive; pass --yes to confirm")
			}
			return withApp(cmd, flags, func(s *session) error {
				if err := s.app.ClearCompleted(); err != nil {
					return err
				}
				return s.app.Confirm()
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the removal")
	return cmd
}

func newSelectCmd(flags *rootFlags) *cobra.Command {
	var all, unselect bool
	cmd := &cobra.Command{
		Use:   "select [id]...",
		Short: "Mark items for bulk actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return userError("select takes item ids or --all, not both")
			}
			if !all && len(args) == 0 {
				return userError("select needs at least one item id or --all")
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(s *session) error {
				if all {
					return s.app.SelectAll(!unselect)
				}
				for _, id := range ids {
					if err := s.app.Select(id, !unselect); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "apply to every visible item")
	cmd.Flags().BoolVar(&unselect, "clear", false, "unselect instead of select")
	return cmd
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
