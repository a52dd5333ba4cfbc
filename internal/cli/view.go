package cli

import (
	"github.com/spf13/cobra"
)

func newViewCmd(flags *rootFlags) *cobra.Command {
	var (
		filter, search, category string
		selectedOnly             bool
	)
	cmd := &cobra.Command{
		Use:   "view [location]",
		Short: "Show the list, optionally changing the view first",
		Long: "Show the visible items. A location such as \"/todos?filter=active\" is\n" +
			"navigated to first; the view flags then adjust filter, search and category.\n" +
			"The resulting view is remembered for the next run.",
		Example: "  statekit view\n  statekit view /todos?filter=completed\n  statekit view --category work --search report",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			return withApp(cmd, flags, func(s *session) error {
				a := s.app
				if len(args) == 1 {
					if _, err := a.Navigate(args[0]); err != nil {
						return err
					}
				}
				if fs.Changed("filter") {
					if err := a.SetFilter(filter); err != nil {
						return err
					}
				}
				if fs.Changed("category") {
					if err := a.SetCategory(category); err != nil {
						return err
					}
				}
				if fs.Changed("search") {
					if err := a.SetSearch(search); err != nil {
						return err
					}
				}
				if fs.Changed("selected-only") {
					if err := a.SetSelectedOnly(selectedOnly); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&filter, "filter", "f", "", "completion filter: all, active or completed")
	f.StringVarP(&search, "search", "s", "", "case-insensitive title search; empty clears it")
	f.StringVarP(&category, "category", "c", "", "category to show; \"all\" shows every category")
	f.BoolVar(&selectedOnly, "selected-only", false, "show only selected items")
	return cmd
}
