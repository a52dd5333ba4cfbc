package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mesh-intelligence/statekit/internal/app"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

// listOutput is the --json form of a rendered frame.
type listOutput struct {
	Location   string       `json:"location"`
	Route      string       `json:"route"`
	Filter     string       `json:"filter"`
	Category   string       `json:"category"`
	Search     string       `json:"search,omitempty"`
	Status     string       `json:"status,omitempty"`
	Error      string       `json:"error,omitempty"`
	Notice     string       `json:"notice,omitempty"`
	Total      int          `json:"total"`
	Active     int          `json:"active"`
	Completed  int          `json:"completed"`
	Categories []string     `json:"categories"`
	Items      []types.Item `json:"items"`
}

func newListOutput(f app.Frame) listOutput {
	v := f.View
	return listOutput{
		Location:   f.Location,
		Route:      v.Route,
		Filter:     v.Filter,
		Category:   v.Category,
		Search:     v.Search,
		Status:     v.Status,
		Error:      v.Error,
		Notice:     v.Notice,
		Total:      v.Counts.Total,
		Active:     v.Counts.Active,
		Completed:  v.Counts.Completed,
		Categories: v.Categories,
		Items:      v.Visible,
	}
}

// printFrame writes the visible items of f as a table, or as JSON.
func printFrame(w io.Writer, f app.Frame, jsonMode bool) error {
	if jsonMode {
		return printJSON(w, newListOutput(f))
	}
	v := f.View
	if v.Notice != "" {
		fmt.Fprintln(w, v.Notice)
	}
	if v.Error != "" {
		fmt.Fprintln(w, "error:", v.Error)
	}
	if v.Empty {
		fmt.Fprintf(w, "No items match %s.\n", f.Location)
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "DONE", "TITLE", "CATEGORY")
		for _, it := range v.Visible {
			done := " "
			if it.Completed {
				done = "x"
			}
			t.Row(strconv.FormatInt(it.ID, 10), done, it.Title, it.Category)
		}
		fmt.Fprintln(w, t.String())
	}
	fmt.Fprintf(w, "%d of %d shown, %d active, %d completed (%s)\n",
		len(v.Visible), v.Counts.Total, v.Counts.Active, v.Counts.Completed, f.Location)
	return nil
}

// parseID parses an item ID argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError("invalid item id %q", arg)
	}
	return id, nil
}
