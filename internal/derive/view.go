// Package derive computes view models from snapshots. Everything here is
// pure: the same snapshot always yields an equal view model and nothing
// returned aliases the snapshot.
package derive

import (
	"sort"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Counts summarizes the full item list.
type Counts struct {
	Total     int
	Active    int
	Completed int
}

// Selection summarizes bulk selection. All, None and Some drive a
// tri-state master checkbox.
type Selection struct {
	Total    int
	Selected int
	All      bool
	None     bool
	Some     bool
}

// ViewModel is everything a renderer needs. It is never stored.
type ViewModel struct {
	Route        string
	Filter       string
	Search       string
	Category     string
	SelectedOnly bool
	Visible      []types.Item
	Counts       Counts
	Selection    Selection
	Categories   []string
	Status       string
	Error        string
	Notice       string
	Confirm      types.Confirmation
	Empty        bool
}

// Derive computes the view model for s.
func Derive(s types.Snapshot) ViewModel {
	items := s.Items()
	filter := NormalizeFilter(s.Filter())

	visible := Visible(items,
		ByFilter(filter),
		ByCategory(s.Category()),
		BySearch(s.Search()),
		SelectedOnly(s.SelectedOnly()),
	)

	category := s.Category()
	if category == "" {
		category = types.CategoryAll
	}

	return ViewModel{
		Route:        s.Route(),
		Filter:       filter,
		Search:       s.Search(),
		Category:     category,
		SelectedOnly: s.SelectedOnly(),
		Visible:      visible,
		Counts:       CountItems(items),
		Selection:    SelectionOf(items),
		Categories:   CategoriesOf(items),
		Status:       s.Status(),
		Error:        s.ErrorMessage(),
		Notice:       s.Notice(),
		Confirm:      s.Confirm(),
		Empty:        len(visible) == 0,
	}
}

// CountItems counts total, active and completed items.
func CountItems(items []types.Item) Counts {
	c := Counts{Total: len(items)}
	for _, it := range items {
		if it.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}

// SelectionOf summarizes selected items.
func SelectionOf(items []types.Item) Selection {
	sel := Selection{Total: len(items)}
	for _, it := range items {
		if it.Selected {
			sel.Selected++
		}
	}
	sel.All = sel.Total > 0 && sel.Selected == sel.Total
	sel.None = sel.Selected == 0
	sel.Some = sel.Selected > 0 && sel.Selected < sel.Total
	return sel
}

// CategoriesOf returns the distinct non-empty categories, sorted.
func CategoriesOf(items []types.Item) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, it := range items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	sort.Strings(out)
	return out
}
