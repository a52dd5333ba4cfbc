package derive

import (
	"strings"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Predicate reports whether an item belongs in a view.
type Predicate func(types.Item) bool

// All matches every item.
func All(types.Item) bool { return true }

// NormalizeFilter maps unknown filter values to types.FilterAll.
func NormalizeFilter(filter string) string {
	switch filter {
	case types.FilterActive, types.FilterCompleted:
		return filter
	default:
		return types.FilterAll
	}
}

// ByFilter matches on completion. Unknown filters match everything.
func ByFilter(filter string) Predicate {
	switch NormalizeFilter(filter) {
	case types.FilterActive:
		return func(it types.Item) bool { return !it.Completed }
	case types.FilterCompleted:
		return func(it types.Item) bool { return it.Completed }
	default:
		return All
	}
}

// BySearch matches titles containing term, ignoring case. An empty term
// matches everything.
func BySearch(term string) Predicate {
	if term == "" {
		return All
	}
	needle := strings.ToLower(term)
	return func(it types.Item) bool {
		return strings.Contains(strings.ToLower(it.Title), needle)
	}
}

// ByCategory matches items in category. An empty category or
// types.CategoryAll matches everything.
func ByCategory(category string) Predicate {
	if category == "" || category == types.CategoryAll {
		return All
	}
	return func(it types.Item) bool { return it.Category == category }
}

// SelectedOnly matches selected items when on is true.
func SelectedOnly(on bool) Predicate {
	if !on {
		return All
	}
	return func(it types.Item) bool { return it.Selected }
}

// And combines predicates with logical AND. With no predicates it matches
// everything.
func And(preds ...Predicate) Predicate {
	return func(it types.Item) bool {
		for _, p := range preds {
			if !p(it) {
				return false
			}
		}
		return true
	}
}

// Visible returns the items matching every predicate, in order, as a new
// slice.
func Visible(items []types.Item, preds ...Predicate) []types.Item {
	match := And(preds...)
	out := make([]types.Item, 0, len(items))
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}
