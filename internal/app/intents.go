package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/statekit/internal/derive"
	"github.com/mesh-intelligence/statekit/internal/router"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

// listFields are restored by undo and redo.
var listFields = []string{types.FieldItems}

// viewFields join listFields when filter changes are undoable.
var viewFields = []string{types.FieldFilter, types.FieldSearch, types.FieldCategory}

// apply commits partial as one state change. When record is set the
// resulting snapshot is pushed to history before anything renders.
// Callers hold a.mu.
func (a *App) apply(partial types.Partial, record bool) (types.Snapshot, error) {
	if !a.started {
		return types.Snapshot{}, ErrNotStarted
	}
	if record {
		if err := a.store.Validate(partial); err != nil {
			return a.store.GetState(), err
		}
		a.history.Commit(a.store.GetState().Merge(partial))
	}
	snap, _, err := a.router.Apply(partial)
	return snap, err
}

// Add appends a new item and returns it.
func (a *App) Add(title, category string) (types.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.Item{}, types.ErrEmptyTitle
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	items := a.store.GetState().Items()
	it := types.Item{
		ID:       nextID(items),
		Title:    title,
		Category: strings.TrimSpace(category),
	}
	_, err := a.apply(types.Partial{
		types.FieldItems:  append(items, it),
		types.FieldNotice: fmt.Sprintf("Added %q.", title),
	}, true)
	return it, err
}

// Toggle flips the completed flag of an item.
func (a *App) Toggle(id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	items := a.store.GetState().Items()
	i := indexOf(items, id)
	if i < 0 {
		return fmt.Errorf("%w: %d", types.ErrItemNotFound, id)
	}
	items[i].Completed = !items[i].Completed
	notice := fmt.Sprintf("Marked %q active.", items[i].Title)
	if items[i].Completed {
		notice = fmt.Sprintf("Marked %q completed.", items[i].Title)
	}
	_, err := a.apply(types.Partial{
		types.FieldItems:  items,
		types.FieldNotice: notice,
	}, true)
	return err
}

// Edit renames an item.
func (a *App) Edit(id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.ErrEmptyTitle
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	items := a.store.GetState().Items()
	i := indexOf(items, id)
	if i < 0 {
		return fmt.Errorf("%w: %d", types.ErrItemNotFound, id)
	}
	if items[i].Title == title {
		return nil
	}
	items[i].Title = title
	_, err := a.apply(types.Partial{
		types.FieldItems:  items,
		types.FieldNotice: "Item renamed.",
	}, true)
	return err
}

// Move shifts an item by delta positions among the visible items, clamped
// to the visible bounds. Hidden items keep their places. An item that is
// not visible moves within the full list.
func (a *App) Move(id int64, delta int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.store.GetState()
	items := cur.Items()
	from := indexOf(items, id)
	if from < 0 {
		return fmt.Errorf("%w: %d", types.ErrItemNotFound, id)
	}
	order := derive.Derive(cur).Visible
	pos := indexOf(order, id)
	if pos < 0 {
		order, pos = items, from
	}
	target := min(max(pos+delta, 0), len(order)-1)
	if target == pos {
		return nil
	}
	anchor := order[target].ID

	it := items[from]
	items = slices.Delete(items, from, from+1)
	at := indexOf(items, anchor)
	if delta > 0 {
		at++
	}
	items = slices.Insert(items, at, it)
	_, err := a.apply(types.Partial{
		types.FieldItems:  items,
		types.FieldNotice: "",
	}, true)
	return err
}

// Select sets the selection flag of one item.
func (a *App) Select(id int64, selected bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	items := a.store.GetState().Items()
	i := indexOf(items, id)
	if i < 0 {
		return fmt.Errorf("%w: %d", types.ErrItemNotFound, id)
	}
	if items[i].Selected == selected {
		return nil
	}
	items[i].Selected = selected
	_, err := a.apply(types.Partial{types.FieldItems: items}, true)
	return err
}

// SelectAll sets the selection flag of every visible item. Hidden items
// keep their flag.
func (a *App) SelectAll(selected bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.store.GetState()
	visible := make(map[int64]bool)
	for _, it := range derive.Derive(cur).Visible {
		visible[it.ID] = true
	}
	items := cur.Items()
	changed := false
	for i := range items {
		if visible[items[i].ID] && items[i].Selected != selected {
			items[i].Selected = selected
			changed = true
		}
	}
	if !changed {
		return nil
	}
	_, err := a.apply(types.Partial{types.FieldItems: items}, true)
	return err
}

// RequestRemove asks for confirmation before removing an item.
func (a *App) RequestRemove(id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.store.GetState()
	if cur.Confirm().Pending() {
		return types.ErrConfirmPending
	}
	items := cur.Items()
	i := indexOf(items, id)
	if i < 0 {
		return fmt.Errorf("%w: %d", types.ErrItemNotFound, id)
	}
	_, err := a.apply(types.Partial{
		types.FieldConfirm: types.Confirmation{
			Action: types.ActionRemove,
			ItemID: id,
			Prompt: fmt.Sprintf("Remove %q?", items[i].Title),
		},
	}, false)
	return err
}

// RemoveSelected asks for confirmation before removing every selected
// item.
func (a *App) RemoveSelected() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.store.GetState()
	if cur.Confirm().Pending() {
		return types.ErrConfirmPending
	}
	n := derive.SelectionOf(cur.Items()).Selected
	if n == 0 {
		return fmt.Errorf("%w: nothing selected", types.ErrItemNotFound)
	}
	_, err := a.apply(types.Partial{
		types.FieldConfirm: types.Confirmation{
			Action: types.ActionRemoveSelected,
			Prompt: fmt.Sprintf("Remove %s?", plural(n, "selected item")),
		},
	}, false)
	return err
}

// ClearCompleted asks for confirmation before removing every completed
// item.
func (a *App) ClearCompleted() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.store.GetState()
	if cur.Confirm().Pending() {
		return types.ErrConfirmPending
	}
	n := derive.CountItems(cur.Items()).Completed
	if n == 0 {
		return fmt.Errorf("%w: nothing completed", types.ErrItemNotFound)
	}
	_, err := a.apply(types.Partial{
		types.FieldConfirm: types.Confirmation{
			Action: types.ActionClearCompleted,
			Prompt: fmt.Sprintf("Remove %s?", plural(n, "completed item")),
		},
	}, false)
	return err
}

// Confirm carries out the pending destructive action.
func (a *App) Confirm() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.store.GetState()
	c := cur.Confirm()
	if !c.Pending() {
		return types.ErrNoPendingConfirm
	}

	var keep func(types.Item) bool
	switch c.Action {
	case types.ActionRemove:
		keep = func(it types.Item) bool { return it.ID != c.ItemID }
	case types.ActionRemoveSelected:
		keep = func(it types.Item) bool { return !it.Selected }
	case types.ActionClearCompleted:
		keep = func(it types.Item) bool { return !it.Completed }
	default:
		_, err := a.apply(types.Partial{types.FieldConfirm: types.Confirmation{}}, false)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: unknown action %q", types.ErrNoPendingConfirm, c.Action)
	}

	items := cur.Items()
	kept := derive.Visible(items, keep)
	_, err := a.apply(types.Partial{
		types.FieldItems:   kept,
		types.FieldConfirm: types.Confirmation{},
		types.FieldNotice:  fmt.Sprintf("Removed %s.", plural(len(items)-len(kept), "item")),
	}, true)
	return err
}

// CancelConfirm dismisses the pending confirmation.
func (a *App) CancelConfirm() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.store.GetState().Confirm().Pending() {
		return types.ErrNoPendingConfirm
	}
	_, err := a.apply(types.Partial{
		types.FieldConfirm: types.Confirmation{},
		types.FieldNotice:  "Cancelled.",
	}, false)
	return err
}

// SetFilter changes the completion filter. The location follows.
func (a *App) SetFilter(filter string) error {
	return a.setView(types.FieldFilter, filter)
}

// SetSearch changes the search term. The location follows.
func (a *App) SetSearch(term string) error {
	return a.setView(types.FieldSearch, term)
}

// SetCategory changes the category filter. The location follows.
func (a *App) SetCategory(category string) error {
	if category == "" {
		category = types.CategoryAll
	}
	return a.setView(types.FieldCategory, category)
}

func (a *App) setView(field, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store.GetState().Text(field) == value {
		return nil
	}
	_, err := a.apply(types.Partial{field: value}, a.cfg.UndoFilter)
	return err
}

// SetSelectedOnly restricts the view to selected items.
func (a *App) SetSelectedOnly(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, err := a.apply(types.Partial{types.FieldSelectedOnly: on}, false)
	return err
}

// Navigate moves to target. Navigation is never recorded in history.
func (a *App) Navigate(target string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return false, ErrNotStarted
	}
	_, changed, err := a.router.Navigate(target)
	return changed, err
}

type historyWalker interface {
	Back() bool
	Forward() bool
}

// Back moves one navigation entry back when the navigator supports it.
func (a *App) Back() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if w, ok := a.nav.(historyWalker); ok && a.started {
		return w.Back()
	}
	return false
}

// Forward moves one navigation entry forward when the navigator supports
// it.
func (a *App) Forward() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if w, ok := a.nav.(historyWalker); ok && a.started {
		return w.Forward()
	}
	return false
}

// Undo restores the previous committed list. It reports false when there
// is nothing to undo.
func (a *App) Undo() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return false, ErrNotStarted
	}
	prev, ok := a.history.Undo()
	if !ok {
		return false, nil
	}
	_, err := a.restore(prev, "Undone.")
	return true, err
}

// Redo re-applies the most recently undone commit.
func (a *App) Redo() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return false, ErrNotStarted
	}
	next, ok := a.history.Redo()
	if !ok {
		return false, nil
	}
	_, err := a.restore(next, "Redone.")
	return true, err
}

func (a *App) restore(s types.Snapshot, notice string) (types.Snapshot, error) {
	fields := listFields
	if a.cfg.UndoFilter {
		fields = append(append([]string{}, listFields...), viewFields...)
	}
	partial := s.Pick(fields...)
	partial[types.FieldConfirm] = types.Confirmation{}
	partial[types.FieldNotice] = notice
	return a.apply(partial, false)
}

// Reset returns to the default state and removes the persisted entry. The
// current route is kept and history collapses to the new state.
func (a *App) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return ErrNotStarted
	}
	partial := types.DefaultFields()
	delete(partial, types.FieldRoute)
	partial[types.FieldNotice] = "Reset to defaults."
	a.history.Rebase(a.store.GetState().Merge(partial))
	if _, err := a.apply(partial, false); err != nil {
		return err
	}
	a.persist.Clear()
	return nil
}

// Location returns the current location.
func (a *App) Location() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.router == nil {
		return router.EncodeLocation(a.store.GetState())
	}
	return a.router.Location()
}

func indexOf(items []types.Item, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func nextID(items []types.Item) int64 {
	var top int64
	for _, it := range items {
		top = max(top, it.ID)
	}
	return top + 1
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func loadedNotice(n int) string {
	return fmt.Sprintf("Loaded %s.", plural(n, "item"))
}
