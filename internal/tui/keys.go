package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the list-screen bindings.
type KeyMap struct {
	Up             key.Binding
	Down           key.Binding
	Toggle         key.Binding
	Select         key.Binding
	SelectAll      key.Binding
	Add            key.Binding
	Edit           key.Binding
	Remove         key.Binding
	RemoveSelected key.Binding
	ClearCompleted key.Binding
	Confirm        key.Binding
	Dismiss        key.Binding
	MoveUp         key.Binding
	MoveDown       key.Binding
	Filter         key.Binding
	Category       key.Binding
	Search         key.Binding
	SelectedOnly   key.Binding
	Undo           key.Binding
	Redo           key.Binding
	Reset          key.Binding
	Load           key.Binding
	Retry          key.Binding
	CancelLoad     key.Binding
	Home           key.Binding
	Todos          key.Binding
	About          key.Binding
	Back           key.Binding
	Forward        key.Binding
	Help           key.Binding
	Quit           key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:         key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle done")),
		Select:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "select")),
		SelectAll:      key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "select all")),
		Add:            key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:           key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Remove:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		RemoveSelected: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "remove selected")),
		ClearCompleted: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear completed")),
		Confirm:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Dismiss:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "dismiss")),
		MoveUp:         key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
		MoveDown:       key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
		Filter:         key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle filter")),
		Category:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cycle category")),
		Search:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		SelectedOnly:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "selected only")),
		Undo:           key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Redo:           key.NewBinding(key.WithKeys("ctrl+r", "U"), key.WithHelp("U", "redo")),
		Reset:          key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
		Load:           key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "load")),
		Retry:          key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "retry")),
		CancelLoad:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel load")),
		Home:           key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
		Todos:          key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "todos")),
		About:          key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "about")),
		Back:           key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back")),
		Forward:        key.NewBinding(key.WithKeys("right", "L"), key.WithHelp("→", "forward")),
		Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Filter, k.Search, k.Undo, k.Load, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown, k.Toggle, k.Add, k.Edit},
		{k.Select, k.SelectAll, k.Remove, k.RemoveSelected, k.ClearCompleted, k.Confirm, k.Dismiss},
		{k.Filter, k.Category, k.Search, k.SelectedOnly, k.Undo, k.Redo, k.Reset},
		{k.Load, k.Retry, k.CancelLoad, k.Home, k.Todos, k.About, k.Back, k.Forward, k.Quit},
	}
}
