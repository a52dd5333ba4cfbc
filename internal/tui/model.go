// Package tui renders the application in a terminal with bubbletea. The
// model owns no application state: it dispatches intents to the App and
// paints the latest Frame.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mesh-intelligence/statekit/internal/app"
	"github.com/mesh-intelligence/statekit/internal/derive"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeSearch
)

// frameMsg carries a frame pushed by the App render callback.
type frameMsg struct {
	frame app.Frame
}

// loadDoneMsg reports the end of a load started from the UI.
type loadDoneMsg struct {
	err error
}

// Model is the bubbletea model for the list screen.
type Model struct {
	ctx    context.Context
	app    *app.App
	keys   KeyMap
	help   help.Model
	input  textinput.Model
	frame  app.Frame
	cursor int
	mode   mode
	editID int64
	err    string
	width  int
}

// New builds a model showing f until the next frame arrives.
func New(ctx context.Context, a *app.App, f app.Frame) Model {
	ti := textinput.New()
	ti.CharLimit = 200
	return Model{
		ctx:   ctx,
		app:   a,
		keys:  DefaultKeyMap(),
		help:  help.New(),
		input: ti,
		frame: f,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case frameMsg:
		if msg.frame.Snapshot.Version() >= m.frame.Snapshot.Version() {
			m.frame = msg.frame
			m.clampCursor()
		}
		return m, nil

	case loadDoneMsg:
		if errors.Is(msg.err, types.ErrLoadInFlight) {
			m.err = "A load is already running."
		}
		return m.refresh(), nil

	case tea.KeyMsg:
		if m.mode != modeList {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeSearch {
			m.report(m.app.SetSearch(""))
		}
		m.mode = modeList
		m.input.Blur()
		return m.refresh(), nil

	case tea.KeyEnter:
		value := m.input.Value()
		switch m.mode {
		case modeAdd:
			_, err := m.app.Add(value, categoryForAdd(m.frame.View))
			m.report(err)
		case modeEdit:
			m.report(m.app.Edit(m.editID, value))
		case modeSearch:
			m.report(m.app.SetSearch(strings.TrimSpace(value)))
		}
		m.mode = modeList
		m.input.Blur()
		return m.refresh(), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.frame.View.Visible
	current, hasCurrent := types.Item{}, false
	if m.cursor >= 0 && m.cursor < len(visible) {
		current, hasCurrent = visible[m.cursor], true
	}
	m.err = ""

	if m.frame.View.Confirm.Pending() {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.report(m.app.Confirm())
		case key.Matches(msg, m.keys.Dismiss), msg.Type == tea.KeyEsc:
			m.report(m.app.CancelConfirm())
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m.refresh(), nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.cursor--
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case key.Matches(msg, m.keys.Toggle) && hasCurrent:
		m.report(m.app.Toggle(current.ID))
	case key.Matches(msg, m.keys.Select) && hasCurrent:
		m.report(m.app.Select(current.ID, !current.Selected))
	case key.Matches(msg, m.keys.SelectAll):
		m.report(m.app.SelectAll(!m.frame.View.Selection.All))
	case key.Matches(msg, m.keys.MoveUp) && hasCurrent:
		m.report(m.app.Move(current.ID, -1))
		m.cursor--
	case key.Matches(msg, m.keys.MoveDown) && hasCurrent:
		m.report(m.app.Move(current.ID, 1))
		m.cursor++
	case key.Matches(msg, m.keys.Add):
		return m.startInput(modeAdd, "New item: ", "")
	case key.Matches(msg, m.keys.Edit) && hasCurrent:
		m.editID = current.ID
		return m.startInput(modeEdit, "Rename: ", current.Title)
	case key.Matches(msg, m.keys.Search):
		return m.startInput(modeSearch, "Search: ", m.frame.View.Search)
	case key.Matches(msg, m.keys.Remove) && hasCurrent:
		m.report(m.app.RequestRemove(current.ID))
	case key.Matches(msg, m.keys.RemoveSelected):
		m.report(m.app.RemoveSelected())
	case key.Matches(msg, m.keys.ClearCompleted):
		m.report(m.app.ClearCompleted())
	case key.Matches(msg, m.keys.Filter):
		m.report(m.app.SetFilter(nextFilter(m.frame.View.Filter)))
	case key.Matches(msg, m.keys.Category):
		m.report(m.app.SetCategory(nextCategory(m.frame.View.Category, m.frame.View.Categories)))
	case key.Matches(msg, m.keys.SelectedOnly):
		m.report(m.app.SetSelectedOnly(!m.frame.View.SelectedOnly))
	case key.Matches(msg, m.keys.Undo):
		_, err := m.app.Undo()
		m.report(err)
	case key.Matches(msg, m.keys.Redo):
		_, err := m.app.Redo()
		m.report(err)
	case key.Matches(msg, m.keys.Reset):
		m.report(m.app.Reset())
		m.cursor = 0
	case key.Matches(msg, m.keys.Load):
		return m.refresh(), m.loadCmd(func(ctx context.Context) error { return m.app.Load(ctx, "") })
	case key.Matches(msg, m.keys.Retry):
		return m.refresh(), m.loadCmd(m.app.Retry)
	case key.Matches(msg, m.keys.CancelLoad):
		m.app.CancelLoad()
	case key.Matches(msg, m.keys.Home):
		_, err := m.app.Navigate(types.RouteHome)
		m.report(err)
	case key.Matches(msg, m.keys.Todos):
		_, err := m.app.Navigate(types.RouteTodos)
		m.report(err)
	case key.Matches(msg, m.keys.About):
		_, err := m.app.Navigate(types.RouteAbout)
		m.report(err)
	case key.Matches(msg, m.keys.Back):
		m.app.Back()
	case key.Matches(msg, m.keys.Forward):
		m.app.Forward()
	}
	return m.refresh(), nil
}

func (m Model) startInput(md mode, prompt, value string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

// loadCmd runs fn off the update loop. Frames produced by the load reach
// the model through the render callback.
func (m Model) loadCmd(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return loadDoneMsg{err: fn(ctx)}
	}
}

// refresh adopts the App's current frame so the screen reflects an
// intent without waiting for the asynchronous frame message.
func (m Model) refresh() Model {
	f := m.app.Frame()
	if f.Snapshot.Version() >= m.frame.Snapshot.Version() {
		m.frame = f
	}
	m.clampCursor()
	return m
}

func (m *Model) clampCursor() {
	n := len(m.frame.View.Visible)
	m.cursor = min(max(m.cursor, 0), max(n-1, 0))
}

func (m *Model) report(err error) {
	if err != nil {
		m.err = err.Error()
	}
}

// categoryForAdd files new items under the category being viewed.
func categoryForAdd(v derive.ViewModel) string {
	if v.Category == types.CategoryAll {
		return ""
	}
	return v.Category
}

func nextFilter(f string) string {
	switch f {
	case types.FilterAll:
		return types.FilterActive
	case types.FilterActive:
		return types.FilterCompleted
	default:
		return types.FilterAll
	}
}

func nextCategory(cur string, known []string) string {
	options := append([]string{types.CategoryAll}, known...)
	for i, c := range options {
		if c == cur {
			return options[(i+1)%len(options)]
		}
	}
	return types.CategoryAll
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	v := m.frame.View

	b.WriteString(titleStyle.Render("statekit"))
	b.WriteString("  ")
	b.WriteString(locationStyle.Render(m.frame.Location))
	b.WriteString("\n\n")

	switch {
	case m.frame.NotFound:
		b.WriteString(errorStyle.Render("404: no screen for " + v.Route))
		b.WriteString("\n")
	case v.Route == types.RouteAbout:
		b.WriteString("A single store drives this screen. Every change is persisted,\n")
		b.WriteString("the filter lives in the location, and u undoes list edits.\n")
	default:
		m.viewList(&b)
	}

	b.WriteString("\n")
	switch v.Status {
	case types.StatusLoading:
		b.WriteString(mutedStyle.Render("Loading..."))
		b.WriteString("\n")
	case types.StatusError:
		b.WriteString(errorStyle.Render("Load failed: " + v.Error))
		b.WriteString(mutedStyle.Render("  (g to retry)"))
		b.WriteString("\n")
	case types.StatusCancelled:
		b.WriteString(mutedStyle.Render("Load cancelled."))
		b.WriteString("\n")
	}
	if v.Confirm.Pending() {
		b.WriteString(promptStyle.Render(v.Confirm.Prompt + " (y/n)"))
		b.WriteString("\n")
	} else if v.Notice != "" {
		b.WriteString(noticeStyle.Render(v.Notice))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}
	if m.mode != modeList {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) viewList(b *strings.Builder) {
	v := m.frame.View

	for _, f := range []string{types.FilterAll, types.FilterActive, types.FilterCompleted} {
		if f == v.Filter {
			b.WriteString(activeTab.Render(f))
		} else {
			b.WriteString(tabStyle.Render(f))
		}
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d total, %d active, %d done",
		v.Counts.Total, v.Counts.Active, v.Counts.Completed)))
	if m.frame.UndoDepth > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf(", %d to undo", m.frame.UndoDepth)))
	}
	b.WriteString("\n")

	var scope []string
	if v.Category != types.CategoryAll {
		scope = append(scope, "category: "+v.Category)
	}
	if v.Search != "" {
		scope = append(scope, fmt.Sprintf("search: %q", v.Search))
	}
	if v.SelectedOnly {
		scope = append(scope, "selected only")
	}
	if v.Selection.Selected > 0 {
		scope = append(scope, fmt.Sprintf("%d selected", v.Selection.Selected))
	}
	if len(scope) > 0 {
		b.WriteString(mutedStyle.Render(strings.Join(scope, " | ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if v.Empty {
		b.WriteString(mutedStyle.Render("Nothing to show. Press a to add or l to load."))
		b.WriteString("\n")
		return
	}
	for i, it := range v.Visible {
		b.WriteString(renderItem(it, i == m.cursor))
		b.WriteString("\n")
	}
}

func renderItem(it types.Item, atCursor bool) string {
	caret := "  "
	if atCursor {
		caret = cursorStyle.Render("> ")
	}
	check := "[ ]"
	if it.Completed {
		check = "[x]"
	}
	mark := " "
	if it.Selected {
		mark = "*"
	}
	title := it.Title
	if it.Completed {
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s%s%s %s", caret, mark, check, title)
	if it.Category != "" {
		line += " " + categoryStyle.Render("#"+it.Category)
	}
	return line
}
