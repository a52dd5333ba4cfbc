package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mesh-intelligence/statekit/internal/app"
)

// Run starts a and drives it from the terminal until the user quits or
// ctx is cancelled. The caller still owns a and must Close it.
func Run(ctx context.Context, a *app.App, opts ...tea.ProgramOption) error {
	first, err := a.Start()
	if err != nil {
		return fmt.Errorf("start app: %w", err)
	}

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, a, first), opts...)

	// Send blocks until the program reads the message, and the render
	// callback may run inside Update, so frames are handed off.
	unsub := a.OnRender(func(f app.Frame) {
		go p.Send(frameMsg{frame: f})
	})
	defer unsub()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	a.CancelLoad()
	return nil
}
