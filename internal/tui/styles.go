package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	locationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tabStyle      = lipgloss.NewStyle().Padding(0, 1)
	activeTab     = tabStyle.Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("213"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
