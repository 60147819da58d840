package tui

import "github.com/charmbracelet/lipgloss"

var (
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	quillStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	toolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

func styleFor(role string) lipgloss.Style {
	switch role {
	case "you":
		return userStyle
	case "tool":
		return toolStyle
	case "error":
		return errorStyle
	default:
		return quillStyle
	}
}
