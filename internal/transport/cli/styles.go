package cli

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// assistant replies and tool traces in the chat
	ReplyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)
