package cmd

import "github.com/charmbracelet/lipgloss"

// Transcript styling for terminal output.
var (
	roleNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	turnNumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	summaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	consensusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	abortedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)
