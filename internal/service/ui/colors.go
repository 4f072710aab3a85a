package ui

import "github.com/charmbracelet/lipgloss"

// ANSI palette only, so the output reads fine on light and dark terminals.
var (
	// TitleStyle is used for section headers in help output.
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)

	// UsageStyle highlights usage lines and arguments.
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// DescStyle dims descriptions below the surrounding text.
	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	// FlagStyle marks flag names.
	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// NoticeStyle is for REPL side-channel notices (resets, tool activity).
	NoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)
