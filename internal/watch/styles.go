package watch

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor = lipgloss.Color("#7D56F4") // Purple
	successColor = lipgloss.Color("#43BF6D") // Green
	warningColor = lipgloss.Color("#FFA500") // Orange
	errorColor   = lipgloss.Color("#FF0000") // Red
	subtleColor  = lipgloss.Color("#626262") // Gray
)

// Common styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	pausedStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	identStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	dataStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			PaddingTop(1)
)
