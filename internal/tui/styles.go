package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79FF"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
	colorError  = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"}
	colorOK     = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#7BD88F"}
)

var (
	brandStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).PaddingRight(2)

	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true).Foreground(colorAccent)

	graphStyle = lipgloss.NewStyle().Foreground(colorMuted).PaddingLeft(2)

	placeholderStyle = lipgloss.NewStyle().Italic(true).Foreground(colorMuted)
	failureStyle     = lipgloss.NewStyle().Foreground(colorError)
	ackStyle         = lipgloss.NewStyle().Foreground(colorOK)
	summaryStyle     = lipgloss.NewStyle().Foreground(colorMuted)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)
