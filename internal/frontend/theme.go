package frontend

import (
	"charm.land/lipgloss/v2"
)

// Muted terminal palette.
var (
	primary = lipgloss.Color("#8B5CF6") // Purple
	success = lipgloss.Color("#22C55E") // Green
	failure = lipgloss.Color("#F43F5E") // Rose
	textDim = lipgloss.Color("#94A3B8") // Slate
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary)

	bodyStyle = lipgloss.NewStyle()

	hintStyle = lipgloss.NewStyle().
			Foreground(textDim).
			Italic(true)

	correctStyle = lipgloss.NewStyle().
			Foreground(success)

	wrongStyle = lipgloss.NewStyle().
			Foreground(failure)

	dimStyle = lipgloss.NewStyle().
			Foreground(textDim)
)
