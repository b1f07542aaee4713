package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	columnTitleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#505050")).
			Padding(0, 1)

	focusedColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("#7D56F4"))

	noteStyle = lipgloss.NewStyle().Padding(0, 1)

	selectedNoteStyle = noteStyle.
				Background(lipgloss.Color("#3A3A3A"))

	authorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))

	voteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))

	participantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFAF"))
)
