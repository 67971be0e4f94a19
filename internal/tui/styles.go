package tui

import "github.com/charmbracelet/lipgloss"

// styles holds the lipgloss styles shared by the report and the viewer.
type styles struct {
	title     lipgloss.Style
	success   lipgloss.Style
	failure   lipgloss.Style
	warning   lipgloss.Style
	header    lipgloss.Style
	stepIndex lipgloss.Style
	agent     lipgloss.Style
	muted     lipgloss.Style
	box       lipgloss.Style
	footer    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 2),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")). // Green
			Bold(true),
		failure: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")), // Orange
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")). // Blue
			Bold(true),
		stepIndex: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),
		agent: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")), // Gray
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}
