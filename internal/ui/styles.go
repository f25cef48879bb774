package ui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles shared by the report and the viewer.
type Styles struct {
	Title     lipgloss.Style
	Section   lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Highlight lipgloss.Style
	Border    lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
	Panel     lipgloss.Style
}

var (
	primaryColor   = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#60A5FA"}
	secondaryColor = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	accentColor    = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A855F7"}
	successColor   = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"}
	errorColor     = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	borderColor    = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}
)

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(primaryColor),
		Section:   lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginTop(1),
		Label:     lipgloss.NewStyle().Foreground(secondaryColor),
		Value:     lipgloss.NewStyle().Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(secondaryColor).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(errorColor).Bold(true),
		Success:   lipgloss.NewStyle().Foreground(successColor),
		Highlight: lipgloss.NewStyle().Foreground(primaryColor).Italic(true),
		Border:    lipgloss.NewStyle().Foreground(borderColor),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1),
		Cell:      lipgloss.NewStyle().Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1),
	}
}
