package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#2563EB") // Blue
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")
	Black     = lipgloss.Color("#000000")

	// Category colors
	CategoryDrone      = lipgloss.Color("#8B5CF6") // Violet
	CategoryArtillery  = lipgloss.Color("#F97316") // Orange
	CategoryAircraft   = lipgloss.Color("#06B6D4") // Cyan
	CategoryHelicopter = lipgloss.Color("#14B8A6") // Teal
	CategoryUnit       = lipgloss.Color("#EC4899") // Pink

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Database selector
	DatabaseActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true).
			Padding(0, 1)

	DatabaseArrow = lipgloss.NewStyle().
			Foreground(Muted)

	// Equipment rows
	RowSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	RowPresent = lipgloss.NewStyle().
			Foreground(Secondary)

	RowAbsent = lipgloss.NewStyle().
			Foreground(Muted)

	MarkPresent = "● "
	MarkAbsent  = "○ "

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(White).
			Padding(0, 1)

	// Input styles
	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningMsg = lipgloss.NewStyle().
			Foreground(Warning)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// CategoryColor returns the color for a catalog category
func CategoryColor(category string) lipgloss.Color {
	switch category {
	case "drone":
		return CategoryDrone
	case "artillery":
		return CategoryArtillery
	case "aircraft":
		return CategoryAircraft
	case "helicopter":
		return CategoryHelicopter
	case "unit":
		return CategoryUnit
	default:
		return Primary
	}
}
