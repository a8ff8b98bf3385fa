// Package styles defines the visual styling for terminal output.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions.
var (
	Primary = lipgloss.Color("205") // Pink

	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow

	TextSecondary = lipgloss.Color("245")
)

// Theme holds styles bound to one renderer. A renderer writing to a
// non-terminal uses the ASCII profile, so every style renders plain text.
type Theme struct {
	// Total styles the label of the final total line.
	Total lipgloss.Style
	// Amount styles the total value.
	Amount lipgloss.Style
	// Warning styles the conversion warning prefix.
	Warning lipgloss.Style
	// Error styles fatal messages.
	Error lipgloss.Style
	// Muted styles secondary text such as timestamps.
	Muted lipgloss.Style
	// TableHeader styles the history table header row.
	TableHeader lipgloss.Style
}

// New builds a Theme for r.
func New(r *lipgloss.Renderer) Theme {
	return Theme{
		Total:       r.NewStyle().Bold(true),
		Amount:      r.NewStyle().Bold(true).Foreground(Success),
		Warning:     r.NewStyle().Foreground(Warning),
		Error:       r.NewStyle().Foreground(Error),
		Muted:       r.NewStyle().Foreground(TextSecondary),
		TableHeader: r.NewStyle().Bold(true).Foreground(Primary),
	}
}
