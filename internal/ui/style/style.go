// Package style provides the colors and glyphs shared by lpm's terminal output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/lpm/internal/core/domain"
)

// Palette.
var (
	Accent  = lipgloss.Color("#8B5CF6")
	Muted   = lipgloss.Color("#667085")
	Green   = lipgloss.Color("#22A06B")
	Red     = lipgloss.Color("#D93025")
	Yellow  = lipgloss.Color("#F59E0B")
	Default = lipgloss.Color("#FFFFFF")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Plus    = "+"
	Circle  = "○"
	Dash    = "-"
)

// ForStatus returns the icon and color used to render an entry outcome.
func ForStatus(status domain.EntryStatus) (string, lipgloss.Color) {
	switch status {
	case domain.EntryStatusInstalled:
		return Plus, Green
	case domain.EntryStatusCached:
		return Circle, Muted
	case domain.EntryStatusFailed:
		return Cross, Red
	case domain.EntryStatusSkipped:
		return Dash, Yellow
	default:
		return Arrow, Accent
	}
}
