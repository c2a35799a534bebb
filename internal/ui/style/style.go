// Package style holds the palette and status glyphs shared by the logger and renderer.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Indigo = lipgloss.Color("#5B5BD6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Amber  = lipgloss.Color("#F59E0B")
)

// Glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Arrow   = "→"
)
