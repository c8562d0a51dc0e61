// Package style provides shared UI styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Basil   = lipgloss.Color("#3F8F5A")
	Slate   = lipgloss.Color("#667085")
	Tomato  = lipgloss.Color("#D9482B")
	Saffron = lipgloss.Color("#F2A516")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Circle  = "○"
	Dot     = "●"
)
