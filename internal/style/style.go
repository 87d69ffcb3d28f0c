// Package style provides semantic terminal styling using lipgloss.
//
// This package is the only place where lipgloss is imported. All styling
// is semantic (Header, Option, Error, etc.) rather than visual (RedBold, etc.).
//
// When disabled, all helpers return the input string unchanged with no ANSI codes.
package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	enabled bool

	// Pre-created styles for performance.
	// These are only used when enabled is true.
	headerStyle  lipgloss.Style
	optionStyle  lipgloss.Style
	metavarStyle lipgloss.Style
	mutedStyle   lipgloss.Style
	errorStyle   lipgloss.Style
)

// Init initializes the style package with the given enabled state. It also
// respects the NO_COLOR environment variable; if set (to any non-empty
// value), styling is disabled regardless of the enable parameter.
//
// This function should be called once from main before any output.
func Init(enable bool) {
	if os.Getenv("NO_COLOR") != "" {
		enabled = false
		return
	}

	enabled = enable
	if enabled {
		initStyles()
	}
}

// initStyles creates the lipgloss styles. Uses the ANSI 256-color palette
// regardless of TTY detection, since Init already decided whether styling
// applies.
func initStyles() {
	lipgloss.SetColorProfile(termenv.ANSI256)

	headerStyle = lipgloss.NewStyle().Bold(true)
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	metavarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
}

// Enabled returns whether styling is currently enabled.
func Enabled() bool {
	return enabled
}

// Header styles a group title in help output.
func Header(text string) string {
	if !enabled {
		return text
	}
	return headerStyle.Render(text)
}

// Option styles an option string ("-o", "--opt").
func Option(text string) string {
	if !enabled {
		return text
	}
	return optionStyle.Render(text)
}

// Metavar styles a value placeholder ("<value>").
func Metavar(text string) string {
	if !enabled {
		return text
	}
	return metavarStyle.Render(text)
}

// Muted styles secondary text such as defaults and epilogs.
func Muted(text string) string {
	if !enabled {
		return text
	}
	return mutedStyle.Render(text)
}

// Error styles diagnostic text.
func Error(text string) string {
	if !enabled {
		return text
	}
	return errorStyle.Render(text)
}
