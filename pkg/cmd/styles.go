package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/skillpkg/skillpkg/pkg/scan"
)

// Shared palette for CLI output, tuned for dark terminals.
const (
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorInfo)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	headingStyle = lipgloss.NewStyle().
			Bold(true)
)

// severityStyle picks the style matching a finding severity.
func severityStyle(sev scan.Severity) lipgloss.Style {
	switch sev {
	case scan.SeverityCritical:
		return errorStyle
	case scan.SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}
