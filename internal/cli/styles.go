// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// SuccessColor indicates completed operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor flags output that needs a human decision.
	WarningColor = lipgloss.Color("#FFE66D")
	// SubtleColor de-emphasises secondary detail.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section headings.
	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	// SuccessStyle formats confirmation messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats messages that call for review.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// SubtleStyle formats supporting detail like sample labels.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)
)

// Success renders a confirmation message.
func Success(msg string) string {
	return SuccessStyle.Render(msg)
}

// Warning renders a message that needs human attention.
func Warning(msg string) string {
	return WarningStyle.Render(msg)
}

// Title renders a section heading.
func Title(msg string) string {
	return TitleStyle.Render(msg)
}

// Subtle renders secondary detail.
func Subtle(msg string) string {
	return SubtleStyle.Render(msg)
}
