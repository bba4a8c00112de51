// Package tui provides terminal output components for docflow.
//
// All colors use lipgloss AdaptiveColor for light/dark terminal support:
//   - ColorPrimary (blue): in-progress states and headings
//   - ColorSuccess (green): completed and generated items
//   - ColorWarning (yellow): items waiting on the user
//   - ColorError (red): failures
//   - ColorMuted (gray): drafts and secondary text
//
// Call CheckNoColor at the start of commands to respect NO_COLOR and TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
)

//nolint:gochecknoglobals // Intentional package-level constants for styling API
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	StyleBold = lipgloss.NewStyle().Bold(true)
	StyleDim  = lipgloss.NewStyle().Faint(true)
)

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Header  lipgloss.Style
}

// NewOutputStyles creates common output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
	}
}

// CheckNoColor disables colors when NO_COLOR is set or TERM=dumb.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR exists in the environment (with
// any value) or TERM=dumb. See https://no-color.org/.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// TaskStatusColor returns the color of a task status.
func TaskStatusColor(status constants.TaskStatus) lipgloss.AdaptiveColor {
	switch status {
	case constants.TaskStatusInProgress:
		return ColorPrimary
	case constants.TaskStatusAwaiting:
		return ColorWarning
	case constants.TaskStatusCompleted:
		return ColorSuccess
	default:
		return ColorMuted
	}
}

// TaskStatusIcon returns the icon of a task status.
func TaskStatusIcon(status constants.TaskStatus) string {
	switch status {
	case constants.TaskStatusDraft:
		return "○"
	case constants.TaskStatusInProgress:
		return "●"
	case constants.TaskStatusAwaiting:
		return "✎"
	case constants.TaskStatusCompleted:
		return "✓"
	default:
		return "?"
	}
}

// FormatTaskStatus renders icon, color and text for a status.
func FormatTaskStatus(status constants.TaskStatus) string {
	return lipgloss.NewStyle().
		Foreground(TaskStatusColor(status)).
		Render(TaskStatusIcon(status) + " " + status.String())
}

// FormatDocumentStatus renders a generated document status.
func FormatDocumentStatus(status constants.DocumentStatus) string {
	switch status {
	case constants.DocumentStatusGenerated:
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render("✓ " + status.String())
	case constants.DocumentStatusFailed:
		return lipgloss.NewStyle().Foreground(ColorError).Render("✗ " + status.String())
	default:
		return lipgloss.NewStyle().Foreground(ColorMuted).Render("○ " + status.String())
	}
}

// FormatSeverity renders an issue severity.
func FormatSeverity(s domain.Severity) string {
	if s == domain.SeverityHigh {
		return lipgloss.NewStyle().Foreground(ColorError).Render(string(s))
	}
	return lipgloss.NewStyle().Foreground(ColorWarning).Render(string(s))
}
