package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleText = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleHeader = lipgloss.NewStyle().
			Bold(true)

	styleGrant = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	styleSkip = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindText lineKind = iota
	kindHeader
	kindGrant
	kindSkip
	kindSystem
	kindError
)

// classifyLine determines what kind of output line this is, based on the
// shapes the session formatter produces.
func classifyLine(line string) lineKind {
	trimmed := strings.TrimLeft(line, " ")
	switch {
	case strings.HasPrefix(line, "Action "):
		return kindHeader
	case strings.Contains(line, " skipped ("):
		return kindSkip
	case strings.HasPrefix(trimmed, "+") || strings.HasPrefix(trimmed, "-") ||
		strings.Contains(trimmed, " × "):
		return kindGrant
	case strings.Contains(line, "failed:") || strings.HasPrefix(line, "Unknown command"):
		return kindError
	case strings.HasPrefix(line, "Balance:") || strings.HasPrefix(line, "Roles:"):
		return kindSystem
	default:
		return kindText
	}
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindHeader:
		return styleHeader.Render(line)
	case kindGrant:
		return styleGrant.Render(line)
	case kindSkip:
		return styleSkip.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	default:
		return styleText.Render(line)
	}
}

// styledPlayerInput renders the echoed input in green with "> " prefix.
func styledPlayerInput(input string) string {
	return stylePlayerInput.Render("> " + input)
}
