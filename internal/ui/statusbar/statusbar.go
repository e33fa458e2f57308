// Package statusbar renders the bottom line of the board.
package statusbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/tandem/internal/types"
	"github.com/riordanpawley/tandem/internal/ui/styles"
)

// StatusBar represents the status bar at the bottom of the TUI
type StatusBar struct {
	mode    types.Mode
	width   int
	styles  *styles.Styles
	offline bool
	info    []string
}

// New creates a new StatusBar with the given mode, width, and styles
func New(mode types.Mode, width int, styles *styles.Styles) StatusBar {
	return StatusBar{
		mode:   mode,
		width:  width,
		styles: styles,
	}
}

// WithOffline marks the API as unreachable
func (sb StatusBar) WithOffline(offline bool) StatusBar {
	sb.offline = offline
	return sb
}

// WithInfo appends right-hand segments such as the project, view or a
// loading indicator. Empty segments are skipped.
func (sb StatusBar) WithInfo(segments ...string) StatusBar {
	for _, s := range segments {
		if s != "" {
			sb.info = append(sb.info, s)
		}
	}
	return sb
}

// Render renders the status bar as a string
func (sb StatusBar) Render() string {
	parts := []string{sb.styles.StatusMode.Render(" " + sb.mode.String() + " ")}
	if sb.offline {
		parts = append(parts, sb.styles.StatusOffline.Render("OFFLINE"))
	}

	separator := sb.styles.StatusHint.Render(" │ ")
	if hints := GetHints(sb.mode); hints != "" {
		parts = append(parts, separator, sb.styles.StatusHint.Render(hints))
	}
	left := lipgloss.JoinHorizontal(lipgloss.Left, parts...)

	right := sb.styles.StatusInfo.Render(strings.Join(sb.info, "  "))
	gap := sb.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	content := left
	if len(sb.info) > 0 && gap > 0 {
		content = left + strings.Repeat(" ", gap) + right
	}

	// Apply status bar style and fill width
	return sb.styles.StatusBar.Width(sb.width).Render(content)
}
