// Package toast renders transient notifications.
package toast

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/tandem/internal/types"
	"github.com/riordanpawley/tandem/internal/ui/styles"
)

// maxWidth caps a toast's width regardless of terminal size
const maxWidth = 48

// ToastRenderer handles rendering of toast notifications
type ToastRenderer struct {
	styles *styles.Styles
}

// New creates a new ToastRenderer with the given styles
func New(styles *styles.Styles) *ToastRenderer {
	return &ToastRenderer{
		styles: styles,
	}
}

// Render renders a stack of toasts, newest last, aligned to the right.
// Returns empty string if no toasts to display
func (r *ToastRenderer) Render(toasts []types.Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	toastWidth := min(width/3, maxWidth)
	if toastWidth < 16 {
		toastWidth = 16
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, r.styles.Toast(t.Level).Width(toastWidth).Render(t.Message))
	}

	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}
