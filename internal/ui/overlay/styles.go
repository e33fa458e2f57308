package overlay

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/tandem/internal/ui/styles"
)

// Styles holds all overlay-specific styles
type Styles struct {
	Overlay          lipgloss.Style
	Title            lipgloss.Style
	MenuItem         lipgloss.Style
	MenuItemActive   lipgloss.Style
	MenuItemDisabled lipgloss.Style
	MenuKey          lipgloss.Style
	Separator        lipgloss.Style
	Footer           lipgloss.Style
	MenuHeader       lipgloss.Style
	MenuCount        lipgloss.Style
	// Label is a right-aligned form label
	Label lipgloss.Style
	// LabelActive is the label of the focused form field
	LabelActive lipgloss.Style
	// Error renders inline validation and request failures
	Error lipgloss.Style
	// Warning renders stale or partial results
	Warning lipgloss.Style
}

// New creates overlay styles from the shared theme
func New() *Styles {
	base := styles.New()
	return &Styles{
		Overlay:          base.Overlay,
		Title:            base.OverlayTitle,
		MenuItem:         base.MenuItem,
		MenuItemActive:   base.MenuItemActive,
		MenuItemDisabled: base.MenuItemDisabled,
		MenuKey:          base.MenuKey,
		Separator:        base.Separator,

		Footer: lipgloss.NewStyle().
			Foreground(styles.Subtext0).
			MarginTop(1),

		MenuHeader: lipgloss.NewStyle().
			Foreground(styles.Subtext1).
			Bold(true),

		MenuCount: lipgloss.NewStyle().
			Foreground(styles.Green),

		Label: lipgloss.NewStyle().
			Foreground(styles.Teal).
			Width(12).
			Align(lipgloss.Right),

		LabelActive: lipgloss.NewStyle().
			Foreground(styles.Blue).
			Bold(true).
			Width(12).
			Align(lipgloss.Right),

		Error: lipgloss.NewStyle().
			Foreground(styles.Red),

		Warning: lipgloss.NewStyle().
			Foreground(styles.Yellow),
	}
}

// Render frames an overlay's view with its title
func Render(o Overlay, s *Styles) string {
	width, _ := o.Size()
	body := o.View()
	if title := o.Title(); title != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, s.Title.Render(title), body)
	}
	frame := s.Overlay
	if width > 0 {
		frame = frame.Width(width)
	}
	return frame.Render(body)
}
