package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/types"
)

// Styles is the shared lipgloss palette for the board, status bar,
// overlays and toasts
type Styles struct {
	Column             lipgloss.Style
	ColumnHeader       lipgloss.Style
	ColumnHeaderActive lipgloss.Style

	Card         lipgloss.Style
	CardActive   lipgloss.Style
	CardSelected lipgloss.Style
	TaskTitle    lipgloss.Style
	TaskMeta     lipgloss.Style
	Overdue      lipgloss.Style
	LabelBadge   lipgloss.Style

	StatusBar     lipgloss.Style
	StatusMode    lipgloss.Style
	StatusHint    lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusOffline lipgloss.Style

	Overlay          lipgloss.Style
	OverlayTitle     lipgloss.Style
	MenuItem         lipgloss.Style
	MenuItemActive   lipgloss.Style
	MenuItemDisabled lipgloss.Style
	MenuKey          lipgloss.Style
	Separator        lipgloss.Style

	toasts map[types.ToastLevel]lipgloss.Style
}

// boxed is a rounded box with a colored border
func boxed(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

func header(fg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Bold(true).Padding(0, 1).MarginBottom(1)
}

// New builds the styles
func New() *Styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	pill := func(bg lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Background(bg).Foreground(Base).Bold(true).Padding(0, 1)
	}
	toast := func(c lipgloss.Color) lipgloss.Style { return boxed(c).Foreground(c) }

	return &Styles{
		Column:             boxed(Surface1),
		ColumnHeader:       header(Subtext0),
		ColumnHeaderActive: header(Blue),

		Card:         boxed(Surface1),
		CardActive:   boxed(Lavender),
		CardSelected: boxed(Mauve),
		TaskTitle:    fg(Text),
		TaskMeta:     fg(Subtext0),
		Overdue:      fg(Red).Bold(true),
		LabelBadge:   fg(Subtext0).Background(Surface1).Padding(0, 1),

		StatusBar:     fg(Subtext0).Background(Surface0).Padding(0, 1),
		StatusMode:    pill(Blue),
		StatusHint:    fg(Overlay1),
		StatusInfo:    fg(Subtext0),
		StatusOffline: pill(Red),

		Overlay:          boxed(Surface2).Background(Base).Padding(1, 2),
		OverlayTitle:     fg(Text).Bold(true).MarginBottom(1),
		MenuItem:         fg(Text),
		MenuItemActive:   fg(Blue).Bold(true),
		MenuItemDisabled: fg(Overlay0),
		MenuKey:          fg(Yellow).Bold(true),
		Separator:        fg(Surface1),

		toasts: map[types.ToastLevel]lipgloss.Style{
			types.ToastInfo:    toast(Blue),
			types.ToastSuccess: toast(Green),
			types.ToastWarning: toast(Yellow),
			types.ToastError:   toast(Red),
		},
	}
}

// PriorityBadge colors a priority by its rank; unknown priorities share
// the last color
func (s *Styles) PriorityBadge(priority string) lipgloss.Style {
	rank := domain.PriorityRank(priority)
	return lipgloss.NewStyle().
		Foreground(Base).
		Background(PriorityColors[min(rank, len(PriorityColors)-1)]).
		Padding(0, 1).
		Bold(true)
}

// Toast returns the style for a toast level
func (s *Styles) Toast(level types.ToastLevel) lipgloss.Style {
	if st, ok := s.toasts[level]; ok {
		return st
	}
	return s.toasts[types.ToastInfo]
}
