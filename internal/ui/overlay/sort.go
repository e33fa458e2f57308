package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/domain"
)

// SortMsg asks the board to toggle a sort field
type SortMsg struct {
	Field domain.SortField
}

// SortOption represents a sort option with metadata
type SortOption struct {
	Key         string
	Label       string
	Field       domain.SortField
	Description string
}

// SortMenu is a menu overlay for sorting configuration
type SortMenu struct {
	sort    domain.Sort
	options []SortOption
	styles  *Styles
}

// NewSortMenu creates a new sort menu for the given sort state
func NewSortMenu(sort domain.Sort) *SortMenu {
	return &SortMenu{
		sort:   sort,
		styles: New(),
		options: []SortOption{
			{
				Key:         "p",
				Label:       "Priority",
				Field:       domain.SortByPriority,
				Description: "Urgent first",
			},
			{
				Key:         "u",
				Label:       "Updated",
				Field:       domain.SortByUpdated,
				Description: "Oldest change first",
			},
			{
				Key:         "d",
				Label:       "Due date",
				Field:       domain.SortByDue,
				Description: "Soonest first, undated last",
			},
		},
	}
}

// Init initializes the menu
func (m *SortMenu) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SortMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.String() == "esc" || key.String() == "q" {
		return m, closeCmd
	}
	for _, opt := range m.options {
		if opt.Key == key.String() {
			// The same key again flips the direction
			m.sort.Toggle(opt.Field)
			field := opt.Field
			return m, func() tea.Msg { return SortMsg{Field: field} }
		}
	}
	return m, nil
}

// View renders the menu
func (m *SortMenu) View() string {
	var b strings.Builder

	for _, opt := range m.options {
		isActive := m.sort.Field == opt.Field

		keyStyle := m.styles.MenuItem
		labelStyle := m.styles.MenuItem
		if isActive {
			keyStyle = m.styles.MenuKey
			labelStyle = m.styles.MenuItemActive
		}
		b.WriteString(keyStyle.Render("[" + opt.Key + "]"))
		b.WriteString(" ")
		b.WriteString(labelStyle.Render(opt.Label))
		b.WriteString(" ")
		b.WriteString(m.styles.Footer.UnsetMarginTop().Render("(" + opt.Description + ")"))

		if isActive {
			arrow := "↑"
			if m.sort.Order == domain.SortDesc {
				arrow = "↓"
			}
			b.WriteString(" ")
			b.WriteString(m.styles.MenuItemActive.Render("● " + arrow))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Footer.Render("Press same key to toggle direction • Esc to close"))
	return b.String()
}

// Title returns the overlay title
func (m *SortMenu) Title() string {
	return "Sort"
}

// Size returns the overlay dimensions
func (m *SortMenu) Size() (width, height int) {
	return 60, len(m.options) + 5
}
