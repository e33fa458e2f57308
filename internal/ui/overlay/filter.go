package overlay

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/domain"
)

// FilterMsg asks the board to switch view or drop the text query
type FilterMsg struct {
	View       domain.View
	ClearQuery bool
}

var viewOptions = []struct {
	key         string
	view        domain.View
	description string
}{
	{"a", domain.ViewAll, "Every column"},
	{"c", domain.ViewActive, "To Do and In Progress"},
	{"b", domain.ViewBacklog, "To Do only"},
	{"d", domain.ViewDone, "Done only"},
}

// FilterMenu picks the board view
type FilterMenu struct {
	current domain.Filter
	styles  *Styles
}

// NewFilterMenu creates a filter menu showing the current filter
func NewFilterMenu(current domain.Filter) *FilterMenu {
	return &FilterMenu{current: current, styles: New()}
}

// Init initializes the menu
func (m *FilterMenu) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *FilterMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc", "q":
		return m, closeCmd
	case "x":
		return m, emit(FilterMsg{View: m.current.View, ClearQuery: true})
	}

	for _, opt := range viewOptions {
		if opt.key == key.String() {
			return m, emit(FilterMsg{View: opt.view})
		}
	}
	return m, nil
}

// View renders the menu
func (m *FilterMenu) View() string {
	var b strings.Builder

	b.WriteString(m.styles.MenuHeader.Render("View"))
	b.WriteString("\n")
	for _, opt := range viewOptions {
		label := m.styles.MenuItem
		marker := " "
		if opt.view == m.current.View {
			label = m.styles.MenuItemActive
			marker = "●"
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			m.styles.MenuKey.Render("["+opt.key+"]"),
			label.Render(marker),
			label.Render(string(opt.view)),
			m.styles.Footer.UnsetMarginTop().Render("("+opt.description+")"))
	}

	if m.current.Query != "" {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %s",
			m.styles.MenuKey.Render("[x]"),
			m.styles.MenuItem.Render(fmt.Sprintf("Clear text filter %q", m.current.Query)))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Footer.Render("/ on the board filters by text • Esc to close"))
	return b.String()
}

// Title returns the overlay title
func (m *FilterMenu) Title() string {
	return "Filter"
}

// Size returns the overlay dimensions
func (m *FilterMenu) Size() (width, height int) {
	return 50, len(viewOptions) + 7
}
