package overlay

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/config"
	"github.com/riordanpawley/tandem/internal/domain"
)

// ProjectSelectedMsg is sent when a project is selected
type ProjectSelectedMsg struct {
	Project domain.Project
}

// ProjectDefaultMsg asks for a project to become the startup default
type ProjectDefaultMsg struct {
	ID string
}

// ProjectForgetMsg asks for a project to be dropped from the local registry
type ProjectForgetMsg struct {
	ID string
}

// recentLimit bounds how many recently used projects are pinned to the top
const recentLimit = 5

type projectEntry struct {
	project domain.Project
	recent  bool
	// remote is false for registry entries the server did not list
	remote bool
}

// ProjectSelector lists the caller's projects, recently used ones first
type ProjectSelector struct {
	entries   []projectEntry
	currentID string
	defaultID string
	cursor    int
	styles    *Styles
}

// NewProjectSelector merges the server's project list with the local
// registry. When the server list is empty (offline or still loading) the
// registry entries are shown on their own.
func NewProjectSelector(projects []domain.Project, registry *config.ProjectsRegistry, currentID string) *ProjectSelector {
	m := &ProjectSelector{
		currentID: currentID,
		styles:    New(),
	}

	remote := make(map[string]domain.Project, len(projects))
	for _, p := range projects {
		remote[p.ID] = p
	}

	seen := make(map[string]bool)
	if registry != nil {
		m.defaultID = registry.DefaultProject
		for _, r := range registry.Recent(recentLimit) {
			p, ok := remote[r.ID]
			if !ok {
				if len(projects) > 0 {
					// Server no longer lists it
					continue
				}
				p = domain.Project{ID: r.ID, Name: r.Name}
			}
			m.entries = append(m.entries, projectEntry{project: p, recent: true, remote: ok})
			seen[r.ID] = true
		}
	}
	for _, p := range projects {
		if !seen[p.ID] {
			m.entries = append(m.entries, projectEntry{project: p, remote: true})
		}
	}

	for i, e := range m.entries {
		if e.project.ID == currentID {
			m.cursor = i
		}
	}
	return m
}

// Init initializes the overlay
func (m *ProjectSelector) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ProjectSelector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc", "q":
		return m, closeCmd

	case "j", "down":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "enter":
		if e, ok := m.current(); ok {
			return m, emit(ProjectSelectedMsg{Project: e.project})
		}

	case "d":
		if e, ok := m.current(); ok {
			m.defaultID = e.project.ID
			return m, func() tea.Msg { return ProjectDefaultMsg{ID: e.project.ID} }
		}

	case "x":
		if e, ok := m.current(); ok && e.recent {
			m.entries[m.cursor].recent = false
			if !e.remote {
				m.entries = append(m.entries[:m.cursor], m.entries[m.cursor+1:]...)
				if m.cursor >= len(m.entries) && m.cursor > 0 {
					m.cursor--
				}
			}
			return m, func() tea.Msg { return ProjectForgetMsg{ID: e.project.ID} }
		}
	}

	return m, nil
}

func (m *ProjectSelector) current() (projectEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return projectEntry{}, false
	}
	return m.entries[m.cursor], true
}

// View renders the project selector
func (m *ProjectSelector) View() string {
	var b strings.Builder

	if len(m.entries) == 0 {
		b.WriteString(m.styles.MenuItem.Render("No projects available"))
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("esc: close"))
		return b.String()
	}

	for i, e := range m.entries {
		style := m.styles.MenuItem
		prefix := "  "
		if i == m.cursor {
			style = m.styles.MenuItemActive
			prefix = "▶ "
		}

		line := prefix + e.project.Name
		if e.project.Name == "" {
			line = prefix + e.project.ID
		}
		b.WriteString(style.Render(line))

		var tags []string
		if e.project.ID == m.currentID {
			tags = append(tags, "current")
		}
		if e.project.ID == m.defaultID {
			tags = append(tags, "default")
		}
		if e.recent {
			tags = append(tags, "recent")
		}
		if !e.remote {
			tags = append(tags, "cached")
		}
		if len(tags) > 0 {
			b.WriteString(" " + m.styles.MenuKey.Render(fmt.Sprintf("[%s]", strings.Join(tags, ", "))))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Footer.Render("enter: switch • d: set default • x: forget recent • esc: close"))
	return b.String()
}

// Title returns the overlay title
func (m *ProjectSelector) Title() string {
	return "Projects"
}

// Size returns the overlay dimensions
func (m *ProjectSelector) Size() (width, height int) {
	height = len(m.entries) + 6
	if height < 8 {
		height = 8
	}
	return 60, height
}
