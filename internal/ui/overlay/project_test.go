package overlay

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/config"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *config.ProjectsRegistry {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &config.ProjectsRegistry{
		Projects: []config.Project{
			{ID: "P2", Name: "Billing", LastUsed: base.Add(time.Hour)},
			{ID: "P9", Name: "Archived", LastUsed: base},
		},
		DefaultProject: "P2",
	}
}

func testProjects() []domain.Project {
	return []domain.Project{
		{ID: "P1", Name: "Launch"},
		{ID: "P2", Name: "Billing"},
		{ID: "P3", Name: "Hiring"},
	}
}

func entryIDs(m *ProjectSelector) []string {
	var ids []string
	for _, e := range m.entries {
		ids = append(ids, e.project.ID)
	}
	return ids
}

func TestNewProjectSelector(t *testing.T) {
	tests := []struct {
		name       string
		projects   []domain.Project
		registry   *config.ProjectsRegistry
		currentID  string
		wantIDs    []string
		wantCursor int
	}{
		{
			name:       "recents first, stale recents dropped",
			projects:   testProjects(),
			registry:   testRegistry(),
			currentID:  "P3",
			wantIDs:    []string{"P2", "P1", "P3"},
			wantCursor: 2,
		},
		{
			name:       "offline shows registry only",
			projects:   nil,
			registry:   testRegistry(),
			wantIDs:    []string{"P2", "P9"},
			wantCursor: 0,
		},
		{
			name:       "no registry",
			projects:   testProjects(),
			registry:   nil,
			currentID:  "P2",
			wantIDs:    []string{"P1", "P2", "P3"},
			wantCursor: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewProjectSelector(tt.projects, tt.registry, tt.currentID)
			assert.Equal(t, tt.wantIDs, entryIDs(m))
			assert.Equal(t, tt.wantCursor, m.cursor)
		})
	}
}

func TestProjectSelector_Select(t *testing.T) {
	m := NewProjectSelector(testProjects(), testRegistry(), "")

	m.Update(keyRunes("j"))
	m.Update(keyRunes("j"))
	m.Update(keyRunes("j")) // clamps
	_, cmd := m.Update(keyType(tea.KeyEnter))

	msgs := collect(cmd)
	selected, ok := find[ProjectSelectedMsg](msgs)
	require.True(t, ok)
	assert.Equal(t, "P3", selected.Project.ID)
	assert.True(t, hasClose(msgs))
}

func TestProjectSelector_SetDefault(t *testing.T) {
	m := NewProjectSelector(testProjects(), testRegistry(), "")
	m.Update(keyRunes("j"))

	_, cmd := m.Update(keyRunes("d"))
	msgs := collect(cmd)
	def, ok := find[ProjectDefaultMsg](msgs)
	require.True(t, ok)
	assert.Equal(t, "P1", def.ID)
	assert.False(t, hasClose(msgs))
	assert.Contains(t, m.View(), "default")
}

func TestProjectSelector_Forget(t *testing.T) {
	// Offline entry disappears entirely
	m := NewProjectSelector(nil, testRegistry(), "")
	m.Update(keyRunes("j"))
	_, cmd := m.Update(keyRunes("x"))
	forget, ok := find[ProjectForgetMsg](collect(cmd))
	require.True(t, ok)
	assert.Equal(t, "P9", forget.ID)
	assert.Equal(t, []string{"P2"}, entryIDs(m))
	assert.Equal(t, 0, m.cursor)

	// Remote entry stays but loses its recent tag
	m = NewProjectSelector(testProjects(), testRegistry(), "")
	_, cmd = m.Update(keyRunes("x"))
	_, ok = find[ProjectForgetMsg](collect(cmd))
	require.True(t, ok)
	assert.Len(t, m.entries, 3)
	assert.False(t, m.entries[0].recent)

	// Non-recent entries cannot be forgotten
	_, cmd = m.Update(keyRunes("x"))
	assert.Nil(t, cmd)
}

func TestProjectSelector_Empty(t *testing.T) {
	m := NewProjectSelector(nil, nil, "")
	assert.Contains(t, m.View(), "No projects available")

	_, cmd := m.Update(keyType(tea.KeyEnter))
	assert.Nil(t, cmd)

	_, cmd = m.Update(keyType(tea.KeyEsc))
	assert.True(t, hasClose(collect(cmd)))
}

func TestProjectSelector_View(t *testing.T) {
	m := NewProjectSelector(nil, testRegistry(), "P2")
	view := m.View()
	assert.Contains(t, view, "Billing [current, default, recent, cached]")
	assert.Contains(t, view, "Archived [recent, cached]")
	assert.Equal(t, "Projects", m.Title())
}
