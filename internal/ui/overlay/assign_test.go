package overlay

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/services/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	state    search.State
	terms    []string
	excludes []string
	clears   int
}

func (f *fakeSearcher) Search(sess auth.Session, term, excludeTaskID string) {
	f.terms = append(f.terms, term)
	f.excludes = append(f.excludes, excludeTaskID)
	f.state.Phase = search.PhasePending
	f.state.Version++
}

func (f *fakeSearcher) ClearSearch() {
	f.clears++
	f.state.Phase = search.PhaseIdle
	f.state.Users = nil
	f.state.Version++
}

func (f *fakeSearcher) ToggleUser(u domain.User) {
	for i, s := range f.state.Selected {
		if s.ID == u.ID {
			f.state.Selected = append(f.state.Selected[:i:i], f.state.Selected[i+1:]...)
			f.state.Version++
			return
		}
	}
	f.state.Selected = append(f.state.Selected, u)
	f.state.Version++
}

func (f *fakeSearcher) ClearSelection() {
	f.state.Selected = nil
	f.state.Version++
}

func (f *fakeSearcher) State() search.State {
	return f.state
}

// resolve simulates the coordinator publishing results
func (f *fakeSearcher) resolve(users ...domain.User) search.StateMsg {
	f.state.Phase = search.PhaseResolved
	f.state.Users = users
	f.state.Version++
	return search.StateMsg{State: f.state}
}

var (
	assignTask = domain.Task{ID: "T1", Title: "Plan offsite"}
	john       = domain.User{ID: "U1", Name: "John", Email: "john@example.com", Role: domain.RoleDeveloper}
	jolene     = domain.User{ID: "U2", Name: "Jolene", Role: domain.RoleIntern}
	manager    = auth.Session{UserID: "M1", Role: domain.RoleManager}
)

func newAssign(t *testing.T) (*AssignOverlay, *fakeSearcher) {
	t.Helper()
	f := &fakeSearcher{state: search.State{Selected: []domain.User{jolene}}}
	a := NewAssignOverlay(assignTask, manager, f)
	require.Empty(t, a.state.Selected, "opening the dialog starts a fresh selection")
	return a, f
}

func TestAssignOverlay_TypingSearches(t *testing.T) {
	a, f := newAssign(t)

	typeText(a, "jo")

	assert.Equal(t, []string{"j", "jo"}, f.terms)
	assert.Equal(t, []string{"T1", "T1"}, f.excludes)
	assert.Equal(t, search.PhasePending, a.state.Phase)
}

func TestAssignOverlay_DropsOlderState(t *testing.T) {
	a, f := newAssign(t)
	typeText(a, "jo")

	msg := f.resolve(john, jolene)
	a.Update(msg)
	require.Len(t, a.state.Users, 2)

	older := msg
	older.State.Version--
	older.State.Users = nil
	a.Update(older)
	assert.Len(t, a.state.Users, 2)
}

func TestAssignOverlay_EnterAssignsHighlighted(t *testing.T) {
	a, f := newAssign(t)
	typeText(a, "jo")
	a.Update(f.resolve(john, jolene))

	a.Update(keyType(tea.KeyDown))
	_, cmd := a.Update(keyType(tea.KeyEnter))

	msgs := collect(cmd)
	assign, ok := find[AssignMsg](msgs)
	require.True(t, ok)
	assert.Equal(t, AssignMsg{TaskID: "T1", UserIDs: []string{"U2"}}, assign)
	assert.True(t, hasClose(msgs))
}

func TestAssignOverlay_TabBuildsSelection(t *testing.T) {
	a, f := newAssign(t)
	typeText(a, "jo")
	a.Update(f.resolve(john, jolene))

	a.Update(keyType(tea.KeyTab))
	a.Update(keyType(tea.KeyDown))
	a.Update(keyType(tea.KeyTab))
	assert.Contains(t, a.View(), "Selected (2): John, Jolene")

	// Toggling again deselects
	a.Update(keyType(tea.KeyTab))
	_, cmd := a.Update(keyType(tea.KeyEnter))

	assign, ok := find[AssignMsg](collect(cmd))
	require.True(t, ok)
	assert.Equal(t, []string{"U1"}, assign.UserIDs)
}

func TestAssignOverlay_EnterWithoutResults(t *testing.T) {
	a, _ := newAssign(t)

	_, cmd := a.Update(keyType(tea.KeyEnter))
	assert.Nil(t, cmd)
}

func TestAssignOverlay_EscClears(t *testing.T) {
	a, f := newAssign(t)
	clears := f.clears

	_, cmd := a.Update(keyType(tea.KeyEsc))

	assert.True(t, hasClose(collect(cmd)))
	assert.Equal(t, clears+1, f.clears)
}

func TestAssignOverlay_View(t *testing.T) {
	tests := []struct {
		name  string
		state search.State
		want  []string
	}{
		{
			name:  "failed",
			state: search.State{Phase: search.PhaseFailed, Err: "Your role cannot search for users"},
			want:  []string{"Your role cannot search for users"},
		},
		{
			name:  "stale",
			state: search.State{Phase: search.PhaseResolved, Stale: true, Users: []domain.User{john}},
			want:  []string{"Offline: showing cached results", "John <john@example.com>", "Developer"},
		},
		{
			name:  "empty",
			state: search.State{Phase: search.PhaseResolved},
			want:  []string{"No matching users"},
		},
		{
			name:  "hidden",
			state: search.State{Phase: search.PhaseResolved, Users: []domain.User{john}, HiddenCount: 4},
			want:  []string{"4 users outside your scope are hidden"},
		},
		{
			name:  "pending by email",
			state: search.State{Phase: search.PhasePending, Query: domain.SearchQuery{Kind: domain.QueryEmail}},
			want:  []string{"Searching by email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newAssign(t)
			tt.state.Version = 100
			a.Update(search.StateMsg{State: tt.state})

			view := a.View()
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}
}
