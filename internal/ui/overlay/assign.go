package overlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/services/search"
)

// maxResults caps how many matches are listed at once
const maxResults = 8

// UserSearcher is the part of the search coordinator the assign dialog drives
type UserSearcher interface {
	Search(sess auth.Session, term, excludeTaskID string)
	ClearSearch()
	ToggleUser(u domain.User)
	ClearSelection()
	State() search.State
}

// AssignMsg asks the board to add the chosen users to a task
type AssignMsg struct {
	TaskID  string
	UserIDs []string
}

// AssignOverlay searches for users and collects a selection to assign
type AssignOverlay struct {
	task     domain.Task
	sess     auth.Session
	searcher UserSearcher
	input    textinput.Model
	spinner  spinner.Model
	state    search.State
	cursor   int
	styles   *Styles
}

// NewAssignOverlay opens a user search for task. Users already assigned to
// the task are excluded by the server.
func NewAssignOverlay(task domain.Task, sess auth.Session, searcher UserSearcher) *AssignOverlay {
	ti := textinput.New()
	ti.Prompt = "@ "
	ti.Placeholder = "name, email or department id"
	ti.CharLimit = 100
	ti.Width = 50
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	searcher.ClearSelection()
	searcher.ClearSearch()

	return &AssignOverlay{
		task:     task,
		sess:     sess,
		searcher: searcher,
		input:    ti,
		spinner:  sp,
		state:    searcher.State(),
		styles:   New(),
	}
}

// Init starts the cursor and spinner
func (a *AssignOverlay) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.spinner.Tick)
}

// Update handles messages
func (a *AssignOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case search.StateMsg:
		// Publishes can race; keep the newest
		if msg.State.Version >= a.state.Version {
			a.state = msg.State
			a.cursor = min(a.cursor, max(len(a.visible())-1, 0))
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			a.searcher.ClearSearch()
			return a, closeCmd

		case "up", "ctrl+p":
			if a.cursor > 0 {
				a.cursor--
			}
			return a, nil

		case "down", "ctrl+n":
			if a.cursor < len(a.visible())-1 {
				a.cursor++
			}
			return a, nil

		case "tab":
			a.toggleCurrent()
			return a, nil

		case "ctrl+x":
			a.searcher.ClearSelection()
			a.state = a.searcher.State()
			return a, nil

		case "enter":
			return a, a.submit()
		}
	}

	prev := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.input.Value() != prev {
		a.cursor = 0
		a.searcher.Search(a.sess, a.input.Value(), a.task.ID)
		a.state = a.searcher.State()
	}
	return a, cmd
}

// visible returns the listed matches
func (a *AssignOverlay) visible() []domain.User {
	users := a.state.Users
	if len(users) > maxResults {
		users = users[:maxResults]
	}
	return users
}

func (a *AssignOverlay) toggleCurrent() {
	users := a.visible()
	if a.cursor < len(users) {
		a.searcher.ToggleUser(users[a.cursor])
		a.state = a.searcher.State()
	}
}

// submit assigns the selection, or the highlighted match when nothing is
// selected yet
func (a *AssignOverlay) submit() tea.Cmd {
	if len(a.state.Selected) == 0 {
		a.toggleCurrent()
	}
	if len(a.state.Selected) == 0 {
		return nil
	}
	ids := make([]string, 0, len(a.state.Selected))
	for _, u := range a.state.Selected {
		ids = append(ids, u.ID)
	}
	a.searcher.ClearSearch()
	return emit(AssignMsg{TaskID: a.task.ID, UserIDs: ids})
}

func (a *AssignOverlay) isSelected(id string) bool {
	for _, u := range a.state.Selected {
		if u.ID == id {
			return true
		}
	}
	return false
}

// View renders the dialog
func (a *AssignOverlay) View() string {
	var b strings.Builder

	b.WriteString(a.styles.MenuItem.Render(a.task.Title))
	b.WriteString("\n\n")
	b.WriteString(a.input.View())
	b.WriteString("\n\n")

	switch a.state.Phase {
	case search.PhasePending:
		b.WriteString(a.spinner.View() + " " + a.styles.MenuItemDisabled.Render("Searching "+queryKindLabel(a.state.Query.Kind)+"…"))
		b.WriteString("\n")
	case search.PhaseFailed:
		b.WriteString(a.styles.Error.Render(a.state.Err))
		b.WriteString("\n")
	case search.PhaseResolved:
		if a.state.Stale {
			b.WriteString(a.styles.Warning.Render("Offline: showing cached results"))
			b.WriteString("\n")
		}
		if len(a.state.Users) == 0 {
			b.WriteString(a.styles.MenuItemDisabled.Render("No matching users"))
			b.WriteString("\n")
		}
	}

	for i, u := range a.visible() {
		style := a.styles.MenuItem
		pointer := "  "
		if i == a.cursor {
			style = a.styles.MenuItemActive
			pointer = "▶ "
		}
		check := "[ ]"
		if a.isSelected(u.ID) {
			check = "[x]"
		}
		line := fmt.Sprintf("%s%s %s", pointer, check, u.Name)
		if u.Email != "" {
			line += " <" + u.Email + ">"
		}
		b.WriteString(style.Render(line))
		b.WriteString(a.styles.MenuItemDisabled.Render(" · " + u.Role.String()))
		b.WriteString("\n")
	}
	if extra := len(a.state.Users) - maxResults; extra > 0 {
		b.WriteString(a.styles.MenuItemDisabled.Render(fmt.Sprintf("  … %d more, refine the search", extra)))
		b.WriteString("\n")
	}
	if a.state.HiddenCount > 0 {
		b.WriteString(a.styles.MenuItemDisabled.Render(fmt.Sprintf("%d users outside your scope are hidden", a.state.HiddenCount)))
		b.WriteString("\n")
	}

	if len(a.state.Selected) > 0 {
		names := make([]string, 0, len(a.state.Selected))
		for _, u := range a.state.Selected {
			names = append(names, u.Name)
		}
		b.WriteString("\n")
		b.WriteString(a.styles.MenuCount.Render(fmt.Sprintf("Selected (%d): %s", len(names), strings.Join(names, ", "))))
		b.WriteString("\n")
	}

	hints := []string{
		a.styles.MenuKey.Render("↑/↓") + " move",
		a.styles.MenuKey.Render("Tab") + " select",
		a.styles.MenuKey.Render("Enter") + " assign",
		a.styles.MenuKey.Render("Esc") + " cancel",
	}
	b.WriteString(a.styles.Footer.Render(strings.Join(hints, " • ")))
	return b.String()
}

func queryKindLabel(k domain.QueryKind) string {
	switch k {
	case domain.QueryEmail:
		return "by email"
	case domain.QueryDepartment:
		return "by department"
	default:
		return "by name"
	}
}

// Title returns the overlay title
func (a *AssignOverlay) Title() string {
	return "Assign Users"
}

// Size returns the overlay dimensions
func (a *AssignOverlay) Size() (width, height int) {
	return 64, maxResults + 14
}
