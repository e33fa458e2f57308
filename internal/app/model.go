// Package app contains the main application model and TEA implementation.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/config"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/services/navigation"
	"github.com/riordanpawley/tandem/internal/services/network"
	"github.com/riordanpawley/tandem/internal/services/projection"
	"github.com/riordanpawley/tandem/internal/services/search"
	"github.com/riordanpawley/tandem/internal/services/tasks"
	"github.com/riordanpawley/tandem/internal/types"
	"github.com/riordanpawley/tandem/internal/ui/board"
	"github.com/riordanpawley/tandem/internal/ui/overlay"
	"github.com/riordanpawley/tandem/internal/ui/statusbar"
	"github.com/riordanpawley/tandem/internal/ui/styles"
	"github.com/riordanpawley/tandem/internal/ui/toast"
)

// Re-export Mode type and constants for convenience
type Mode = types.Mode

const (
	ModeNormal = types.ModeNormal
	ModeSelect = types.ModeSelect
	ModeSearch = types.ModeSearch
)

// Re-export Toast type and constants for convenience
type Toast = types.Toast

const (
	ToastInfo    = types.ToastInfo
	ToastSuccess = types.ToastSuccess
	ToastWarning = types.ToastWarning
	ToastError   = types.ToastError
)

// toastTick is how often expired toasts are pruned
const toastTick = time.Second

// ProjectLister fetches the projects the caller can see
type ProjectLister interface {
	ListProjects(ctx context.Context, s auth.Session) ([]domain.Project, error)
}

// Deps holds everything the model is wired with
type Deps struct {
	Config   *config.Config
	Session  auth.Session
	Store    *tasks.Store
	Search   *search.Coordinator
	Projects ProjectLister
	// Network is optional; without it the board never shows offline from probes
	Network  *network.StatusChecker
	Registry *config.ProjectsRegistry
	// SaveRegistry persists registry changes; defaults to config.SaveProjectsRegistry
	SaveRegistry func(*config.ProjectsRegistry) error
	Logger       *slog.Logger
	Now          func() time.Time
}

// Model is the main application state
type Model struct {
	// Core data
	state    tasks.State
	projects []domain.Project
	project  domain.Project

	// Services
	store   *tasks.Store
	search  *search.Coordinator
	lister  ProjectLister
	board   *projection.Service
	mover   *deferredUpdater
	nav     *navigation.Service
	network *network.StatusChecker
	session auth.Session

	// UI state
	overlayStack *overlay.Stack
	filterInput  textinput.Model
	toasts       []Toast

	// Terminal size
	width  int
	height int

	// Styles
	styles        *styles.Styles
	overlayStyles *overlay.Styles

	// Configuration
	config       *config.Config
	registry     *config.ProjectsRegistry
	saveRegistry func(*config.ProjectsRegistry) error

	// Loading state
	loading bool
	spinner spinner.Model
	online  bool

	logger *slog.Logger
	now    func() time.Time
}

// New creates a new application model
func New(deps Deps) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	fi := textinput.New()
	fi.Prompt = "/"
	fi.Placeholder = "filter title, description or labels"
	fi.CharLimit = 100

	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	registry := deps.Registry
	if registry == nil {
		registry = &config.ProjectsRegistry{Projects: []config.Project{}}
	}
	save := deps.SaveRegistry
	if save == nil {
		save = config.SaveProjectsRegistry
	}

	mover := newDeferredUpdater(deps.Store)
	proj := projection.NewService(mover)
	proj.SetView(domain.ParseView(cfg.Board.DefaultView))

	return Model{
		state:         deps.Store.Snapshot(),
		store:         deps.Store,
		search:        deps.Search,
		lister:        deps.Projects,
		board:         proj,
		mover:         mover,
		nav:           navigation.NewService(),
		network:       deps.Network,
		session:       deps.Session,
		overlayStack:  overlay.NewStack(),
		filterInput:   fi,
		toasts:        []Toast{},
		styles:        styles.New(),
		overlayStyles: overlay.New(),
		config:        cfg,
		registry:      registry,
		saveRegistry:  save,
		loading:       true,
		spinner:       s,
		online:        true,
		logger:        logger,
		now:           now,
	}
}

// Init returns the initial command for the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.bootstrapCmd(m.initialProjectID()),
		tickEvery(toastTick, toastTickMsg{}),
	}
	if m.network != nil {
		cmds = append(cmds, m.network.CheckCmd())
	}
	if every := m.config.Board.RefreshInterval; every > 0 {
		cmds = append(cmds, tickEvery(time.Duration(every)*time.Second, refreshTickMsg{}))
	}
	return tea.Batch(cmds...)
}

// initialProjectID picks the startup project: config first, then the
// registry default. Empty means the first listed project.
func (m Model) initialProjectID() string {
	if id := m.config.Board.DefaultProject; id != "" {
		if p, err := m.registry.Resolve(id); err == nil {
			return p.ID
		}
		return id
	}
	if p := m.registry.GetDefault(); p != nil {
		return p.ID
	}
	return ""
}

// Update handles incoming messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !m.overlayStack.IsEmpty() {
			return m, m.overlayStack.Update(msg)
		}
		return m.handleKey(msg)

	// Published state. The snapshot is re-read so out-of-order sends from
	// concurrent operations can never roll the view back.
	case tasks.ChangedMsg:
		m.state = m.store.Snapshot()
		return m, nil

	case search.StateMsg:
		return m, m.overlayStack.Update(msg)

	case network.StatusMsg:
		return m.handleNetworkStatus(msg.Online)

	case toastTickMsg:
		m.toasts = types.PruneToasts(m.toasts, m.now())
		return m, tickEvery(toastTick, toastTickMsg{})

	case refreshTickMsg:
		cmd := tickEvery(time.Duration(m.config.Board.RefreshInterval)*time.Second, refreshTickMsg{})
		if m.state.Loading.Tasks {
			return m, cmd
		}
		return m, tea.Batch(m.refreshCmd(), cmd)

	// Overlay messages
	case overlay.CloseOverlayMsg:
		m.overlayStack.Pop()
		return m, nil

	case overlay.ResultMsg:
		m.overlayStack.Pop()
		return m.Update(msg.Msg)

	case overlay.SelectionMsg:
		return m.handleSelection(msg)

	case overlay.FilterMsg:
		m.board.SetView(msg.View)
		if msg.ClearQuery {
			m.board.ClearQuery()
			m.filterInput.Reset()
		}
		return m, nil

	case overlay.SortMsg:
		m.board.ToggleSort(msg.Field)
		return m, nil

	case overlay.CreateTaskMsg:
		return m, m.createTaskCmd(msg.Task)

	case overlay.UpdateDetailsMsg:
		return m, m.updateDetailsCmd(msg.TaskID, msg.Patch)

	case overlay.AssignMsg:
		return m, m.assignCmd(msg.TaskID, msg.UserIDs)

	case overlay.ProjectSelectedMsg:
		return m.switchProject(msg.Project)

	case overlay.ProjectDefaultMsg:
		return m.setDefaultProject(msg.ID)

	case overlay.ProjectForgetMsg:
		if err := m.registry.Remove(msg.ID); err == nil {
			m.persistRegistry()
		}
		return m, nil

	case bulkMoveMsg:
		return m.moveSelected(msg.to)

	// Async results
	case bootstrapMsg:
		m.loading = false
		m.projects = msg.projects
		m.state = m.store.Snapshot()
		if msg.project.ID != "" {
			m.project = msg.project
			m.rememberProject(msg.project)
		}
		if msg.err != nil {
			m.addErrorToast(msg.err)
		}
		return m, nil

	case projectsLoadedMsg:
		// Offline falls back to the last list and the registry
		if msg.err != nil {
			m.addErrorToast(msg.err)
		} else if msg.projects != nil {
			m.projects = msg.projects
		}
		return m, m.overlayStack.Push(overlay.NewProjectSelector(m.projects, m.registry, m.project.ID))

	case opDoneMsg:
		m.state = m.store.Snapshot()
		if msg.err != nil {
			m.addErrorToast(msg.err)
			return m, nil
		}
		if msg.taskID != "" {
			m.nav.JumpToTaskByID(m.columns(), msg.taskID)
		}
		if msg.success != "" {
			m.addToast(ToastSuccess, msg.success)
		}
		return m, nil

	case movesDoneMsg:
		m.state = m.store.Snapshot()
		if msg.err != nil {
			m.addErrorToast(msg.err)
		} else if msg.count > 1 {
			m.addToast(ToastSuccess, fmt.Sprintf("Moved %d tasks", msg.count))
		}
		return m, nil
	}

	// Forward anything else (cursor blinks, spinner ticks of overlays)
	if !m.overlayStack.IsEmpty() {
		return m, m.overlayStack.Update(msg)
	}
	if m.board.IsSearch() {
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleNetworkStatus records a probe result and refreshes when the API
// comes back
func (m Model) handleNetworkStatus(online bool) (tea.Model, tea.Cmd) {
	was := m.online
	m.online = online
	m.logger.Debug("network status updated", "online", online)
	if was == online {
		return m, nil
	}
	if !online {
		m.addToast(ToastWarning, "Offline: showing cached tasks")
		return m, nil
	}
	m.addToast(ToastInfo, "Back online")
	if m.state.Offline {
		return m, m.refreshCmd()
	}
	return m, nil
}

// handleSelection handles requests from the detail panel
func (m Model) handleSelection(msg overlay.SelectionMsg) (tea.Model, tea.Cmd) {
	task, ok := msg.Value.(domain.Task)
	if !ok {
		return m, nil
	}
	switch msg.Key {
	case "edit":
		return m.openEdit(task)
	case "assign":
		return m.openAssign(task)
	}
	return m, nil
}

// columns projects the current collection onto the board
func (m Model) columns() []projection.Column {
	return m.board.Columns(m.state.Tasks)
}

func (m Model) currentTask() *domain.Task {
	return m.nav.GetCurrentTask(m.columns())
}

// halfPage calculates half-page scroll distance based on terminal height
func (m Model) halfPage() int {
	cardsPerColumn := (m.height - 3) / 4
	return max(1, cardsPerColumn/2)
}

func (m *Model) addToast(level types.ToastLevel, message string) {
	m.toasts = append(m.toasts, types.NewToast(level, message, m.now()))
}

func (m *Model) addErrorToast(err error) {
	if t, ok := types.ErrorToast(err, m.now()); ok {
		m.toasts = append(m.toasts, t)
	}
}

// View renders the current state as a string
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.loading {
		return m.renderLoading()
	}

	footer := m.renderStatusBar()
	if m.board.IsSearch() {
		footer = lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), footer)
	}
	bodyHeight := m.height - lipgloss.Height(footer)

	var body string
	if current := m.overlayStack.Current(); current != nil {
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center,
			overlay.Render(current, m.overlayStyles))
	} else {
		body = m.renderBoard(bodyHeight)
	}

	view := lipgloss.JoinVertical(lipgloss.Left, body, footer)

	if len(m.toasts) > 0 {
		if toastView := toast.New(m.styles).Render(m.toasts, m.width); toastView != "" {
			view = lipgloss.JoinVertical(lipgloss.Left, view, toastView)
		}
	}
	return view
}

func (m Model) renderBoard(height int) string {
	columns := m.columns()
	pos := m.nav.GetPosition(columns)
	cursor := board.Cursor{Column: pos.Column, Task: pos.Task}
	if !pos.Valid {
		cursor.Task = -1
	}

	selected := make(map[string]bool)
	for _, t := range m.state.Tasks {
		if m.board.IsSelected(t.ID) {
			selected[t.ID] = true
		}
	}

	return board.Render(columns, cursor, selected, m.now(), m.styles, m.width, height)
}

func (m Model) renderStatusBar() string {
	var info []string
	if m.state.Err != nil {
		info = append(info, m.styles.Overdue.Render("✗ "+m.state.Err.Message))
	}
	if m.state.Loading.Tasks || m.state.Loading.TaskCreate || m.state.Loading.TaskUpdate {
		info = append(info, m.spinner.View())
	}
	if n := m.board.SelectionCount(); n > 0 {
		info = append(info, fmt.Sprintf("%d selected", n))
	}
	if q := m.board.GetFilter().Query; q != "" && !m.board.IsSearch() {
		info = append(info, "/"+q)
	}
	info = append(info, string(m.board.View()))
	if sort := m.board.GetSort(); sort.Field != domain.SortNone {
		arrow := "↑"
		if sort.Order == domain.SortDesc {
			arrow = "↓"
		}
		info = append(info, "sort:"+string(sort.Field)+arrow)
	}
	if m.project.Name != "" {
		info = append(info, m.project.Name)
	}

	return statusbar.New(m.board.GetMode(), m.width, m.styles).
		WithOffline(!m.online || m.state.Offline).
		WithInfo(info...).
		Render()
}

// renderLoading renders a centered loading spinner with message
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.spinner.View(),
		"Loading tasks...",
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// displayName is the label shown for a project
func displayName(p domain.Project) string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.ID
}
