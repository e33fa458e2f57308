package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/ui/overlay"
)

// bulkMoveMsg is delivered by the confirm dialog of a bulk move
type bulkMoveMsg struct {
	to domain.Status
}

// handleKey processes keyboard input based on current mode
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.board.GetMode() {
	case ModeSearch:
		return m.handleSearchMode(msg)
	case ModeSelect:
		return m.handleSelectMode(msg)
	default:
		return m.handleNormalMode(msg)
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.search != nil {
		m.search.Close()
	}
	return m, tea.Quit
}

// handleNavigation applies the cursor keys shared by normal and select mode
func (m Model) handleNavigation(key string) bool {
	columns := m.columns()
	switch key {
	case "j", "down":
		m.nav.MoveDown(columns)
	case "k", "up":
		m.nav.MoveUp(columns)
	case "h", "left":
		m.nav.MoveLeft(columns)
	case "l", "right":
		m.nav.MoveRight(columns)
	case "ctrl+d":
		m.nav.HalfPageDown(columns, m.halfPage())
	case "ctrl+u":
		m.nav.HalfPageUp(columns, m.halfPage())
	case "g", "home":
		m.nav.GotoTop(columns)
	case "G", "end":
		m.nav.GotoBottom(columns)
	default:
		return false
	}
	return true
}

// handleNormalMode processes keyboard input in normal mode
func (m Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.handleNavigation(key) {
		return m, nil
	}

	switch key {
	case "q":
		return m.quit()

	case "esc":
		if m.board.IsFilterActive() {
			m.board.ClearQuery()
			m.filterInput.Reset()
		}
		return m, nil

	// Moves
	case "H", "shift+left":
		return m.moveCurrent(-1)

	case "L", "shift+right":
		return m.moveCurrent(1)

	case "J", "shift+down":
		m.reorderCurrent(1)
		return m, nil

	case "K", "shift+up":
		m.reorderCurrent(-1)
		return m, nil

	// Task actions
	case "enter":
		if task := m.currentTask(); task != nil {
			return m, m.overlayStack.Push(overlay.NewDetailPanel(*task, displayName(m.project)))
		}
		return m, nil

	case "c":
		return m.openCreate()

	case "e":
		if task := m.currentTask(); task != nil {
			return m.openEdit(*task)
		}
		return m, nil

	case "a":
		if task := m.currentTask(); task != nil {
			return m.openAssign(*task)
		}
		return m, nil

	// Board
	case "/":
		m.board.EnterSearch()
		m.filterInput.SetValue(m.board.GetFilter().Query)
		m.filterInput.CursorEnd()
		cmd := m.filterInput.Focus()
		return m, cmd

	case "f":
		return m, m.overlayStack.Push(overlay.NewFilterMenu(m.board.GetFilter()))

	case ",":
		return m, m.overlayStack.Push(overlay.NewSortMenu(m.board.GetSort()))

	case "tab":
		view := m.board.CycleView()
		m.addToast(ToastInfo, fmt.Sprintf("View: %s", view))
		return m, nil

	case "p":
		return m, m.loadProjectsCmd()

	case "r":
		return m, m.refreshCmd()

	case "v":
		m.board.EnterSelect()
		return m, nil

	case "x":
		m.store.ClearError()
		m.state = m.store.Snapshot()
		return m, nil

	case "?":
		return m, m.overlayStack.Push(overlay.NewHelpOverlay())
	}

	return m, nil
}

// handleSelectMode processes keyboard input in select mode
func (m Model) handleSelectMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.handleNavigation(key) {
		return m, nil
	}

	switch key {
	case " ":
		if task := m.currentTask(); task != nil {
			m.board.ToggleSelection(task.ID)
		}
		return m, nil

	case "H", "shift+left":
		return m.confirmBulkMove(-1)

	case "L", "shift+right":
		return m.confirmBulkMove(1)

	case "esc", "v":
		m.board.ClearSelection()
		m.board.ExitMode()
		return m, nil

	case "q":
		return m.quit()
	}

	return m, nil
}

// handleSearchMode edits the board's text filter as the user types
func (m Model) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.board.ExitMode()
		m.filterInput.Blur()
		return m, nil

	case "esc":
		m.board.ClearQuery()
		m.board.ExitMode()
		m.filterInput.Reset()
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.board.SetQuery(m.filterInput.Value())
	return m, cmd
}

// moveCurrent moves the task under the cursor delta columns
func (m Model) moveCurrent(delta int) (tea.Model, tea.Cmd) {
	task := m.currentTask()
	if task == nil {
		return m, nil
	}
	// The cursor follows the card into its new column
	m.nav.SelectTask(task.ID, task.Status.Column())
	if err := m.board.MoveBy(context.Background(), m.session, *task, delta); err != nil {
		m.addErrorToast(err)
		return m, nil
	}
	return m, m.mover.flush()
}

// reorderCurrent swaps the task under the cursor with its neighbour
func (m Model) reorderCurrent(delta int) {
	columns := m.columns()
	pos := m.nav.GetPosition(columns)
	if !pos.Valid {
		return
	}
	m.board.Reorder(columns[pos.Column], pos.Task, pos.Task+delta)
}

// confirmBulkMove asks before moving the selection one column over from
// the cursor's column. A single selected task moves without asking.
func (m Model) confirmBulkMove(delta int) (tea.Model, tea.Cmd) {
	n := m.board.SelectionCount()
	if n == 0 {
		m.addToast(ToastInfo, "Nothing selected")
		return m, nil
	}
	columns := m.columns()
	from := m.nav.GetPosition(columns).Column
	if from+delta < 0 || from+delta >= len(columns) {
		return m, nil
	}
	to := domain.StatusAt(from + delta)
	if n == 1 {
		return m.moveSelected(to)
	}
	dialog := overlay.NewConfirmDialog(
		"Move Tasks",
		fmt.Sprintf("Move %d selected tasks to %s?", n, to.Label()),
		bulkMoveMsg{to: to},
	)
	return m, m.overlayStack.Push(dialog)
}

// moveSelected moves every selected task to status and leaves select mode
func (m Model) moveSelected(to domain.Status) (tea.Model, tea.Cmd) {
	if _, err := m.board.MoveSelected(context.Background(), m.session, m.state.Tasks, to); err != nil {
		m.addErrorToast(err)
	}
	m.board.ExitMode()
	return m, m.mover.flush()
}

func (m Model) openCreate() (tea.Model, tea.Cmd) {
	if !m.session.Capabilities().CanCreateTask {
		m.addToast(ToastWarning, fmt.Sprintf("%s cannot create tasks", m.session.Role))
		return m, nil
	}
	if m.project.ID == "" {
		m.addToast(ToastWarning, "Select a project first (p)")
		return m, nil
	}
	status := m.nav.GetCurrentStatus(m.columns())
	return m, m.overlayStack.Push(overlay.NewCreateTaskForm(m.project.ID, status))
}

func (m Model) openEdit(task domain.Task) (tea.Model, tea.Cmd) {
	if !m.session.Capabilities().CanEditTask {
		m.addToast(ToastWarning, fmt.Sprintf("%s cannot edit tasks", m.session.Role))
		return m, nil
	}
	return m, m.overlayStack.Push(overlay.NewEditTaskForm(task))
}

func (m Model) openAssign(task domain.Task) (tea.Model, tea.Cmd) {
	caps := m.session.Capabilities()
	if !caps.CanAssignUsers || !caps.CanSearchUsers() || m.search == nil {
		m.addToast(ToastWarning, fmt.Sprintf("%s cannot assign users", m.session.Role))
		return m, nil
	}
	return m, m.overlayStack.Push(overlay.NewAssignOverlay(task, m.session, m.search))
}

// switchProject makes p current, records it as recently used and reloads
func (m Model) switchProject(p domain.Project) (tea.Model, tea.Cmd) {
	if p.ID == m.project.ID {
		return m, nil
	}
	m.project = p
	m.rememberProject(p)
	m.board.ClearSelection()
	m.board.ExitMode()
	m.nav.SelectTask("", 0)
	m.addToast(ToastInfo, fmt.Sprintf("Switched to %s", displayName(p)))
	return m, m.refreshCmd()
}

func (m Model) setDefaultProject(id string) (tea.Model, tea.Cmd) {
	name := ""
	for _, p := range m.projects {
		if p.ID == id {
			name = p.Name
		}
	}
	if err := m.registry.Use(id, name, m.config.API.BaseURL, m.now()); err != nil {
		m.addErrorToast(err)
		return m, nil
	}
	if err := m.registry.SetDefault(id); err != nil {
		m.addErrorToast(err)
		return m, nil
	}
	m.persistRegistry()
	m.addToast(ToastSuccess, fmt.Sprintf("Default project: %s", displayName(domain.Project{ID: id, Name: name})))
	return m, nil
}

// rememberProject records p in the local registry
func (m Model) rememberProject(p domain.Project) {
	if err := m.registry.Use(p.ID, p.Name, m.config.API.BaseURL, m.now()); err != nil {
		m.logger.Warn("failed to record project", "project", p.ID, "error", err)
		return
	}
	m.persistRegistry()
}

func (m Model) persistRegistry() {
	if err := m.saveRegistry(m.registry); err != nil {
		m.logger.Warn("failed to save project registry", "error", err)
	}
}
