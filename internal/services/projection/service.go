// Package projection derives the board's columns from the task collection
// and turns move gestures into status changes.
package projection

import (
	"context"
	"errors"

	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/types"
)

// Re-export Mode type for convenience
type Mode = types.Mode

// Mode constants
const (
	ModeNormal = types.ModeNormal
	ModeSelect = types.ModeSelect
	ModeSearch = types.ModeSearch
)

// StatusUpdater is the store operation a move gesture turns into
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, s auth.Session, taskID string, status domain.Status) error
}

// Column is one kanban column of the projected board
type Column struct {
	Status domain.Status
	Title  string
	Tasks  []domain.Task
}

// Service manages board view state (mode, filter, sort, manual order, selection)
type Service struct {
	store    StatusUpdater
	mode     Mode
	filter   *domain.Filter
	sort     *domain.Sort
	order    map[domain.Status][]string
	selected map[string]bool
}

// NewService creates a new projection showing every task
func NewService(store StatusUpdater) *Service {
	return &Service{
		store:    store,
		mode:     ModeNormal,
		filter:   domain.NewFilter(),
		sort:     &domain.Sort{Field: domain.SortNone, Order: domain.SortAsc},
		order:    make(map[domain.Status][]string),
		selected: make(map[string]bool),
	}
}

// GetMode returns the current mode
func (s *Service) GetMode() Mode {
	return s.mode
}

// EnterSelect switches to select mode
func (s *Service) EnterSelect() {
	s.mode = ModeSelect
}

// EnterSearch switches to filter input mode
func (s *Service) EnterSearch() {
	s.mode = ModeSearch
}

// ExitMode returns to normal mode if not already normal
func (s *Service) ExitMode() bool {
	if s.mode != ModeNormal {
		s.mode = ModeNormal
		return true
	}
	return false
}

// IsSelect returns true if in select mode
func (s *Service) IsSelect() bool {
	return s.mode == ModeSelect
}

// IsSearch returns true if in filter input mode
func (s *Service) IsSearch() bool {
	return s.mode == ModeSearch
}

// Filter management

// GetFilter returns the current filter
func (s *Service) GetFilter() domain.Filter {
	return *s.filter
}

// View returns the active view
func (s *Service) View() domain.View {
	return s.filter.View
}

// SetView selects a view
func (s *Service) SetView(v domain.View) {
	s.filter.View = domain.ParseView(string(v))
}

// CycleView advances to the next view and returns it
func (s *Service) CycleView() domain.View {
	s.filter.View = s.filter.View.Next()
	return s.filter.View
}

// SetQuery updates the free-text query
func (s *Service) SetQuery(query string) {
	s.filter.Query = query
}

// ClearQuery clears the free-text query
func (s *Service) ClearQuery() {
	s.filter.Query = ""
}

// ClearFilters resets view and query
func (s *Service) ClearFilters() {
	s.filter.Clear()
}

// IsFilterActive returns true if the filter hides anything
func (s *Service) IsFilterActive() bool {
	return s.filter.IsActive()
}

// Sort management

// GetSort returns the current sort settings
func (s *Service) GetSort() domain.Sort {
	return *s.sort
}

// ToggleSort toggles between fields or direction. Manual ordering is
// discarded.
func (s *Service) ToggleSort(field domain.SortField) {
	s.sort.Toggle(field)
	s.order = make(map[domain.Status][]string)
}

// Projection

// Apply filters and sorts tasks, preserving input order for ties
func (s *Service) Apply(tasks []domain.Task) []domain.Task {
	return s.sort.Apply(s.filter.Apply(tasks))
}

// Columns groups the projected tasks into the three board columns. Every
// column is present even when the view hides its status.
func (s *Service) Columns(tasks []domain.Task) []Column {
	visible := s.Apply(tasks)
	columns := make([]Column, len(domain.Statuses))
	for i, st := range domain.Statuses {
		columns[i] = Column{Status: st, Title: st.Label(), Tasks: []domain.Task{}}
	}
	for _, t := range visible {
		i := t.Status.Column()
		columns[i].Tasks = append(columns[i].Tasks, t)
	}
	for i := range columns {
		columns[i].Tasks = s.applyOrder(columns[i].Status, columns[i].Tasks)
	}
	return columns
}

// Reorder moves a card within its column. It is presentation-only and
// never reaches the store.
func (s *Service) Reorder(column Column, from, to int) bool {
	n := len(column.Tasks)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	ids := make([]string, 0, n)
	for _, t := range column.Tasks {
		ids = append(ids, t.ID)
	}
	moved := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]string{moved}, ids[to:]...)...)
	s.order[column.Status] = ids
	return true
}

// applyOrder puts tasks with a manual position first, in that order,
// followed by the rest in projected order
func (s *Service) applyOrder(status domain.Status, tasks []domain.Task) []domain.Task {
	ids := s.order[status]
	if len(ids) == 0 {
		return tasks
	}
	byID := make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	out := make([]domain.Task, 0, len(tasks))
	placed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
			placed[id] = true
		}
	}
	for _, t := range tasks {
		if !placed[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// Moves

// Move changes a task's column. A move within the same column issues no
// store call; a move across columns issues exactly one status update.
func (s *Service) Move(ctx context.Context, sess auth.Session, taskID string, from, to domain.Status) error {
	if from == to {
		return nil
	}
	s.forget(from, taskID)
	return s.store.UpdateStatus(ctx, sess, taskID, to)
}

// MoveBy moves a task delta columns to the right (negative for left),
// clamped at the board edges
func (s *Service) MoveBy(ctx context.Context, sess auth.Session, task domain.Task, delta int) error {
	return s.Move(ctx, sess, task.ID, task.Status, domain.StatusAt(task.Status.Column()+delta))
}

// MoveSelected moves every selected task among tasks to status and clears
// the selection. Failures are joined; the other moves still happen.
func (s *Service) MoveSelected(ctx context.Context, sess auth.Session, tasks []domain.Task, to domain.Status) (int, error) {
	var (
		moved int
		errs  []error
	)
	for _, t := range tasks {
		if !s.selected[t.ID] || t.Status == to {
			continue
		}
		if err := s.Move(ctx, sess, t.ID, t.Status, to); err != nil {
			errs = append(errs, err)
			continue
		}
		moved++
	}
	s.ClearSelection()
	return moved, errors.Join(errs...)
}

func (s *Service) forget(status domain.Status, taskID string) {
	ids := s.order[status]
	for i, id := range ids {
		if id == taskID {
			s.order[status] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}

// Selection management

// IsSelected returns true if the task is selected
func (s *Service) IsSelected(taskID string) bool {
	return s.selected[taskID]
}

// ToggleSelection toggles selection of a task
func (s *Service) ToggleSelection(taskID string) {
	if s.selected[taskID] {
		delete(s.selected, taskID)
	} else {
		s.selected[taskID] = true
	}
}

// ClearSelection clears all selections
func (s *Service) ClearSelection() {
	s.selected = make(map[string]bool)
}

// SelectionCount returns the number of selected tasks
func (s *Service) SelectionCount() int {
	return len(s.selected)
}
