// Package navigation provides cursor and navigation state management
package navigation

import (
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/services/projection"
)

// Position represents a computed position in the board
type Position struct {
	Column int  // 0=To Do, 1=In Progress, 2=Done
	Task   int  // Index within the column
	Valid  bool // Whether the position is valid
}

// Cursor tracks the selected task by ID so it survives filter, sort and
// optimistic status changes
type Cursor struct {
	TaskID         string // Primary state: selected task ID
	FallbackColumn int    // Column to use when TaskID not found
}

// FindPosition computes the position of the cursor's task in the given columns
func (c *Cursor) FindPosition(columns []projection.Column) Position {
	if c.TaskID != "" {
		for colIdx, col := range columns {
			for taskIdx, task := range col.Tasks {
				if task.ID == c.TaskID {
					return Position{Column: colIdx, Task: taskIdx, Valid: true}
				}
			}
		}
	}

	// No task selected or it was filtered out
	col := c.FallbackColumn
	if col < 0 || col >= len(columns) {
		col = 0
	}
	if col < len(columns) && len(columns[col].Tasks) > 0 {
		return Position{Column: col, Task: 0, Valid: true}
	}
	return Position{Column: col, Task: 0, Valid: false}
}

// SetTask updates the cursor to point to a specific task
func (c *Cursor) SetTask(taskID string, column int) {
	c.TaskID = taskID
	c.FallbackColumn = column
}

// MoveVertical moves up or down within a column, returns new task ID
func (c *Cursor) MoveVertical(columns []projection.Column, delta int) string {
	pos := c.FindPosition(columns)
	if !pos.Valid {
		return c.TaskID
	}

	tasks := columns[pos.Column].Tasks
	idx := clamp(pos.Task+delta, 0, len(tasks)-1)
	c.TaskID = tasks[idx].ID
	c.FallbackColumn = pos.Column
	return c.TaskID
}

// JumpToColumn moves to a column, keeping the row where possible
func (c *Cursor) JumpToColumn(columns []projection.Column, colIdx int) string {
	if len(columns) == 0 {
		return c.TaskID
	}
	colIdx = clamp(colIdx, 0, len(columns)-1)
	pos := c.FindPosition(columns)
	c.FallbackColumn = colIdx

	tasks := columns[colIdx].Tasks
	if len(tasks) == 0 {
		c.TaskID = ""
		return c.TaskID
	}
	c.TaskID = tasks[clamp(pos.Task, 0, len(tasks)-1)].ID
	return c.TaskID
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Service manages navigation state
type Service struct {
	cursor Cursor
}

// NewService creates a new navigation service
func NewService() *Service {
	return &Service{}
}

// GetCursor returns the current cursor (for read access)
func (s *Service) GetCursor() *Cursor {
	return &s.cursor
}

// GetPosition returns the computed position of the cursor in the given columns
func (s *Service) GetPosition(columns []projection.Column) Position {
	return s.cursor.FindPosition(columns)
}

// GetCurrentTask returns the task under the cursor, or nil
func (s *Service) GetCurrentTask(columns []projection.Column) *domain.Task {
	pos := s.cursor.FindPosition(columns)
	if !pos.Valid {
		return nil
	}
	task := columns[pos.Column].Tasks[pos.Task]
	return &task
}

// GetCurrentStatus returns the status of the cursor's column
func (s *Service) GetCurrentStatus(columns []projection.Column) domain.Status {
	pos := s.cursor.FindPosition(columns)
	if pos.Column < len(columns) {
		return columns[pos.Column].Status
	}
	return domain.StatusTodo
}

// MoveDown moves cursor down in current column
func (s *Service) MoveDown(columns []projection.Column) {
	s.cursor.MoveVertical(columns, 1)
}

// MoveUp moves cursor up in current column
func (s *Service) MoveUp(columns []projection.Column) {
	s.cursor.MoveVertical(columns, -1)
}

// MoveLeft moves cursor to left column
func (s *Service) MoveLeft(columns []projection.Column) {
	s.cursor.JumpToColumn(columns, s.GetPosition(columns).Column-1)
}

// MoveRight moves cursor to right column
func (s *Service) MoveRight(columns []projection.Column) {
	s.cursor.JumpToColumn(columns, s.GetPosition(columns).Column+1)
}

// HalfPageDown moves cursor half a page down
func (s *Service) HalfPageDown(columns []projection.Column, halfPage int) {
	s.cursor.MoveVertical(columns, halfPage)
}

// HalfPageUp moves cursor half a page up
func (s *Service) HalfPageUp(columns []projection.Column, halfPage int) {
	s.cursor.MoveVertical(columns, -halfPage)
}

// GotoTop moves cursor to first task in column
func (s *Service) GotoTop(columns []projection.Column) {
	pos := s.GetPosition(columns)
	s.cursor.MoveVertical(columns, -pos.Task)
}

// GotoBottom moves cursor to last task in column
func (s *Service) GotoBottom(columns []projection.Column) {
	pos := s.GetPosition(columns)
	if pos.Valid {
		s.cursor.MoveVertical(columns, len(columns[pos.Column].Tasks)-1-pos.Task)
	}
}

// SelectTask directly sets the cursor to a specific task
func (s *Service) SelectTask(taskID string, column int) {
	s.cursor.SetTask(taskID, column)
}

// JumpToTaskByID finds and selects a task by ID
func (s *Service) JumpToTaskByID(columns []projection.Column, taskID string) bool {
	for colIdx, col := range columns {
		for _, task := range col.Tasks {
			if task.ID == taskID {
				s.cursor.SetTask(task.ID, colIdx)
				return true
			}
		}
	}
	return false
}
