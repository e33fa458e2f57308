// Package board renders the kanban columns.
package board

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/tandem/internal/ui/styles"
)

// Render renders the kanban board, one evenly sized column per status
func Render(
	columns []Column,
	cursor Cursor,
	selectedTasks map[string]bool,
	now time.Time,
	s *styles.Styles,
	width int,
	height int,
) string {
	if len(columns) == 0 {
		return ""
	}

	columnWidth := width / len(columns)

	var columnStrings []string
	for i, col := range columns {
		isActive := i == cursor.Column
		cursorTask := -1
		if isActive {
			cursorTask = cursor.Task
		}

		columnStr := renderColumn(col, cursorTask, isActive, selectedTasks, now, columnWidth, height, s)

		// Force consistent width using lipgloss Width
		sized := lipgloss.NewStyle().Width(columnWidth).Height(height).MaxHeight(height).Render(columnStr)
		columnStrings = append(columnStrings, sized)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columnStrings...)
}
