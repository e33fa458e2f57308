package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/tandem/internal/ui/styles"
)

// renderColumn renders a kanban column with header and task cards
func renderColumn(
	col Column,
	cursorTask int,
	isActive bool,
	selectedTasks map[string]bool,
	now time.Time,
	width int,
	height int,
	s *styles.Styles,
) string {
	headerStyle := s.ColumnHeader
	if isActive {
		headerStyle = s.ColumnHeaderActive
	}

	// "─ To Do (3) ─────"
	headerText := fmt.Sprintf("─ %s (%d) ", col.Title, len(col.Tasks))
	if remaining := width - lipgloss.Width(headerText) - 2; remaining > 0 {
		headerText += strings.Repeat("─", remaining)
	}
	header := headerStyle.Render(headerText)

	// Header takes two lines (margin), column border two more
	bodyHeight := max(height-4, cardHeight)
	fit := bodyHeight / cardHeight
	if len(col.Tasks) > fit {
		// leave room for the scroll markers
		fit = max((bodyHeight-2)/cardHeight, 1)
	}
	start, end := visibleRange(len(col.Tasks), cursorTask, fit)

	var cardStrings []string
	cardWidth := width - 4
	if start > 0 {
		cardStrings = append(cardStrings, s.TaskMeta.Render(fmt.Sprintf("  ↑ %d more", start)))
	}
	for i := start; i < end; i++ {
		task := col.Tasks[i]
		cardStrings = append(cardStrings, renderCard(task, i == cursorTask, selectedTasks[task.ID], cardWidth, now, s))
	}
	if end < len(col.Tasks) {
		cardStrings = append(cardStrings, s.TaskMeta.Render(fmt.Sprintf("  ↓ %d more", len(col.Tasks)-end)))
	}

	content := strings.Join(cardStrings, "\n")

	columnContent := s.Column.Width(width - 2).Height(bodyHeight).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, columnContent)
}

// visibleRange picks the window of at most fit cards that keeps the cursor
// on screen
func visibleRange(n, cursor, fit int) (int, int) {
	if fit < 1 {
		fit = 1
	}
	if n <= fit {
		return 0, n
	}
	start := 0
	if cursor >= fit {
		start = cursor - fit + 1
	}
	if start > n-fit {
		start = n - fit
	}
	return start, start + fit
}
