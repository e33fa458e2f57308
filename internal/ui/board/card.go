package board

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/ui/styles"
)

// renderCard renders a task card
func renderCard(task domain.Task, isCursor bool, isSelected bool, width int, now time.Time, s *styles.Styles) string {
	cardStyle := s.Card
	if isSelected {
		cardStyle = s.CardSelected
	} else if isCursor {
		cardStyle = s.CardActive
	}
	// width is the outer width; the border takes two columns, padding two more
	cardStyle = cardStyle.Width(max(width-2, 4))
	inner := max(width-4, 2)

	cursor := ""
	if isCursor {
		cursor = "▶"
	}
	title := ansi.Truncate(cursor+task.Title, inner, "…")
	titleLine := s.TaskTitle.Render(title)

	parts := []string{s.PriorityBadge(task.Priority).Render(task.Priority)}
	if initials := assigneeInitials(task.Assignees); initials != "" {
		parts = append(parts, s.TaskMeta.Render(initials))
	}
	if task.DueDate != nil {
		due := task.DueDate.Format("Jan 2")
		if isOverdue(task, now) {
			parts = append(parts, s.Overdue.Render("!"+due))
		} else {
			parts = append(parts, s.TaskMeta.Render(due))
		}
	}
	if labels := task.LabelList(); len(labels) > 0 {
		parts = append(parts, s.LabelBadge.Render(labels[0]))
	}
	metaLine := ansi.Truncate(strings.Join(parts, " "), inner, "…")

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, metaLine)
	return cardStyle.Render(content)
}

// RenderCard is the exported version for testing
func RenderCard(task domain.Task, isCursor bool, isSelected bool, width int, now time.Time, s *styles.Styles) string {
	return renderCard(task, isCursor, isSelected, width, now, s)
}

// isOverdue reports whether an unfinished task is past its due date
func isOverdue(task domain.Task, now time.Time) bool {
	return task.DueDate != nil && task.Status != domain.StatusDone && task.DueDate.Before(now)
}

// assigneeInitials renders up to three assignees as initials, e.g. "JD,AB+2"
func assigneeInitials(users []domain.UserRef) string {
	if len(users) == 0 {
		return ""
	}
	var out []string
	for i, u := range users {
		if i == 3 {
			break
		}
		out = append(out, initials(u))
	}
	s := strings.Join(out, ",")
	if extra := len(users) - 3; extra > 0 {
		s += "+" + strconv.Itoa(extra)
	}
	return s
}

func initials(u domain.UserRef) string {
	name := u.Name
	if name == "" {
		name = u.Email
	}
	if name == "" {
		name = u.ID
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "?"
	}
	var out []rune
	for _, f := range fields[:min(len(fields), 2)] {
		out = append(out, []rune(strings.ToUpper(f))[0])
	}
	return string(out)
}
