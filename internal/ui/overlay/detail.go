package overlay

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/domain"
)

// DetailPanel displays full task details with scrollable description.
// e and a ask the app to open the edit form or the assign overlay through a
// SelectionMsg carrying the task.
type DetailPanel struct {
	task          domain.Task
	projectName   string
	scrollY       int
	contentHeight int
	viewHeight    int
	styles        *Styles
}

// NewDetailPanel creates a new detail panel for the given task
func NewDetailPanel(task domain.Task, projectName string) *DetailPanel {
	contentHeight := 0
	if task.Description != "" {
		contentHeight = len(strings.Split(task.Description, "\n"))
	}

	return &DetailPanel{
		task:          task,
		projectName:   projectName,
		contentHeight: contentHeight,
		viewHeight:    12,
		styles:        New(),
	}
}

// Init initializes the detail panel
func (d *DetailPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (d *DetailPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc", "q", "enter":
			return d, closeCmd

		case "e":
			return d, emit(SelectionMsg{Key: "edit", Value: d.task})

		case "a":
			return d, emit(SelectionMsg{Key: "assign", Value: d.task})

		case "j", "down":
			if d.scrollY < d.maxScroll() {
				d.scrollY++
			}

		case "k", "up":
			if d.scrollY > 0 {
				d.scrollY--
			}

		case "g":
			d.scrollY = 0

		case "G":
			d.scrollY = d.maxScroll()
		}
	}

	return d, nil
}

// View renders the detail panel
func (d *DetailPanel) View() string {
	var b strings.Builder

	field := func(label, value string) {
		b.WriteString(d.styles.Label.Render(label+":") + "  " + d.styles.MenuItem.Render(value) + "\n")
	}

	b.WriteString(d.styles.MenuHeader.Render(fmt.Sprintf("[%s] %s", d.task.ID, d.task.Title)))
	b.WriteString("\n\n")

	field("Status", d.task.Status.Label())
	field("Priority", d.task.Priority)
	if d.projectName != "" {
		field("Project", d.projectName)
	}
	if labels := d.task.LabelList(); len(labels) > 0 {
		field("Labels", strings.Join(labels, ", "))
	}
	if d.task.StartDate != nil {
		field("Start", formatDate(*d.task.StartDate))
	}
	if d.task.DueDate != nil {
		field("Due", formatDate(*d.task.DueDate))
	}
	field("Created", formatTime(d.task.CreatedAt))
	field("Updated", formatTime(d.task.UpdatedAt))

	b.WriteString("\n")
	b.WriteString(d.styles.MenuHeader.Render(fmt.Sprintf("Assignees (%d)", len(d.task.Assignees))))
	b.WriteString("\n")
	if len(d.task.Assignees) == 0 {
		b.WriteString(d.styles.MenuItemDisabled.Render("  Unassigned"))
		b.WriteString("\n")
	}
	for _, u := range d.task.Assignees {
		line := "  " + u.Name
		if u.Email != "" {
			line += " <" + u.Email + ">"
		}
		b.WriteString(d.styles.MenuItem.Render(line))
		b.WriteString(d.styles.Footer.UnsetMarginTop().Render(" · " + u.Role.String()))
		b.WriteString("\n")
	}

	if d.task.Description != "" {
		b.WriteString("\n")
		b.WriteString(d.styles.MenuHeader.Render("Description"))
		b.WriteString("\n")

		descLines := strings.Split(d.task.Description, "\n")
		d.contentHeight = len(descLines)

		end := min(d.scrollY+d.viewHeight, len(descLines))
		for i := d.scrollY; i < end; i++ {
			b.WriteString(d.styles.MenuItem.Render(descLines[i]))
			b.WriteString("\n")
		}

		if d.maxScroll() > 0 {
			b.WriteString(d.styles.Footer.Render(
				fmt.Sprintf("[j/k to scroll, g/G to jump] (line %d/%d)", d.scrollY+1, d.contentHeight),
			))
		}
	}

	b.WriteString(d.styles.Footer.Render("e: edit • a: assign • esc: close"))
	return b.String()
}

// Title returns the overlay title
func (d *DetailPanel) Title() string {
	return "Task Details"
}

// Size returns the overlay dimensions
func (d *DetailPanel) Size() (width, height int) {
	return 70, 30
}

func formatDate(t time.Time) string {
	return t.Format("Mon Jan 2, 2006")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func (d *DetailPanel) maxScroll() int {
	return max(0, d.contentHeight-d.viewHeight)
}
