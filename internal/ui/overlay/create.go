package overlay

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/domain"
)

// dateLayout is the form's date format
const dateLayout = "2006-01-02"

// CreateTaskMsg is emitted when the create form is submitted
type CreateTaskMsg struct {
	Task domain.NewTask
}

// UpdateDetailsMsg is emitted when the edit form is submitted with changes
type UpdateDetailsMsg struct {
	TaskID string
	Patch  domain.Patch
}

// Priorities lists the form's priority choices, most urgent first
var Priorities = []string{"urgent", "high", "medium", "low"}

const (
	focusTitle = iota
	focusDescription
	focusPriority
	focusDue
	focusLabels
	focusSubmit
	focusCount
)

// TaskForm creates a task, or edits an existing one's details
type TaskForm struct {
	editing     *domain.Task
	projectID   string
	status      domain.Status
	title       textinput.Model
	description textarea.Model
	due         textinput.Model
	labels      textinput.Model
	priority    string
	focusIndex  int
	err         string
	styles      *Styles
}

// NewCreateTaskForm opens a blank form creating a task in projectID with
// the given initial status
func NewCreateTaskForm(projectID string, status domain.Status) *TaskForm {
	f := newTaskForm()
	f.projectID = projectID
	f.status = status
	return f
}

// NewEditTaskForm opens a form prefilled with task's details
func NewEditTaskForm(task domain.Task) *TaskForm {
	f := newTaskForm()
	f.editing = &task
	f.projectID = task.ProjectID
	f.status = task.Status
	f.title.SetValue(task.Title)
	f.description.SetValue(task.Description)
	f.labels.SetValue(task.Labels)
	if task.DueDate != nil {
		f.due.SetValue(task.DueDate.Format(dateLayout))
	}
	if task.Priority != "" {
		f.priority = task.Priority
	}
	return f
}

func newTaskForm() *TaskForm {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	ta := textarea.New()
	ta.Placeholder = "Description (optional)..."
	ta.CharLimit = 2000
	ta.SetWidth(60)
	ta.SetHeight(4)

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD"
	due.CharLimit = 10
	due.Width = 12

	labels := textinput.New()
	labels.Placeholder = "comma,separated"
	labels.CharLimit = 200
	labels.Width = 40

	return &TaskForm{
		title:       ti,
		description: ta,
		due:         due,
		labels:      labels,
		priority:    domain.DefaultPriority,
		styles:      New(),
	}
}

// Init initializes the overlay
func (f *TaskForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (f *TaskForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return f, closeCmd

		case "ctrl+s":
			return f, f.submit()

		case "tab":
			f.setFocus((f.focusIndex + 1) % focusCount)
			return f, nil

		case "shift+tab":
			f.setFocus((f.focusIndex - 1 + focusCount) % focusCount)
			return f, nil

		case "enter":
			switch f.focusIndex {
			case focusSubmit:
				return f, f.submit()
			case focusDescription:
				// newline in the textarea
			default:
				f.setFocus(f.focusIndex + 1)
				return f, nil
			}
		}

		if f.focusIndex == focusPriority {
			switch key.String() {
			case "1", "2", "3", "4":
				f.priority = Priorities[key.Runes[0]-'1']
			case "left", "h":
				f.shiftPriority(-1)
			case "right", "l":
				f.shiftPriority(1)
			}
			return f, nil
		}
	}

	var cmd tea.Cmd
	switch f.focusIndex {
	case focusTitle:
		f.title, cmd = f.title.Update(msg)
	case focusDescription:
		f.description, cmd = f.description.Update(msg)
	case focusDue:
		f.due, cmd = f.due.Update(msg)
	case focusLabels:
		f.labels, cmd = f.labels.Update(msg)
	}
	return f, cmd
}

func (f *TaskForm) shiftPriority(delta int) {
	i := 0
	for j, p := range Priorities {
		if p == f.priority {
			i = j
		}
	}
	i = (i + delta + len(Priorities)) % len(Priorities)
	f.priority = Priorities[i]
}

func (f *TaskForm) setFocus(i int) {
	f.focusIndex = i
	f.title.Blur()
	f.description.Blur()
	f.due.Blur()
	f.labels.Blur()
	switch i {
	case focusTitle:
		f.title.Focus()
	case focusDescription:
		f.description.Focus()
	case focusDue:
		f.due.Focus()
	case focusLabels:
		f.labels.Focus()
	}
}

// submit validates locally and emits the create or update request
func (f *TaskForm) submit() tea.Cmd {
	f.err = ""
	title := strings.TrimSpace(f.title.Value())
	if title == "" {
		f.err = "Title is required"
		f.setFocus(focusTitle)
		return nil
	}

	var due *time.Time
	if v := strings.TrimSpace(f.due.Value()); v != "" {
		d, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			f.err = "Due date must look like 2026-01-31"
			f.setFocus(focusDue)
			return nil
		}
		due = &d
	}
	description := strings.TrimSpace(f.description.Value())
	labels := normalizeLabels(f.labels.Value())

	if f.editing == nil {
		return emit(CreateTaskMsg{Task: domain.NewTask{
			Title:       title,
			Description: description,
			Status:      f.status,
			ProjectID:   f.projectID,
			Priority:    f.priority,
			Labels:      labels,
			DueDate:     due,
		}})
	}

	patch := f.patch(title, description, labels, due)
	if patch.IsEmpty() {
		return closeCmd
	}
	return emit(UpdateDetailsMsg{TaskID: f.editing.ID, Patch: patch})
}

// patch carries only the fields that differ from the task being edited
func (f *TaskForm) patch(title, description, labels string, due *time.Time) domain.Patch {
	t := f.editing
	var p domain.Patch
	if title != t.Title {
		p.Title = &title
	}
	if description != t.Description {
		p.Description = &description
	}
	if f.priority != t.Priority {
		priority := f.priority
		p.Priority = &priority
	}
	if labels != t.Labels {
		p.Labels = &labels
	}
	if due != nil && (t.DueDate == nil || due.Format(dateLayout) != t.DueDate.Format(dateLayout)) {
		p.DueDate = due
	}
	return p
}

// normalizeLabels trims each label and drops empties
func normalizeLabels(s string) string {
	var out []string
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, ",")
}

// View renders the form
func (f *TaskForm) View() string {
	var b strings.Builder

	label := func(i int, text string) string {
		if f.focusIndex == i {
			return f.styles.LabelActive.Render(text)
		}
		return f.styles.Label.Render(text)
	}

	b.WriteString(label(focusTitle, "Title:") + "  " + f.title.View() + "\n\n")
	b.WriteString(label(focusDescription, "Description:") + "\n" + f.description.View() + "\n\n")
	b.WriteString(label(focusPriority, "Priority:") + "  " + f.renderPriority() + "\n\n")
	b.WriteString(label(focusDue, "Due:") + "  " + f.due.View() + "\n\n")
	b.WriteString(label(focusLabels, "Labels:") + "  " + f.labels.View() + "\n\n")

	if f.err != "" {
		b.WriteString(f.styles.Error.Render(f.err) + "\n\n")
	}

	submitStyle := f.styles.MenuItem
	if f.focusIndex == focusSubmit {
		submitStyle = f.styles.MenuItemActive
	}
	action := "[ Create Task ]"
	if f.editing != nil {
		action = "[ Save Changes ]"
	}
	b.WriteString(submitStyle.Render(action))
	b.WriteString("\n")

	hints := []string{
		f.styles.MenuKey.Render("Tab") + " " + f.styles.Footer.UnsetMarginTop().Render("Switch fields"),
		f.styles.MenuKey.Render("Ctrl+S") + " " + f.styles.Footer.UnsetMarginTop().Render("Submit"),
		f.styles.MenuKey.Render("Esc") + " " + f.styles.Footer.UnsetMarginTop().Render("Cancel"),
	}
	b.WriteString(f.styles.Footer.Render(strings.Join(hints, " • ")))

	return b.String()
}

func (f *TaskForm) renderPriority() string {
	var parts []string
	for i, p := range Priorities {
		style := f.styles.MenuItem
		indicator := " "
		if p == f.priority {
			style = f.styles.MenuItemActive
			indicator = "●"
		}
		parts = append(parts, style.Render(fmt.Sprintf("[%s%d %s]", indicator, i+1, p)))
	}
	return strings.Join(parts, " ")
}

// Title returns the overlay title
func (f *TaskForm) Title() string {
	if f.editing != nil {
		return "Edit Task"
	}
	return "New Task in " + f.status.Label()
}

// Size returns the overlay dimensions
func (f *TaskForm) Size() (width, height int) {
	return 72, 26
}
