package overlay

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitForm(t *testing.T, f *TaskForm) []tea.Msg {
	t.Helper()
	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	return collect(cmd)
}

func TestTaskForm_Create(t *testing.T) {
	f := NewCreateTaskForm("P1", domain.StatusInProgress)
	assert.Equal(t, "New Task in In Progress", f.Title())

	typeText(f, "Ship login")

	// Priority field: tab twice, pick urgent
	f.Update(keyType(tea.KeyTab))
	f.Update(keyType(tea.KeyTab))
	f.Update(keyRunes("1"))

	// Due and labels
	f.Update(keyType(tea.KeyTab))
	typeText(f, "2026-04-01")
	f.Update(keyType(tea.KeyTab))
	typeText(f, " auth , ,web ")

	msgs := submitForm(t, f)
	created, ok := find[CreateTaskMsg](msgs)
	require.True(t, ok, "expected CreateTaskMsg")
	assert.True(t, hasClose(msgs))

	task := created.Task
	assert.Equal(t, "Ship login", task.Title)
	assert.Equal(t, "P1", task.ProjectID)
	assert.Equal(t, domain.StatusInProgress, task.Status)
	assert.Equal(t, "urgent", task.Priority)
	assert.Equal(t, "auth,web", task.Labels)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-04-01", task.DueDate.Format(dateLayout))
	assert.NoError(t, task.Validate())
}

func TestTaskForm_DefaultsToMedium(t *testing.T) {
	f := NewCreateTaskForm("P1", domain.StatusTodo)
	typeText(f, "Write docs")

	created, ok := find[CreateTaskMsg](submitForm(t, f))
	require.True(t, ok)
	assert.Equal(t, domain.DefaultPriority, created.Task.Priority)
	assert.Nil(t, created.Task.DueDate)
	assert.Empty(t, created.Task.Labels)
}

func TestTaskForm_RequiresTitle(t *testing.T) {
	f := NewCreateTaskForm("P1", domain.StatusTodo)
	typeText(f, "   ")

	msgs := submitForm(t, f)
	assert.Empty(t, msgs)
	assert.Contains(t, f.View(), "Title is required")
	assert.Equal(t, focusTitle, f.focusIndex)
}

func TestTaskForm_BadDueDate(t *testing.T) {
	f := NewCreateTaskForm("P1", domain.StatusTodo)
	typeText(f, "Ship")
	f.setFocus(focusDue)
	typeText(f, "tomorrow")

	msgs := submitForm(t, f)
	assert.Empty(t, msgs)
	assert.Contains(t, f.View(), "Due date must look like")
	assert.Equal(t, focusDue, f.focusIndex)
}

func TestTaskForm_PriorityCycles(t *testing.T) {
	f := NewCreateTaskForm("P1", domain.StatusTodo)
	f.setFocus(focusPriority)

	f.Update(keyRunes("l"))
	assert.Equal(t, "low", f.priority)
	f.Update(keyRunes("l"))
	assert.Equal(t, "urgent", f.priority, "wraps around")
	f.Update(keyRunes("h"))
	assert.Equal(t, "low", f.priority)
}

func TestTaskForm_EnterAdvancesFocus(t *testing.T) {
	f := NewCreateTaskForm("P1", domain.StatusTodo)
	f.Update(keyType(tea.KeyEnter))
	assert.Equal(t, focusDescription, f.focusIndex)

	f.Update(keyType(tea.KeyShiftTab))
	f.Update(keyType(tea.KeyShiftTab))
	assert.Equal(t, focusSubmit, f.focusIndex)
}

func TestTaskForm_Esc(t *testing.T) {
	f := NewCreateTaskForm("P1", domain.StatusTodo)
	_, cmd := f.Update(keyType(tea.KeyEsc))
	assert.True(t, hasClose(collect(cmd)))
}

func TestTaskForm_EditEmitsChangedFields(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.Local)
	task := domain.Task{
		ID:          "T1",
		Title:       "Old",
		Description: "keep",
		Status:      domain.StatusTodo,
		ProjectID:   "P1",
		Priority:    "high",
		Labels:      "api",
		DueDate:     &due,
	}

	f := NewEditTaskForm(task)
	assert.Equal(t, "Edit Task", f.Title())
	assert.Equal(t, "high", f.priority)
	assert.Equal(t, "2026-05-01", f.due.Value())

	f.title.SetValue("New")
	f.labels.SetValue("api,backend")

	msgs := submitForm(t, f)
	update, ok := find[UpdateDetailsMsg](msgs)
	require.True(t, ok, "expected UpdateDetailsMsg")
	assert.Equal(t, "T1", update.TaskID)

	p := update.Patch
	require.NotNil(t, p.Title)
	assert.Equal(t, "New", *p.Title)
	require.NotNil(t, p.Labels)
	assert.Equal(t, "api,backend", *p.Labels)
	assert.Nil(t, p.Description)
	assert.Nil(t, p.Priority)
	assert.Nil(t, p.DueDate)
}

func TestTaskForm_EditWithoutChangesCloses(t *testing.T) {
	f := NewEditTaskForm(domain.Task{ID: "T1", Title: "Same", Priority: "medium"})

	msgs := submitForm(t, f)
	_, updated := find[UpdateDetailsMsg](msgs)
	assert.False(t, updated)
	assert.True(t, hasClose(msgs))
}

func TestTaskForm_View(t *testing.T) {
	f := NewCreateTaskForm("P1", domain.StatusTodo)
	view := f.View()
	for _, want := range []string{"Title:", "Description:", "Priority:", "Due:", "Labels:", "[ Create Task ]", "Ctrl+S"} {
		assert.True(t, strings.Contains(view, want), "view missing %q", want)
	}

	edit := NewEditTaskForm(domain.Task{ID: "T1", Title: "x"})
	assert.Contains(t, edit.View(), "[ Save Changes ]")
}
