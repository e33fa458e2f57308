// Package domain contains core business types for tandem.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPriority is applied when the authority omits a priority
const DefaultPriority = "medium"

// Task represents a unit of work owned by exactly one project
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Assignees   []UserRef  `json:"assignees"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ProjectID   string     `json:"projectId"`
	Priority    string     `json:"priority"`
	Labels      string     `json:"labels,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Status represents task status
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists every status in board order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Column returns the kanban column index for this status
func (s Status) Column() int {
	switch s {
	case StatusTodo:
		return 0
	case StatusInProgress:
		return 1
	case StatusDone:
		return 2
	default:
		return 0
	}
}

// Valid reports whether s is one of the three known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Next returns the status one column to the right, clamped at done
func (s Status) Next() Status {
	return StatusAt(s.Column() + 1)
}

// Prev returns the status one column to the left, clamped at todo
func (s Status) Prev() Status {
	return StatusAt(s.Column() - 1)
}

// Label returns the column heading for the status
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return "Todo"
	}
}

// String returns the display string
func (s Status) String() string {
	return string(s)
}

// StatusAt returns the status for a column index, clamping out-of-range values
func StatusAt(column int) Status {
	if column < 0 {
		column = 0
	}
	if column >= len(Statuses) {
		column = len(Statuses) - 1
	}
	return Statuses[column]
}

// ParseStatus parses a canonical status name. Wire values go through the
// gateway's normalizer instead; this is for user input.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(strings.ToLower(s)))
	if !st.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q (want todo, in_progress or done)", s)}
	}
	return st, nil
}

// Normalize recomputes derived fields and fills defaults
func (t Task) Normalize() Task {
	if !t.Status.Valid() {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	t.Completed = t.Status == StatusDone
	return t
}

// WithStatus returns a copy of the task moved to status with Completed recomputed
func (t Task) WithStatus(status Status) Task {
	t.Status = status
	return t.Normalize()
}

// Clone returns a deep copy so snapshots never alias a live record
func (t Task) Clone() Task {
	if t.Assignees != nil {
		t.Assignees = append([]UserRef(nil), t.Assignees...)
	}
	if t.StartDate != nil {
		d := *t.StartDate
		t.StartDate = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

// HasAssignee reports whether the user is already assigned
func (t Task) HasAssignee(userID string) bool {
	for _, a := range t.Assignees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// LabelList splits the comma-delimited label string
func (t Task) LabelList() []string {
	if strings.TrimSpace(t.Labels) == "" {
		return nil
	}
	parts := strings.Split(t.Labels, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// CloneTasks deep-copies a task slice
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// NewTask carries the fields a caller supplies when creating a task
type NewTask struct {
	Title       string
	Description string
	Status      Status
	ProjectID   string
	Priority    string
	Labels      string
	StartDate   *time.Time
	DueDate     *time.Time
	AssigneeIDs []string
}

// Validate performs the local fast-fail checks that precede any network call
func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if strings.TrimSpace(n.ProjectID) == "" {
		return &ValidationError{Field: "projectId", Message: "select a project first", Err: ErrNoProject}
	}
	if n.Status != "" && !n.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", n.Status)}
	}
	if n.StartDate != nil && n.DueDate != nil && n.DueDate.Before(*n.StartDate) {
		return &ValidationError{Field: "dueDate", Message: "due date is before start date"}
	}
	return nil
}

// Patch describes a detail update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Priority    *string
	Labels      *string
	StartDate   *time.Time
	DueDate     *time.Time
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Labels == nil && p.StartDate == nil && p.DueDate == nil
}

// Validate rejects patches that would blank the title
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return &ValidationError{Field: "patch", Message: "nothing to update"}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	return nil
}
