package domain

import "strings"

// View selects which statuses a board shows
type View string

const (
	ViewAll     View = "all"
	ViewActive  View = "active"
	ViewBacklog View = "backlog"
	ViewDone    View = "done"
)

// Views lists the views in cycling order
var Views = []View{ViewAll, ViewActive, ViewBacklog, ViewDone}

// ParseView returns the named view, falling back to all
func ParseView(s string) View {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Views {
		if v == known {
			return v
		}
	}
	return ViewAll
}

// Includes reports whether a status is visible in this view.
// active = todo ∪ in_progress, backlog = todo, done = done.
func (v View) Includes(s Status) bool {
	switch v {
	case ViewActive:
		return s == StatusTodo || s == StatusInProgress
	case ViewBacklog:
		return s == StatusTodo
	case ViewDone:
		return s == StatusDone
	default:
		return true
	}
}

// Next cycles to the following view
func (v View) Next() View {
	for i, known := range Views {
		if known == v {
			return Views[(i+1)%len(Views)]
		}
	}
	return ViewAll
}

// Filter represents task filtering state
type Filter struct {
	View  View
	Query string
}

// NewFilter creates a new filter showing everything
func NewFilter() *Filter {
	return &Filter{View: ViewAll}
}

// IsActive returns true if the filter hides anything
func (f *Filter) IsActive() bool {
	return (f.View != "" && f.View != ViewAll) || strings.TrimSpace(f.Query) != ""
}

// Apply returns the tasks passing the filter, preserving input order
func (f *Filter) Apply(tasks []Task) []Task {
	result := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if f.Matches(task) {
			result = append(result, task)
		}
	}
	return result
}

// Matches returns true if the task passes both the view and the query
func (f *Filter) Matches(t Task) bool {
	if !f.View.Includes(t.Status) {
		return false
	}

	// Search query (case-insensitive, matches title, description or labels)
	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), query) ||
		strings.Contains(strings.ToLower(t.Description), query) ||
		strings.Contains(strings.ToLower(t.Labels), query)
}

// Clear resets the filter
func (f *Filter) Clear() {
	f.View = ViewAll
	f.Query = ""
}
