package domain

import (
	"sort"
	"strings"
)

// SortField represents a field to sort by
type SortField string

const (
	SortNone       SortField = ""
	SortByPriority SortField = "priority"
	SortByUpdated  SortField = "updated"
	SortByDue      SortField = "due"
)

// SortOrder represents sort direction
type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

// Sort represents presentation ordering. It never touches stored order.
type Sort struct {
	Field SortField
	Order SortOrder
}

// Toggle toggles the sort field or direction
// If field is different, sets new field with ascending order
// If field is same, toggles between ascending and descending
func (s *Sort) Toggle(field SortField) {
	if s.Field == field {
		if s.Order == SortAsc {
			s.Order = SortDesc
		} else {
			s.Order = SortAsc
		}
	} else {
		s.Field = field
		s.Order = SortAsc
	}
}

// Apply sorts a copy of tasks
func (s *Sort) Apply(tasks []Task) []Task {
	result := make([]Task, len(tasks))
	copy(result, tasks)
	if len(result) == 0 || s.Field == SortNone {
		return result
	}

	less := func(i, j int) bool { return false }
	switch s.Field {
	case SortByPriority:
		less = func(i, j int) bool {
			return PriorityRank(result[i].Priority) < PriorityRank(result[j].Priority)
		}
	case SortByUpdated:
		less = func(i, j int) bool {
			return result[i].UpdatedAt.Before(result[j].UpdatedAt)
		}
	case SortByDue:
		less = func(i, j int) bool {
			return result[i].DueDate.Before(*result[j].DueDate)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if s.Field == SortByDue {
			// Tasks without a due date sink to the bottom in either order
			a, b := result[i].DueDate, result[j].DueDate
			if a == nil || b == nil {
				return a != nil && b == nil
			}
		}
		if s.Order == SortAsc {
			return less(i, j)
		}
		return less(j, i)
	})
	return result
}

// PriorityRank orders the free-form priority strings. Unknown values rank
// after low.
func PriorityRank(p string) int {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "urgent", "critical":
		return 0
	case "high":
		return 1
	case "medium", "":
		return 2
	case "low":
		return 3
	default:
		return 4
	}
}
