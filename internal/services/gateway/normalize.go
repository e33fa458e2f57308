package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/riordanpawley/tandem/internal/domain"
)

// Historical wire names for each canonical field, in lookup order.
var (
	taskIDKeys          = []string{"id", "_id", "taskId"}
	taskTitleKeys       = []string{"title", "name", "taskTitle"}
	taskDescriptionKeys = []string{"description", "desc", "details"}
	taskStatusKeys      = []string{"status", "state", "taskStatus"}
	taskAssigneeKeys    = []string{"assignees", "assignedTo", "assigned_to", "users", "members"}
	taskStartKeys       = []string{"startDate", "start_date", "startAt"}
	taskDueKeys         = []string{"dueDate", "due_date", "deadline", "endDate"}
	taskProjectKeys     = []string{"projectId", "project_id", "project"}
	taskPriorityKeys    = []string{"priority"}
	taskLabelKeys       = []string{"labels", "tags"}
	createdKeys         = []string{"createdAt", "created_at"}
	updatedKeys         = []string{"updatedAt", "updated_at"}

	userIDKeys     = []string{"id", "_id", "userId"}
	userNameKeys   = []string{"name", "username", "fullName", "displayName"}
	userEmailKeys  = []string{"email"}
	userRoleKeys   = []string{"role", "userRole"}
	userAvatarKeys = []string{"avatar", "avatarUrl", "profilePicture"}
	userDeptKeys   = []string{"department", "departmentId", "dept"}
	userOrgKeys    = []string{"organization", "organizationId", "org"}

	projectIDKeys          = []string{"id", "_id", "projectId"}
	projectNameKeys        = []string{"name", "title", "projectName"}
	projectDescriptionKeys = []string{"description"}

	listEnvelopeKeys = []string{"tasks", "data", "items", "users", "projects", "results"}
)

// statusAliases folds every known status spelling onto the canonical three.
// Keys are lowercased with separators removed.
var statusAliases = map[string]domain.Status{
	"todo":       domain.StatusTodo,
	"pending":    domain.StatusTodo,
	"open":       domain.StatusTodo,
	"new":        domain.StatusTodo,
	"backlog":    domain.StatusTodo,
	"notstarted": domain.StatusTodo,

	"inprogress": domain.StatusInProgress,
	"progress":   domain.StatusInProgress,
	"doing":      domain.StatusInProgress,
	"active":     domain.StatusInProgress,
	"started":    domain.StatusInProgress,
	"inreview":   domain.StatusInProgress,
	"review":     domain.StatusInProgress,

	"done":      domain.StatusDone,
	"completed": domain.StatusDone,
	"complete":  domain.StatusDone,
	"closed":    domain.StatusDone,
	"finished":  domain.StatusDone,
	"resolved":  domain.StatusDone,
}

// NormalizeStatus folds a wire status onto todo, in_progress or done.
// Case and separators are ignored; unknown values become todo.
func NormalizeStatus(s string) domain.Status {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	if st, ok := statusAliases[b.String()]; ok {
		return st
	}
	return domain.StatusTodo
}

// Field names a canonical task field for partial responses
type Field int

const (
	FieldID Field = iota
	FieldTitle
	FieldDescription
	FieldStatus
	FieldAssignees
	FieldStartDate
	FieldDueDate
	FieldProject
	FieldPriority
	FieldLabels
	FieldCreatedAt
	FieldUpdatedAt
)

// Partial is a normalized task that remembers which fields the server sent
type Partial struct {
	Task   domain.Task
	fields map[Field]bool
}

// Has reports whether the response carried f
func (p Partial) Has(f Field) bool {
	return p.fields[f]
}

// MergeInto copies only the fields present in the response onto t; absent
// fields keep their prior local value. Completed is recomputed.
func (p Partial) MergeInto(t domain.Task) domain.Task {
	t = t.Clone()
	src := p.Task
	if p.Has(FieldTitle) {
		t.Title = src.Title
	}
	if p.Has(FieldDescription) {
		t.Description = src.Description
	}
	if p.Has(FieldStatus) {
		t.Status = src.Status
	}
	if p.Has(FieldAssignees) {
		t.Assignees = append([]domain.UserRef(nil), src.Assignees...)
	}
	if p.Has(FieldStartDate) {
		t.StartDate = src.StartDate
	}
	if p.Has(FieldDueDate) {
		t.DueDate = src.DueDate
	}
	if p.Has(FieldProject) {
		t.ProjectID = src.ProjectID
	}
	if p.Has(FieldPriority) {
		t.Priority = src.Priority
	}
	if p.Has(FieldLabels) {
		t.Labels = src.Labels
	}
	if p.Has(FieldUpdatedAt) {
		t.UpdatedAt = src.UpdatedAt
	}
	return t.Normalize()
}

// Full fills defaults for every absent field: todo status, medium
// priority and now for the timestamps. Other absent fields stay empty.
func (p Partial) Full(now time.Time) domain.Task {
	t := p.Task
	if !p.Has(FieldCreatedAt) {
		t.CreatedAt = now
	}
	if !p.Has(FieldUpdatedAt) {
		t.UpdatedAt = now
	}
	return t.Normalize()
}

// normalizeTask maps one raw wire object onto the canonical task shape
func normalizeTask(raw map[string]any) Partial {
	p := Partial{fields: make(map[Field]bool)}
	t := &p.Task

	if v, ok := lookup(raw, taskIDKeys); ok {
		t.ID = asString(v)
		p.fields[FieldID] = true
	}
	if v, ok := lookup(raw, taskTitleKeys); ok {
		t.Title = asString(v)
		p.fields[FieldTitle] = true
	}
	if v, ok := lookup(raw, taskDescriptionKeys); ok {
		t.Description = asString(v)
		p.fields[FieldDescription] = true
	}
	if v, ok := lookup(raw, taskStatusKeys); ok {
		t.Status = NormalizeStatus(asString(v))
		p.fields[FieldStatus] = true
	} else if v, ok := raw["completed"].(bool); ok {
		// Oldest payloads only carried a completed flag
		t.Status = domain.StatusTodo
		if v {
			t.Status = domain.StatusDone
		}
		p.fields[FieldStatus] = true
	}
	if v, ok := lookup(raw, taskAssigneeKeys); ok {
		t.Assignees = normalizeAssignees(v)
		p.fields[FieldAssignees] = true
	}
	if v, ok := lookup(raw, taskStartKeys); ok {
		t.StartDate = parseTime(v)
		p.fields[FieldStartDate] = true
	}
	if v, ok := lookup(raw, taskDueKeys); ok {
		t.DueDate = parseTime(v)
		p.fields[FieldDueDate] = true
	}
	if v, ok := lookup(raw, taskProjectKeys); ok {
		t.ProjectID = refID(v, projectIDKeys)
		p.fields[FieldProject] = true
	}
	if v, ok := lookup(raw, taskPriorityKeys); ok {
		if s := strings.TrimSpace(asString(v)); s != "" {
			t.Priority = strings.ToLower(s)
			p.fields[FieldPriority] = true
		}
	}
	if v, ok := lookup(raw, taskLabelKeys); ok {
		t.Labels = joinLabels(v)
		p.fields[FieldLabels] = true
	}
	if v, ok := lookup(raw, createdKeys); ok {
		if ts := parseTime(v); ts != nil {
			t.CreatedAt = *ts
			p.fields[FieldCreatedAt] = true
		}
	}
	if v, ok := lookup(raw, updatedKeys); ok {
		if ts := parseTime(v); ts != nil {
			t.UpdatedAt = *ts
			p.fields[FieldUpdatedAt] = true
		}
	}

	t.Completed = t.Status == domain.StatusDone
	return p
}

// normalizeUser maps a raw wire object onto the canonical user shape
func normalizeUser(raw map[string]any) domain.User {
	// Assignment records sometimes nest the user
	if nested, ok := raw["user"].(map[string]any); ok {
		raw = nested
	}

	u := domain.User{Role: domain.RoleUnknown}
	if v, ok := lookup(raw, userIDKeys); ok {
		u.ID = asString(v)
	}
	if v, ok := lookup(raw, userNameKeys); ok {
		u.Name = asString(v)
	}
	if v, ok := lookup(raw, userEmailKeys); ok {
		u.Email = asString(v)
	}
	if v, ok := lookup(raw, userRoleKeys); ok {
		u.Role = domain.ParseRole(asString(v))
	}
	if v, ok := lookup(raw, userAvatarKeys); ok {
		u.Avatar = asString(v)
	}
	if v, ok := lookup(raw, userDeptKeys); ok {
		u.DepartmentID = refID(v, []string{"id", "_id", "departmentId"})
	}
	if v, ok := lookup(raw, userOrgKeys); ok {
		if m, isObj := v.(map[string]any); isObj {
			if name, ok := lookup(m, []string{"name", "title"}); ok {
				u.Organization = asString(name)
			} else {
				u.Organization = refID(m, []string{"id", "_id"})
			}
		} else {
			u.Organization = asString(v)
		}
	}
	return u
}

// normalizeProject maps a raw wire object onto the canonical project shape.
// Every key that is not identity, name or description passes through.
func normalizeProject(raw map[string]any) domain.Project {
	p := domain.Project{Meta: make(map[string]any)}
	used := make(map[string]bool)

	if k, v, ok := lookupKey(raw, projectIDKeys); ok {
		p.ID = asString(v)
		used[k] = true
	}
	if k, v, ok := lookupKey(raw, projectNameKeys); ok {
		p.Name = asString(v)
		used[k] = true
	}
	if k, v, ok := lookupKey(raw, projectDescriptionKeys); ok {
		p.Description = asString(v)
		used[k] = true
	}
	for k, v := range raw {
		if !used[k] {
			p.Meta[k] = v
		}
	}
	if len(p.Meta) == 0 {
		p.Meta = nil
	}
	return p
}

// normalizeAssignees accepts objects or bare ids and drops duplicates
func normalizeAssignees(v any) []domain.UserRef {
	items, ok := v.([]any)
	if !ok {
		// A single assignee object or id
		if v == nil {
			return []domain.UserRef{}
		}
		items = []any{v}
	}

	refs := make([]domain.UserRef, 0, len(items))
	seen := make(map[string]bool)
	for _, item := range items {
		var ref domain.UserRef
		switch it := item.(type) {
		case map[string]any:
			ref = normalizeUser(it).Ref()
		default:
			ref = domain.UserRef{ID: asString(it), Role: domain.RoleUnknown}
		}
		if ref.ID == "" || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		refs = append(refs, ref)
	}
	return refs
}

// lookup returns the first present, non-null value among keys
func lookup(raw map[string]any, keys []string) (any, bool) {
	_, v, ok := lookupKey(raw, keys)
	return v, ok
}

func lookupKey(raw map[string]any, keys []string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}

// refID resolves a foreign key given as string, number or embedded object
func refID(v any, idKeys []string) string {
	if m, ok := v.(map[string]any); ok {
		if id, ok := lookup(m, idKeys); ok {
			return asString(id)
		}
		return ""
	}
	return asString(v)
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func joinLabels(v any) string {
	items, ok := v.([]any)
	if !ok {
		return asString(v)
	}
	labels := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if m, isObj := item.(map[string]any); isObj {
			if name, ok := lookup(m, []string{"name", "label", "title"}); ok {
				s = asString(name)
			}
		} else {
			s = asString(item)
		}
		if s = strings.TrimSpace(s); s != "" {
			labels = append(labels, s)
		}
	}
	return strings.Join(labels, ",")
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime parses an ISO-8601 value. Absent or unparsable values stay nil.
func parseTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
