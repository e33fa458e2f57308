package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawObject(t *testing.T, s string) map[string]any {
	t.Helper()
	v, err := decode("test", []byte(s))
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok, "expected JSON object")
	return m
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Status
	}{
		{"todo", domain.StatusTodo},
		{"To-Do", domain.StatusTodo},
		{"pending", domain.StatusTodo},
		{"OPEN", domain.StatusTodo},
		{"not_started", domain.StatusTodo},
		{"in_progress", domain.StatusInProgress},
		{"In Progress", domain.StatusInProgress},
		{"in-progress", domain.StatusInProgress},
		{"doing", domain.StatusInProgress},
		{"review", domain.StatusInProgress},
		{"done", domain.StatusDone},
		{"Completed", domain.StatusDone},
		{"closed", domain.StatusDone},
		{"", domain.StatusTodo},
		{"archived", domain.StatusTodo},
		{"🚀", domain.StatusTodo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeStatus(tt.in)
			assert.Equal(t, tt.want, got)
			// Idempotent
			assert.Equal(t, got, NormalizeStatus(string(got)))
		})
	}
}

func TestNormalizeTask_Aliases(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want domain.Task
	}{
		{
			name: "canonical names",
			raw: `{"id":"t1","title":"Ship","description":"d","status":"in_progress","projectId":"p1",
				"priority":"high","labels":"a,b","startDate":"2025-01-01","dueDate":"2025-01-10T00:00:00Z",
				"createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-01-02T00:00:00Z","assignees":[]}`,
			want: domain.Task{
				ID: "t1", Title: "Ship", Description: "d", Status: domain.StatusInProgress,
				ProjectID: "p1", Priority: "high", Labels: "a,b", Assignees: []domain.UserRef{},
				StartDate: ptrTime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
				DueDate:   ptrTime(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
				CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				UpdatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "legacy names and embedded project",
			raw: `{"_id":"t2","name":"Legacy","desc":"old","state":"Completed","project":{"_id":"p9","name":"P"},
				"tags":["x"," y ",""],"deadline":"2025-02-01","created_at":"2025-01-01T00:00:00Z"}`,
			want: domain.Task{
				ID: "t2", Title: "Legacy", Description: "old", Status: domain.StatusDone, Completed: true,
				ProjectID: "p9", Priority: domain.DefaultPriority, Labels: "x,y",
				DueDate:   ptrTime(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
				CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				UpdatedAt: now,
			},
		},
		{
			name: "numeric project id and unknown status",
			raw:  `{"taskId":7,"taskTitle":"Numbers","taskStatus":"frozen","project_id":42}`,
			want: domain.Task{
				ID: "7", Title: "Numbers", Status: domain.StatusTodo, ProjectID: "42",
				Priority: domain.DefaultPriority, CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "completed flag without status",
			raw:  `{"id":"t3","title":"Flag","completed":true,"projectId":"p1"}`,
			want: domain.Task{
				ID: "t3", Title: "Flag", Status: domain.StatusDone, Completed: true, ProjectID: "p1",
				Priority: domain.DefaultPriority, CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "unparsable dates stay absent",
			raw:  `{"id":"t4","title":"Dates","projectId":"p1","startDate":"soon","dueDate":null}`,
			want: domain.Task{
				ID: "t4", Title: "Dates", Status: domain.StatusTodo, ProjectID: "p1",
				Priority: domain.DefaultPriority, CreatedAt: now, UpdatedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeTask(rawObject(t, tt.raw)).Full(now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTask_Assignees(t *testing.T) {
	raw := rawObject(t, `{"id":"t1","assignedTo":[
		{"_id":"u1","username":"ann","role":"Developer"},
		"u2",
		{"user":{"id":"u3","fullName":"Cy","role":"intern"}},
		{"id":"u1","name":"duplicate"},
		3
	]}`)

	got := normalizeTask(raw).Task.Assignees

	require.Len(t, got, 4)
	assert.Equal(t, domain.UserRef{ID: "u1", Name: "ann", Role: domain.RoleDeveloper}, got[0])
	assert.Equal(t, domain.UserRef{ID: "u2", Role: domain.RoleUnknown}, got[1])
	assert.Equal(t, domain.UserRef{ID: "u3", Name: "Cy", Role: domain.RoleIntern}, got[2])
	assert.Equal(t, "3", got[3].ID)
}

func TestNormalizeUser(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.User
	}{
		{
			name: "canonical",
			raw:  `{"id":"u1","name":"Joanna","email":"j@x.io","role":"Assistant Manager","avatar":"a.png","departmentId":"7","organization":"Acme"}`,
			want: domain.User{ID: "u1", Name: "Joanna", Email: "j@x.io", Role: domain.RoleAssistantManager, Avatar: "a.png", DepartmentID: "7", Organization: "Acme"},
		},
		{
			name: "embedded department and org",
			raw:  `{"_id":"u2","displayName":"Dev","userRole":"DEVELOPER","department":{"_id":3,"name":"Eng"},"org":{"name":"Acme"},"avatarUrl":"b.png"}`,
			want: domain.User{ID: "u2", Name: "Dev", Role: domain.RoleDeveloper, Avatar: "b.png", DepartmentID: "3", Organization: "Acme"},
		},
		{
			name: "unknown role",
			raw:  `{"userId":"u3","role":"wizard"}`,
			want: domain.User{ID: "u3", Role: domain.RoleUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeUser(rawObject(t, tt.raw)))
		})
	}
}

func TestNormalizeProject(t *testing.T) {
	p := normalizeProject(rawObject(t, `{"_id":"p1","title":"Apollo","description":"moon","client":"NASA","budget":1000}`))

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Apollo", p.Name)
	assert.Equal(t, "moon", p.Description)
	assert.Equal(t, "NASA", p.Meta["client"])
	assert.Equal(t, json.Number("1000"), p.Meta["budget"])
	assert.NotContains(t, p.Meta, "_id")
}

func TestPartial_MergeInto(t *testing.T) {
	prior := domain.Task{
		ID: "t1", Title: "Old", Description: "keep me", Status: domain.StatusTodo,
		ProjectID: "p1", Priority: "low", Labels: "a",
	}
	p := normalizeTask(rawObject(t, `{"id":"t1","title":"New","status":"done"}`))

	got := p.MergeInto(prior)

	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "keep me", got.Description)
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.True(t, got.Completed)
	assert.Equal(t, "low", got.Priority)
	assert.Equal(t, "a", got.Labels)
	// Prior record untouched
	assert.Equal(t, "Old", prior.Title)
}

func TestUnwrapList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":"1"},{"id":"2"}]`, 2},
		{"tasks envelope", `{"tasks":[{"id":"1"}]}`, 1},
		{"data envelope", `{"data":[{"id":"1"},{"id":"2"},{"id":"3"}]}`, 3},
		{"nested envelope", `{"data":{"users":[{"id":"1"}]}}`, 1},
		{"non-object items skipped", `[{"id":"1"}, 5, "x"]`, 1},
		{"no list", `{"message":"ok"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := decode("test", []byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, unwrapList(v), tt.want)
		})
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"Title taken"}`, "Title taken"},
		{"error string", `{"error":"Forbidden"}`, "Forbidden"},
		{"error object", `{"error":{"message":"nested"}}`, "nested"},
		{"detail", `{"detail":"bad id"}`, "bad id"},
		{"msg", `{"msg":"nope"}`, "nope"},
		{"errors array", `{"errors":[{"message":"first"},{"message":"second"}]}`, "first"},
		{"plain text", `service unavailable`, "service unavailable"},
		{"html page", `<html><body>502</body></html>`, ""},
		{"empty", ``, ""},
		{"json without detail", `{"ok":false}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDetail([]byte(tt.body)))
		})
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
