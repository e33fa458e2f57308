package domain

import (
	"strings"
	"unicode"
)

// Role is a position in the closed organisational hierarchy.
// Lower values rank higher; RoleUnknown sorts below everything.
type Role int

const (
	RoleCEO Role = iota
	RoleManager
	RoleAssistantManager
	RoleDeveloper
	RoleIntern
	RoleUnknown
)

// Roles lists the known roles from most to least senior
var Roles = []Role{RoleCEO, RoleManager, RoleAssistantManager, RoleDeveloper, RoleIntern}

func (r Role) String() string {
	switch r {
	case RoleCEO:
		return "CEO"
	case RoleManager:
		return "Manager"
	case RoleAssistantManager:
		return "Assistant Manager"
	case RoleDeveloper:
		return "Developer"
	case RoleIntern:
		return "Intern"
	default:
		return "Unknown"
	}
}

// Outranks reports whether r is strictly above other in the hierarchy
func (r Role) Outranks(other Role) bool {
	return r != RoleUnknown && r < other
}

// ParseRole folds case, spaces, dashes and underscores. Unknown input
// yields RoleUnknown, never an error.
func ParseRole(s string) Role {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	switch b.String() {
	case "ceo":
		return RoleCEO
	case "manager":
		return RoleManager
	case "assistantmanager", "asstmanager":
		return RoleAssistantManager
	case "developer", "dev":
		return RoleDeveloper
	case "intern":
		return RoleIntern
	default:
		return RoleUnknown
	}
}

// MarshalText encodes the role by name
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role leniently
func (r *Role) UnmarshalText(b []byte) error {
	*r = ParseRole(string(b))
	return nil
}

// UserRef is the lightweight assignee reference embedded in a task
type UserRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// User is a search result with department and organisation populated
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Avatar       string `json:"avatar,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// Ref drops the search-only fields
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Avatar: u.Avatar}
}

// Project is carried for display and as the task foreign key. Meta holds
// client, dates, status and budget fields the engine never interprets.
type Project struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// QueryKind is the shape a user search query is classified into
type QueryKind string

const (
	QueryUsername   QueryKind = "username"
	QueryEmail      QueryKind = "email"
	QueryDepartment QueryKind = "department"
)

// SearchQuery is a classified user lookup
type SearchQuery struct {
	Kind          QueryKind
	Term          string
	ExcludeTaskID string
}

// ClassifyQuery picks exactly one query shape: email when the term contains
// '@', department when it is all digits, username otherwise.
func ClassifyQuery(term, excludeTaskID string) SearchQuery {
	term = strings.TrimSpace(term)
	q := SearchQuery{Kind: QueryUsername, Term: term, ExcludeTaskID: strings.TrimSpace(excludeTaskID)}
	switch {
	case strings.Contains(term, "@"):
		q.Kind = QueryEmail
	case term != "" && isDigits(term):
		q.Kind = QueryDepartment
	}
	return q
}

// Key serializes the request parameters; it is the search cache key
func (q SearchQuery) Key() string {
	return "kind=" + string(q.Kind) + "&q=" + q.Term + "&exclude=" + q.ExcludeTaskID
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
