package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
)

// UserPage is one search response
type UserPage struct {
	Users []domain.User
	// Excluded is the server's count of users it withheld, when reported
	Excluded int
}

// SearchUsers runs one classified user lookup
func (c *Client) SearchUsers(ctx context.Context, s auth.Session, q domain.SearchQuery) (UserPage, error) {
	c.logger.Debug("searching users", "kind", q.Kind, "term", q.Term, "exclude", q.ExcludeTaskID)

	params := url.Values{}
	switch q.Kind {
	case domain.QueryEmail:
		params.Set("email", q.Term)
	case domain.QueryDepartment:
		params.Set("departmentId", q.Term)
	default:
		params.Set("username", q.Term)
	}
	if q.ExcludeTaskID != "" {
		params.Set("excludeTaskId", q.ExcludeTaskID)
	}

	raw, err := c.do(ctx, s, "search-users", http.MethodGet, "/users/search", params, nil)
	if err != nil {
		return UserPage{}, err
	}
	v, err := decode("search-users", raw)
	if err != nil {
		return UserPage{}, err
	}

	items := unwrapList(v)
	page := UserPage{Users: make([]domain.User, 0, len(items))}
	for _, item := range items {
		page.Users = append(page.Users, normalizeUser(item))
	}
	if m, ok := v.(map[string]any); ok {
		if n, ok := m["excludedCount"].(json.Number); ok {
			if count, err := n.Int64(); err == nil && count > 0 {
				page.Excluded = int(count)
			}
		}
	}

	c.logger.Debug("found users", "count", len(page.Users), "excluded", page.Excluded)
	return page, nil
}

// ListProjects fetches the projects visible to the caller
func (c *Client) ListProjects(ctx context.Context, s auth.Session) ([]domain.Project, error) {
	c.logger.Debug("listing projects")

	raw, err := c.do(ctx, s, "list-projects", http.MethodGet, "/projects", nil, nil)
	if err != nil {
		return nil, err
	}
	v, err := decode("list-projects", raw)
	if err != nil {
		return nil, err
	}

	items := unwrapList(v)
	projects := make([]domain.Project, 0, len(items))
	for _, item := range items {
		projects = append(projects, normalizeProject(item))
	}

	c.logger.Debug("fetched projects", "count", len(projects))
	return projects, nil
}
