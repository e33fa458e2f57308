package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
)

// taskWrite is the canonical wire shape for create and update bodies
type taskWrite struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    *string  `json:"priority,omitempty"`
	Labels      *string  `json:"labels,omitempty"`
	ProjectID   string   `json:"projectId,omitempty"`
	StartDate   *string  `json:"startDate,omitempty"`
	DueDate     *string  `json:"dueDate,omitempty"`
	Assignees   []string `json:"assignees,omitempty"`
}

// ListByProject fetches every task of a project
func (c *Client) ListByProject(ctx context.Context, s auth.Session, projectID string) ([]domain.Task, error) {
	c.logger.Debug("listing project tasks", "project", projectID)
	return c.listTasks(ctx, s, "list-by-project", "/tasks/project/"+url.PathEscape(projectID))
}

// ListAssigned fetches the tasks assigned to the caller
func (c *Client) ListAssigned(ctx context.Context, s auth.Session) ([]domain.Task, error) {
	c.logger.Debug("listing assigned tasks", "user", s.UserID)
	return c.listTasks(ctx, s, "list-assigned", "/tasks/assigned")
}

func (c *Client) listTasks(ctx context.Context, s auth.Session, op, path string) ([]domain.Task, error) {
	raw, err := c.do(ctx, s, op, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	v, err := decode(op, raw)
	if err != nil {
		return nil, err
	}

	now := c.now()
	items := unwrapList(v)
	tasks := make([]domain.Task, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, normalizeTask(item).Full(now))
	}

	c.logger.Debug("fetched tasks", "op", op, "count", len(tasks))
	return tasks, nil
}

// Create submits a new task and returns the server's normalized record
func (c *Client) Create(ctx context.Context, s auth.Session, n domain.NewTask) (domain.Task, error) {
	c.logger.Debug("creating task", "title", n.Title, "project", n.ProjectID)

	body := taskWrite{
		Title:     &n.Title,
		Status:    string(n.Status),
		ProjectID: n.ProjectID,
		StartDate: formatTime(n.StartDate),
		DueDate:   formatTime(n.DueDate),
		Assignees: n.AssigneeIDs,
	}
	if body.Status == "" {
		body.Status = string(domain.StatusTodo)
	}
	if n.Description != "" {
		body.Description = &n.Description
	}
	priority := n.Priority
	if priority == "" {
		priority = domain.DefaultPriority
	}
	body.Priority = &priority
	if n.Labels != "" {
		body.Labels = &n.Labels
	}

	raw, err := c.do(ctx, s, "create", http.MethodPost, "/tasks", nil, body)
	if err != nil {
		return domain.Task{}, err
	}
	p, err := c.decodeTask("create", raw)
	if err == errNoTask {
		return domain.Task{}, &domain.GatewayError{Op: "create", Status: http.StatusOK, Detail: "malformed response", Err: err}
	}
	if err != nil {
		return domain.Task{}, err
	}

	task := p.Full(c.now())
	if task.ProjectID == "" {
		task.ProjectID = n.ProjectID
	}
	c.logger.Debug("task created", "id", task.ID)
	return task, nil
}

// UpdateStatus changes a task's status. The returned partial is empty when
// the server answers without a body.
func (c *Client) UpdateStatus(ctx context.Context, s auth.Session, taskID string, status domain.Status) (Partial, error) {
	c.logger.Debug("updating task status", "id", taskID, "status", status)

	path := "/tasks/" + url.PathEscape(taskID) + "/status"
	raw, err := c.do(ctx, s, "update-status", http.MethodPatch, path, nil, map[string]string{"status": string(status)})
	if err != nil {
		return Partial{}, err
	}
	p, err := c.decodeTask("update-status", raw)
	if err == errNoTask {
		return Partial{}, nil
	}
	return p, err
}

// UpdateDetails writes the non-status fields named by the patch
func (c *Client) UpdateDetails(ctx context.Context, s auth.Session, taskID string, patch domain.Patch) (Partial, error) {
	c.logger.Debug("updating task details", "id", taskID)

	body := taskWrite{
		Title:       patch.Title,
		Description: patch.Description,
		Priority:    patch.Priority,
		Labels:      patch.Labels,
		StartDate:   formatTime(patch.StartDate),
		DueDate:     formatTime(patch.DueDate),
	}
	raw, err := c.do(ctx, s, "update-details", http.MethodPut, "/tasks/"+url.PathEscape(taskID), nil, body)
	if err != nil {
		return Partial{}, err
	}
	p, err := c.decodeTask("update-details", raw)
	if err == errNoTask {
		return Partial{}, nil
	}
	return p, err
}

// AddAssignees attaches users to a task. The response body is ignored;
// callers refresh to observe the result.
func (c *Client) AddAssignees(ctx context.Context, s auth.Session, taskID string, userIDs []string) error {
	c.logger.Debug("adding assignees", "id", taskID, "count", len(userIDs))

	path := "/tasks/" + url.PathEscape(taskID) + "/assignees"
	_, err := c.do(ctx, s, "add-assignees", http.MethodPost, path, nil, map[string][]string{"userIds": userIDs})
	return err
}

func (c *Client) decodeTask(op string, raw []byte) (Partial, error) {
	v, err := decode(op, raw)
	if err != nil {
		return Partial{}, err
	}
	m, ok := unwrapTask(v)
	if !ok {
		return Partial{}, errNoTask
	}
	return normalizeTask(m), nil
}

// ParseTask normalizes a single task body in any accepted wire shape
func ParseTask(raw []byte) (Partial, error) {
	return (&Client{}).decodeTask("parse", raw)
}
