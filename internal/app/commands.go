package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/policy"
	"github.com/riordanpawley/tandem/internal/services/tasks"
	"golang.org/x/sync/errgroup"
)

// Message types for async operations

type toastTickMsg struct{}

type refreshTickMsg struct{}

// bootstrapMsg carries the first project list and the project the board opened on
type bootstrapMsg struct {
	projects []domain.Project
	project  domain.Project
	err      error
}

type projectsLoadedMsg struct {
	projects []domain.Project
	err      error
}

// opDoneMsg reports a finished store operation. The store has already
// recorded any error; the model re-reads its snapshot.
type opDoneMsg struct {
	op      string
	taskID  string
	success string
	err     error
}

func tickEvery(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg
	})
}

// opContext bounds one remote operation by the configured API timeout
func opContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

// bootstrapCmd loads the project list and the first task list together.
// When no project is known up front, the first listed project is used
// once the list arrives.
func (m Model) bootstrapCmd(projectID string) tea.Cmd {
	store, lister, sess := m.store, m.lister, m.session
	timeout := m.config.API.Timeout()

	return func() tea.Msg {
		ctx, cancel := opContext(timeout)
		defer cancel()

		needsProject := sess.Strategy() == policy.StrategyProject

		var (
			g        errgroup.Group
			projects []domain.Project
		)
		if lister != nil {
			g.Go(func() error {
				ps, err := lister.ListProjects(ctx, sess)
				if err != nil {
					return err
				}
				projects = ps
				return nil
			})
		}
		if !needsProject || projectID != "" {
			g.Go(func() error {
				return store.Refresh(ctx, sess, projectID)
			})
		}
		err := g.Wait()

		project := findProject(projects, projectID)
		if needsProject && projectID == "" && len(projects) > 0 {
			project = projects[0]
			err = errors.Join(err, store.Refresh(ctx, sess, project.ID))
		}
		return bootstrapMsg{projects: projects, project: project, err: err}
	}
}

// findProject returns the listed project with id, or a bare reference
func findProject(projects []domain.Project, id string) domain.Project {
	for _, p := range projects {
		if p.ID == id {
			return p
		}
	}
	return domain.Project{ID: id}
}

func (m Model) refreshCmd() tea.Cmd {
	store, sess, projectID := m.store, m.session, m.project.ID
	timeout := m.config.API.Timeout()
	return func() tea.Msg {
		ctx, cancel := opContext(timeout)
		defer cancel()
		err := store.Refresh(ctx, sess, projectID)
		return opDoneMsg{op: tasks.OpRefresh, err: err}
	}
}

func (m Model) loadProjectsCmd() tea.Cmd {
	lister, sess := m.lister, m.session
	timeout := m.config.API.Timeout()
	return func() tea.Msg {
		if lister == nil {
			return projectsLoadedMsg{}
		}
		ctx, cancel := opContext(timeout)
		defer cancel()
		projects, err := lister.ListProjects(ctx, sess)
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

func (m Model) createTaskCmd(n domain.NewTask) tea.Cmd {
	store, sess := m.store, m.session
	timeout := m.config.API.Timeout()
	return func() tea.Msg {
		ctx, cancel := opContext(timeout)
		defer cancel()
		created, err := store.CreateTask(ctx, sess, n)
		if err != nil {
			return opDoneMsg{op: tasks.OpCreate, err: err}
		}
		return opDoneMsg{
			op:      tasks.OpCreate,
			taskID:  created.ID,
			success: fmt.Sprintf("Created %q", created.Title),
		}
	}
}

func (m Model) updateDetailsCmd(taskID string, patch domain.Patch) tea.Cmd {
	store, sess := m.store, m.session
	timeout := m.config.API.Timeout()
	return func() tea.Msg {
		ctx, cancel := opContext(timeout)
		defer cancel()
		err := store.UpdateDetails(ctx, sess, taskID, patch)
		return opDoneMsg{op: tasks.OpUpdateDetails, taskID: taskID, success: "Task updated", err: err}
	}
}

// assignCmd adds the assignees, then clears the search selection so the
// next assign flow starts empty
func (m Model) assignCmd(taskID string, userIDs []string) tea.Cmd {
	store, sess, coordinator := m.store, m.session, m.search
	timeout := m.config.API.Timeout()
	return func() tea.Msg {
		ctx, cancel := opContext(timeout)
		defer cancel()
		err := store.AssignUsers(ctx, sess, taskID, userIDs)
		if err == nil && coordinator != nil {
			coordinator.ClearSelection()
		}
		return opDoneMsg{
			op:      tasks.OpAssign,
			taskID:  taskID,
			success: fmt.Sprintf("Assigned %d user(s)", len(userIDs)),
			err:     err,
		}
	}
}

