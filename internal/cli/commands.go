// Package cli implements the tandemctl subcommands. Each command drives the
// same engine the TUI uses and prints a plain-text result.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/config"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/policy"
	"github.com/riordanpawley/tandem/internal/services/gateway"
	"github.com/riordanpawley/tandem/internal/services/projection"
	"github.com/riordanpawley/tandem/internal/services/tasks"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Remote is every API operation the CLI issues. *gateway.Client satisfies it.
type Remote interface {
	tasks.Gateway
	ListProjects(ctx context.Context, s auth.Session) ([]domain.Project, error)
	SearchUsers(ctx context.Context, s auth.Session, q domain.SearchQuery) (gateway.UserPage, error)
}

// Dependencies holds all the services needed for CLI commands
type Dependencies struct {
	Config       *config.Config
	Session      auth.Session
	Remote       Remote
	Store        *tasks.Store
	Registry     *config.ProjectsRegistry
	SaveRegistry func(*config.ProjectsRegistry) error
	Out          io.Writer
	Logger       *slog.Logger
	Now          func() time.Time
}

// NewDependencies wires the API client, store and project registry from cfg
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := gateway.NewClient(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout()}, logger)
	if cfg.Session.TokenFile != "" {
		client = client.WithFallbackCredentials(auth.CachedTokenSource(cfg.Session.TokenFile))
	}

	registry, err := config.LoadProjectsRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load project registry: %w", err)
	}

	return &Dependencies{
		Config:       cfg,
		Session:      cfg.Session.ToSession(),
		Remote:       client,
		Store:        tasks.NewStore(client, logger),
		Registry:     registry,
		SaveRegistry: config.SaveProjectsRegistry,
		Out:          os.Stdout,
		Logger:       logger,
		Now:          time.Now,
	}, nil
}

func (d *Dependencies) context() (context.Context, context.CancelFunc) {
	if t := d.Config.API.Timeout(); t > 0 {
		return context.WithTimeout(context.Background(), t)
	}
	return context.WithCancel(context.Background())
}

// resolveProject turns a flag value into a project ID: an explicit ref
// (ID or remembered name), then the configured default, then the registry
// default
func (d *Dependencies) resolveProject(ref string) string {
	if ref == "" {
		ref = d.Config.Board.DefaultProject
	}
	if ref == "" {
		if p := d.Registry.GetDefault(); p != nil {
			return p.ID
		}
		return ""
	}
	if p, err := d.Registry.Resolve(ref); err == nil {
		return p.ID
	}
	return ref
}

// load refreshes the store for projectRef. The assigned strategy ignores it.
func (d *Dependencies) load(ctx context.Context, projectRef string) (string, error) {
	projectID := d.resolveProject(projectRef)
	if err := d.Store.Refresh(ctx, d.Session, projectID); err != nil {
		return projectID, fmt.Errorf("failed to load tasks: %w", err)
	}
	return projectID, nil
}

// ListCommand prints the board for a project, one row per task in column order
func ListCommand(deps *Dependencies, projectRef string, view domain.View, query string) error {
	ctx, cancel := deps.context()
	defer cancel()

	projectID := deps.resolveProject(projectRef)
	deps.Logger.Info("listing tasks", "project", projectID, "view", view)

	// Project names are cosmetic; a failed listing never fails the command
	var (
		g        errgroup.Group
		projects []domain.Project
	)
	g.Go(func() error {
		ps, err := deps.Remote.ListProjects(ctx, deps.Session)
		if err != nil {
			deps.Logger.Debug("project listing failed", "error", err)
			return nil
		}
		projects = ps
		return nil
	})
	g.Go(func() error {
		return deps.Store.Refresh(ctx, deps.Session, projectID)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	board := projection.NewService(deps.Store)
	board.SetView(view)
	board.SetQuery(query)
	columns := board.Columns(deps.Store.Tasks())

	if projectID != "" {
		fmt.Fprintf(deps.Out, "Project: %s\n\n", projectName(projects, deps.Registry, projectID))
	}

	count := 0
	for _, col := range columns {
		count += len(col.Tasks)
	}
	if count == 0 {
		fmt.Fprintln(deps.Out, "No tasks")
		return nil
	}

	now := deps.Now()
	w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tDUE\tASSIGNEES\tTITLE")
	fmt.Fprintln(w, "--\t------\t--------\t---\t---------\t-----")
	for _, col := range columns {
		for _, t := range col.Tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.Status, t.Priority, dueLabel(t, now), assigneeNames(t), truncate(t.Title, 60))
		}
	}
	w.Flush()

	fmt.Fprintf(deps.Out, "\n%d task(s)\n", count)
	return nil
}

// CreateCommand creates a task in a project
func CreateCommand(deps *Dependencies, projectRef string, n domain.NewTask) error {
	if !deps.Session.Capabilities().CanCreateTask {
		return fmt.Errorf("%s cannot create tasks: %w", deps.Session.Role, domain.ErrForbidden)
	}
	ctx, cancel := deps.context()
	defer cancel()

	n.ProjectID = deps.resolveProject(projectRef)
	if n.Status == "" {
		n.Status = domain.StatusTodo
	}
	deps.Logger.Info("creating task", "project", n.ProjectID, "title", n.Title)

	created, err := deps.Store.CreateTask(ctx, deps.Session, n)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	fmt.Fprintf(deps.Out, "✓ Created %s: %s\n", created.ID, created.Title)
	return nil
}

// MoveCommand changes the status of a task
func MoveCommand(deps *Dependencies, projectRef, taskID string, to domain.Status) error {
	ctx, cancel := deps.context()
	defer cancel()

	if _, err := deps.load(ctx, projectRef); err != nil {
		return err
	}
	task, ok := deps.Store.Task(taskID)
	if !ok {
		return fmt.Errorf("task not found: %s", taskID)
	}
	if task.Status == to {
		fmt.Fprintf(deps.Out, "%s is already %s\n", taskID, to.Label())
		return nil
	}

	deps.Logger.Info("moving task", "id", taskID, "from", task.Status, "to", to)
	if err := deps.Store.UpdateStatus(ctx, deps.Session, taskID, to); err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}

	fmt.Fprintf(deps.Out, "✓ %s: %s → %s\n", taskID, task.Status.Label(), to.Label())
	return nil
}

// AssignCommand adds users to a task
func AssignCommand(deps *Dependencies, projectRef, taskID string, userIDs []string) error {
	if !deps.Session.Capabilities().CanAssignUsers {
		return fmt.Errorf("%s cannot assign users: %w", deps.Session.Role, domain.ErrForbidden)
	}
	ctx, cancel := deps.context()
	defer cancel()

	if _, err := deps.load(ctx, projectRef); err != nil {
		return err
	}
	if _, ok := deps.Store.Task(taskID); !ok {
		return fmt.Errorf("task not found: %s", taskID)
	}

	deps.Logger.Info("assigning users", "id", taskID, "users", userIDs)
	if err := deps.Store.AssignUsers(ctx, deps.Session, taskID, userIDs); err != nil {
		return fmt.Errorf("failed to assign users: %w", err)
	}

	task, _ := deps.Store.Task(taskID)
	fmt.Fprintf(deps.Out, "✓ %s assignees: %s\n", taskID, assigneeNames(task))
	return nil
}

// UsersSearchCommand runs one user lookup and prints the matches
func UsersSearchCommand(deps *Dependencies, term, excludeTaskID string) error {
	if !deps.Session.Capabilities().CanSearchUsers() {
		return fmt.Errorf("%s cannot search users: %w", deps.Session.Role, domain.ErrForbidden)
	}
	q := domain.ClassifyQuery(term, excludeTaskID)
	if q.Term == "" {
		return errors.New("search term is required")
	}

	ctx, cancel := deps.context()
	defer cancel()

	deps.Logger.Info("searching users", "kind", q.Kind, "term", q.Term)
	page, err := deps.Remote.SearchUsers(ctx, deps.Session, q)
	if err != nil {
		return fmt.Errorf("failed to search users: %w", err)
	}

	// The server filters too; never show anyone the caller may not assign
	visible, hidden := policy.FilterAssignable(deps.Session.Actor(), page.Users)
	if len(visible) == 0 {
		fmt.Fprintln(deps.Out, "No users found")
		return nil
	}

	w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tDEPARTMENT")
	fmt.Fprintln(w, "--\t----\t-----\t----\t----------")
	for _, u := range visible {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.DepartmentID)
	}
	w.Flush()

	if hidden += page.Excluded; hidden > 0 {
		fmt.Fprintf(deps.Out, "\n%d user(s) hidden\n", hidden)
	}
	return nil
}

// ProjectsCommand lists the projects visible to the caller. Offline, the
// remembered projects are shown instead.
func ProjectsCommand(deps *Dependencies) error {
	ctx, cancel := deps.context()
	defer cancel()

	projects, err := deps.Remote.ListProjects(ctx, deps.Session)
	if err != nil {
		if !errors.Is(err, domain.ErrOffline) || len(deps.Registry.Projects) == 0 {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		fmt.Fprintln(deps.Out, "Offline: showing remembered projects")
		for _, p := range deps.Registry.Recent(0) {
			projects = append(projects, domain.Project{ID: p.ID, Name: p.Name})
		}
	}

	if len(projects) == 0 {
		fmt.Fprintln(deps.Out, "No projects")
		return nil
	}

	w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDEFAULT")
	fmt.Fprintln(w, "--\t----\t-------")
	for _, p := range projects {
		def := ""
		if p.ID == deps.Registry.DefaultProject {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, def)
	}
	w.Flush()
	return nil
}

// ProjectUseCommand makes a project the default for later commands
func ProjectUseCommand(deps *Dependencies, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return errors.New("project id or name is required")
	}
	ctx, cancel := deps.context()
	defer cancel()

	project := domain.Project{ID: ref}
	if p, err := deps.Registry.Resolve(ref); err == nil {
		project = domain.Project{ID: p.ID, Name: p.Name}
	}

	// Prefer the server's name; an unknown ID is an error only when the
	// server could be asked
	projects, err := deps.Remote.ListProjects(ctx, deps.Session)
	switch {
	case err == nil:
		found := false
		for _, p := range projects {
			if p.ID == project.ID || strings.EqualFold(p.Name, ref) {
				project, found = p, true
				break
			}
		}
		if !found {
			return fmt.Errorf("project not found: %s", ref)
		}
	case errors.Is(err, domain.ErrOffline):
		deps.Logger.Warn("could not verify project", "project", ref, "error", err)
	default:
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if err := deps.Registry.Use(project.ID, project.Name, deps.Config.API.BaseURL, deps.Now()); err != nil {
		return err
	}
	if err := deps.Registry.SetDefault(project.ID); err != nil {
		return err
	}
	if err := deps.SaveRegistry(deps.Registry); err != nil {
		return fmt.Errorf("failed to save project registry: %w", err)
	}

	fmt.Fprintf(deps.Out, "✓ Default project: %s\n", projectName(projects, deps.Registry, project.ID))
	return nil
}

// LoginCommand caches a bearer token for later runs
func LoginCommand(deps *Dependencies, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	path := deps.Config.Session.TokenFile
	if path == "" {
		p, err := auth.DefaultTokenPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := auth.SaveToken(path, &oauth2.Token{AccessToken: token, TokenType: "Bearer"}); err != nil {
		return err
	}
	fmt.Fprintf(deps.Out, "✓ Token saved to %s\n", path)
	return nil
}

func projectName(projects []domain.Project, registry *config.ProjectsRegistry, id string) string {
	for _, p := range projects {
		if p.ID == id && p.Name != "" {
			return p.Name
		}
	}
	if p, err := registry.Get(id); err == nil && p.Name != "" {
		return p.Name
	}
	return id
}

func assigneeNames(t domain.Task) string {
	if len(t.Assignees) == 0 {
		return "-"
	}
	names := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		if a.Name != "" {
			names = append(names, a.Name)
		} else {
			names = append(names, a.ID)
		}
	}
	return strings.Join(names, ", ")
}

func dueLabel(t domain.Task, now time.Time) string {
	if t.DueDate == nil {
		return "-"
	}
	label := t.DueDate.Format("2006-01-02")
	if t.Status != domain.StatusDone && t.DueDate.Before(now) {
		label += " !"
	}
	return label
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// PrintUsage prints CLI usage information
func PrintUsage(w io.Writer) {
	usage := `Usage: tandemctl <command> [flags] [arguments]

Commands:
  list [-project P] [-view all|active|backlog|done] [-q text]
                               Show the board as a table
  create [-project P] [-status S] [-priority P] [-due YYYY-MM-DD] [-labels a,b] <title>
                               Create a task
  move [-project P] <task-id> <todo|in_progress|done>
                               Change a task's status
  assign [-project P] <task-id> <user-id>...
                               Add assignees to a task
  users <term> [-exclude task-id]
                               Search users by name, email or department
  projects                     List projects
  use <project>                Set the default project
  login <token>                Save a bearer token
  help                         Show this help message

Environment:
  TANDEM_API_URL, TANDEM_TOKEN, TANDEM_ROLE, TANDEM_PROJECT, TANDEM_LOG_LEVEL
  are read after an optional .env file in the working directory.
`
	fmt.Fprint(w, usage)
}
