// Package tasks holds the client-side task collection and reconciles it
// with the remote API.
package tasks

import (
	"context"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/policy"
	"github.com/riordanpawley/tandem/internal/services/gateway"
)

// Gateway defines the remote operations the store needs
type Gateway interface {
	ListByProject(ctx context.Context, s auth.Session, projectID string) ([]domain.Task, error)
	ListAssigned(ctx context.Context, s auth.Session) ([]domain.Task, error)
	Create(ctx context.Context, s auth.Session, n domain.NewTask) (domain.Task, error)
	UpdateStatus(ctx context.Context, s auth.Session, taskID string, status domain.Status) (gateway.Partial, error)
	UpdateDetails(ctx context.Context, s auth.Session, taskID string, patch domain.Patch) (gateway.Partial, error)
	AddAssignees(ctx context.Context, s auth.Session, taskID string, userIDs []string) error
}

// Sender delivers messages to the Bubble Tea program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Operation names recorded in LastError
const (
	OpRefresh       = "refresh"
	OpCreate        = "create"
	OpUpdateStatus  = "update-status"
	OpUpdateDetails = "update-details"
	OpAssign        = "assign"
)

// Loading holds one flag per operation class
type Loading struct {
	Tasks      bool
	TaskCreate bool
	TaskUpdate bool
}

// LastError is the single error slot shown to the user
type LastError struct {
	Op      string
	Message string
	Kind    domain.ErrorKind
}

// State is an immutable copy of the store
type State struct {
	Tasks          []domain.Task
	CurrentProject string
	Loading        Loading
	Err            *LastError
	// Offline is set when the last failure was a transport error; the
	// collection is kept as a degraded cache.
	Offline bool
}

// ChangedMsg is sent to the Bubble Tea program whenever the state changes
type ChangedMsg struct {
	State State
}

// Store owns the task collection
type Store struct {
	gw     Gateway
	logger *slog.Logger

	mu             sync.RWMutex
	tasks          []domain.Task
	currentProject string
	lastErr        *LastError
	offline        bool
	inflight       [3]int // refresh, create, update
	gen            uint64 // bumped on every collection write
	sender         Sender

	// Only the latest refresh may replace the collection
	refreshSeq     uint64
	refreshProject string
	refreshCancel  context.CancelFunc
	// touched maps task IDs to the generation of their last local status change
	touched map[string]uint64

	locksMu sync.Mutex
	locks   map[string]*taskLock
}

const (
	classTasks = iota
	classCreate
	classUpdate
)

// NewStore creates a new task store
func NewStore(gw Gateway, logger *slog.Logger) *Store {
	return &Store{
		gw:     gw,
		logger: logger,
		tasks:   []domain.Task{},
		locks:   make(map[string]*taskLock),
		touched: make(map[string]uint64),
	}
}

// SetSender attaches the program that receives ChangedMsg
func (s *Store) SetSender(sender Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Tasks returns a copy of the collection
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneTasks(s.tasks)
}

// Task returns one task by ID
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return domain.Task{}, false
}

// ClearError empties the error slot
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
	s.publish()
}

// Refresh replaces the collection using the caller's fetch strategy.
// The assigned strategy ignores projectID. A refresh that is overtaken by a
// newer one is dropped, and switching project cancels the older request.
func (s *Store) Refresh(ctx context.Context, sess auth.Session, projectID string) error {
	strategy := sess.Strategy()
	if strategy == policy.StrategyAssigned {
		projectID = ""
	} else if projectID == "" {
		err := &domain.ValidationError{Field: "projectId", Message: "select a project first", Err: domain.ErrNoProject}
		s.fail(OpRefresh, err)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.refreshSeq++
	seq, since := s.refreshSeq, s.gen
	if s.refreshCancel != nil && s.refreshProject != projectID {
		s.refreshCancel()
	}
	s.refreshCancel, s.refreshProject = cancel, projectID
	s.mu.Unlock()

	s.begin(classTasks)
	s.logger.Debug("refreshing tasks", "strategy", strategy, "project", projectID, "seq", seq)

	var (
		tasks []domain.Task
		err   error
	)
	if strategy == policy.StrategyProject {
		tasks, err = s.gw.ListByProject(ctx, sess, projectID)
	} else {
		tasks, err = s.gw.ListAssigned(ctx, sess)
	}

	normalized := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		normalized[i] = t.Clone().Normalize()
	}

	s.mu.Lock()
	if seq != s.refreshSeq {
		s.mu.Unlock()
		s.logger.Debug("dropping superseded refresh", "project", projectID, "seq", seq, "error", err)
		s.end(classTasks, OpRefresh, nil)
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.end(classTasks, OpRefresh, err)
		return err
	}
	s.keepLocalStatusLocked(normalized, since)
	s.tasks = normalized
	s.currentProject = projectID
	s.offline = false
	s.gen++
	s.mu.Unlock()

	s.logger.Debug("tasks refreshed", "count", len(normalized))
	s.end(classTasks, OpRefresh, nil)
	return nil
}

// keepLocalStatusLocked carries over statuses changed locally after the
// refresh started, since the fetched records may predate them.
func (s *Store) keepLocalStatusLocked(fetched []domain.Task, since uint64) {
	for i, t := range fetched {
		g, ok := s.touched[t.ID]
		if !ok || g <= since {
			continue
		}
		if j := s.indexLocked(t.ID); j >= 0 && s.tasks[j].Status != t.Status {
			fetched[i] = t.WithStatus(s.tasks[j].Status)
		}
	}
	for id, g := range s.touched {
		if g <= since {
			delete(s.touched, id)
		}
	}
}

// CreateTask validates locally, then appends the server's record on success
func (s *Store) CreateTask(ctx context.Context, sess auth.Session, n domain.NewTask) (domain.Task, error) {
	if err := n.Validate(); err != nil {
		s.fail(OpCreate, err)
		return domain.Task{}, err
	}

	s.begin(classCreate)
	s.logger.Debug("creating task", "title", n.Title, "project", n.ProjectID)

	created, err := s.gw.Create(ctx, sess, n)
	if err != nil {
		s.end(classCreate, OpCreate, err)
		return domain.Task{}, err
	}
	created = created.Clone().Normalize()

	s.mu.Lock()
	next := make([]domain.Task, 0, len(s.tasks)+1)
	next = append(next, s.tasks...)
	s.tasks = append(next, created)
	s.offline = false
	s.gen++
	s.mu.Unlock()

	s.logger.Debug("task created", "id", created.ID)
	s.end(classCreate, OpCreate, nil)
	return created.Clone(), nil
}

// UpdateStatus applies the new status immediately and publishes it before
// the network call. On failure the collection is rolled back.
func (s *Store) UpdateStatus(ctx context.Context, sess auth.Session, taskID string, status domain.Status) error {
	if !status.Valid() {
		err := &domain.ValidationError{Field: "status", Message: "unknown status " + string(status)}
		s.fail(OpUpdateStatus, err)
		return err
	}

	unlock := s.lockTask(taskID)
	defer unlock()

	s.mu.Lock()
	i := s.indexLocked(taskID)
	if i < 0 {
		s.mu.Unlock()
		err := &domain.ValidationError{Field: "taskId", Message: "task not found", Err: domain.ErrNotFound}
		s.fail(OpUpdateStatus, err)
		return err
	}
	tx := s.beginTxLocked(i, s.tasks[i].WithStatus(status))
	s.inflight[classUpdate]++
	s.lastErr = nil
	s.mu.Unlock()
	s.publish()

	s.logger.Debug("updating task status", "id", taskID, "from", tx.before.Status, "to", status)

	echo, err := s.gw.UpdateStatus(ctx, sess, taskID, status)
	if err != nil {
		s.mu.Lock()
		s.rollbackLocked(tx)
		s.mu.Unlock()
		s.logger.Debug("status update rolled back", "id", taskID, "error", err)
		s.end(classUpdate, OpUpdateStatus, err)
		return err
	}

	s.mu.Lock()
	if j := s.indexLocked(taskID); j >= 0 {
		s.replaceLocked(j, echo.MergeInto(s.tasks[j]))
	}
	s.offline = false
	s.mu.Unlock()
	s.end(classUpdate, OpUpdateStatus, nil)
	return nil
}

// UpdateDetails waits for the server, then merges the fields it returned
// into the local record. Absent fields keep their local value.
func (s *Store) UpdateDetails(ctx context.Context, sess auth.Session, taskID string, patch domain.Patch) error {
	if err := patch.Validate(); err != nil {
		s.fail(OpUpdateDetails, err)
		return err
	}

	unlock := s.lockTask(taskID)
	defer unlock()

	s.begin(classUpdate)
	s.logger.Debug("updating task details", "id", taskID)

	echo, err := s.gw.UpdateDetails(ctx, sess, taskID, patch)
	if err != nil {
		s.end(classUpdate, OpUpdateDetails, err)
		return err
	}

	s.mu.Lock()
	if i := s.indexLocked(taskID); i >= 0 {
		s.replaceLocked(i, echo.MergeInto(s.tasks[i]))
	}
	s.offline = false
	s.mu.Unlock()
	s.end(classUpdate, OpUpdateDetails, nil)
	return nil
}

// AssignUsers adds assignees, then refreshes once. Membership is read back
// from the server rather than patched locally.
func (s *Store) AssignUsers(ctx context.Context, sess auth.Session, taskID string, userIDs []string) error {
	if len(userIDs) == 0 {
		err := &domain.ValidationError{Field: "userIds", Message: "select at least one user"}
		s.fail(OpAssign, err)
		return err
	}

	s.begin(classUpdate)
	s.logger.Debug("assigning users", "id", taskID, "users", userIDs)

	if err := s.gw.AddAssignees(ctx, sess, taskID, userIDs); err != nil {
		s.end(classUpdate, OpAssign, err)
		return err
	}
	s.end(classUpdate, OpAssign, nil)

	s.mu.RLock()
	projectID := s.currentProject
	if i := s.indexLocked(taskID); i >= 0 && s.tasks[i].ProjectID != "" {
		projectID = s.tasks[i].ProjectID
	}
	s.mu.RUnlock()

	return s.Refresh(ctx, sess, projectID)
}

// begin marks an operation class as loading and clears the error slot
func (s *Store) begin(class int) {
	s.mu.Lock()
	s.inflight[class]++
	s.lastErr = nil
	s.mu.Unlock()
	s.publish()
}

// end clears the loading mark and records err, if any
func (s *Store) end(class int, op string, err error) {
	s.mu.Lock()
	s.inflight[class]--
	if err != nil {
		s.recordLocked(op, err)
	}
	s.mu.Unlock()
	s.publish()
}

// fail records a local failure that never reached the network
func (s *Store) fail(op string, err error) {
	s.mu.Lock()
	s.recordLocked(op, err)
	s.mu.Unlock()
	s.publish()
}

func (s *Store) recordLocked(op string, err error) {
	kind := domain.Classify(err)
	if kind == domain.KindNone {
		return
	}
	if kind == domain.KindTransport {
		s.offline = true
	}
	s.lastErr = &LastError{Op: op, Message: domain.UserMessage(err), Kind: kind}
	s.logger.Debug("task operation failed", "op", op, "kind", kind, "error", err)
}

func (s *Store) snapshotLocked() State {
	st := State{
		Tasks:          domain.CloneTasks(s.tasks),
		CurrentProject: s.currentProject,
		Loading: Loading{
			Tasks:      s.inflight[classTasks] > 0,
			TaskCreate: s.inflight[classCreate] > 0,
			TaskUpdate: s.inflight[classUpdate] > 0,
		},
		Offline: s.offline,
	}
	if s.lastErr != nil {
		e := *s.lastErr
		st.Err = &e
	}
	return st
}

// publish sends the current state to the attached program, if any
func (s *Store) publish() {
	s.mu.RLock()
	sender := s.sender
	var st State
	if sender != nil {
		st = s.snapshotLocked()
	}
	s.mu.RUnlock()

	if sender != nil {
		sender.Send(ChangedMsg{State: st})
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// replaceLocked swaps one record for a new value. The old slice is never
// written, so copies handed out earlier stay valid.
func (s *Store) replaceLocked(i int, t domain.Task) {
	next := make([]domain.Task, len(s.tasks))
	copy(next, s.tasks)
	next[i] = t
	s.tasks = next
	s.gen++
}
