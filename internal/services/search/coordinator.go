// Package search runs debounced, cancelable user lookups for the assign
// flow and keeps the user's selection across searches.
package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/policy"
	"github.com/riordanpawley/tandem/internal/services/gateway"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 10
)

// Gateway defines the remote lookup the coordinator needs
type Gateway interface {
	SearchUsers(ctx context.Context, s auth.Session, q domain.SearchQuery) (gateway.UserPage, error)
}

// Sender delivers messages to the Bubble Tea program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Phase is the lifecycle of the current search
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseResolved
	PhaseFailed
	// PhaseSuperseded ends a request overtaken by a newer search. It is
	// never published: State carries the newer search's phase instead.
	PhaseSuperseded
)

func (p Phase) String() string {
	return [...]string{"idle", "pending", "resolved", "failed", "superseded"}[p]
}

// State is an immutable copy of the coordinator
type State struct {
	Query   domain.SearchQuery
	Phase   Phase
	Users   []domain.User
	Loading bool
	Err     string
	ErrKind domain.ErrorKind
	// Stale marks results served from an expired cache entry while offline
	Stale bool
	// HiddenCount is a best-effort hint of results withheld from the caller
	HiddenCount int
	Selected    []domain.User
	// Version increases with every state change; consumers drop older messages
	Version uint64
}

// StateMsg is sent to the Bubble Tea program whenever the state changes
type StateMsg struct {
	State State
}

// Options tunes the coordinator. Zero values take the defaults.
type Options struct {
	Debounce time.Duration
	TTL      time.Duration
	Capacity int
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Coordinator owns one logical search session
type Coordinator struct {
	gw     Gateway
	logger *slog.Logger
	opts   Options

	base context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	state    State
	selected []domain.User
	cache    *resultCache
	token    uint64
	timer    *time.Timer
	cancel   context.CancelFunc
	sender   Sender
	closed   bool
}

// NewCoordinator creates a new search coordinator
func NewCoordinator(gw Gateway, logger *slog.Logger, opts Options) *Coordinator {
	opts = opts.withDefaults()
	base, stop := context.WithCancel(context.Background())
	return &Coordinator{
		gw:     gw,
		logger: logger,
		opts:   opts,
		base:   base,
		stop:   stop,
		cache:  newResultCache(opts.TTL, opts.Capacity),
	}
}

// SetSender attaches the program that receives StateMsg
func (c *Coordinator) SetSender(sender Sender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sender = sender
}

// State returns a copy of the current state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Search supersedes any pending or in-flight lookup and schedules a new one.
// A fresh cache hit resolves immediately without a request.
func (c *Coordinator) Search(sess auth.Session, term, excludeTaskID string) {
	q := domain.ClassifyQuery(term, excludeTaskID)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.supersedeLocked()
	c.state.Query = q
	c.state.Stale = false
	c.state.Err = ""
	c.state.ErrKind = domain.KindNone

	switch {
	case q.Term == "":
		c.state.Phase = PhaseIdle
		c.state.Users = nil
		c.state.HiddenCount = 0
		c.state.Loading = false

	case !sess.Capabilities().CanSearchUsers():
		c.state.Phase = PhaseFailed
		c.state.Users = nil
		c.state.Loading = false
		c.state.Err = "Your role cannot search for users"
		c.state.ErrKind = domain.KindValidation

	default:
		if e, ok, fresh := c.cache.get(q.Key(), c.opts.Now()); ok && fresh {
			c.logger.Debug("search cache hit", "key", q.Key())
			c.resolveLocked(e, false)
			break
		}
		c.state.Phase = PhasePending
		c.state.Loading = true
		tok := c.token
		c.timer = time.AfterFunc(c.opts.Debounce, func() {
			c.fire(tok, sess, q)
		})
	}
	c.state.Version++
	c.mu.Unlock()

	c.publish()
}

// ClearSearch cancels any lookup and returns to idle. The selection is kept.
func (c *Coordinator) ClearSearch() {
	c.mu.Lock()
	c.supersedeLocked()
	c.state.Query = domain.SearchQuery{}
	c.state.Phase = PhaseIdle
	c.state.Users = nil
	c.state.Loading = false
	c.state.Err = ""
	c.state.ErrKind = domain.KindNone
	c.state.Stale = false
	c.state.HiddenCount = 0
	c.state.Version++
	c.mu.Unlock()

	c.publish()
}

// Close cancels everything. Later searches are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.supersedeLocked()
	c.mu.Unlock()
	c.stop()
}

// SelectUser adds a user to the selection; duplicates are ignored
func (c *Coordinator) SelectUser(u domain.User) {
	c.mu.Lock()
	for _, s := range c.selected {
		if s.ID == u.ID {
			c.mu.Unlock()
			return
		}
	}
	c.selected = append(c.selected, u)
	c.state.Version++
	c.mu.Unlock()

	c.publish()
}

// RemoveUser drops a user from the selection
func (c *Coordinator) RemoveUser(id string) {
	c.mu.Lock()
	next := make([]domain.User, 0, len(c.selected))
	for _, s := range c.selected {
		if s.ID != id {
			next = append(next, s)
		}
	}
	changed := len(next) != len(c.selected)
	c.selected = next
	if changed {
		c.state.Version++
	}
	c.mu.Unlock()

	if changed {
		c.publish()
	}
}

// ToggleUser selects u, or removes it when already selected
func (c *Coordinator) ToggleUser(u domain.User) {
	if c.IsSelected(u.ID) {
		c.RemoveUser(u.ID)
		return
	}
	c.SelectUser(u)
}

// IsSelected reports whether the user is in the selection
func (c *Coordinator) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.selected {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ClearSelection empties the selection
func (c *Coordinator) ClearSelection() {
	c.mu.Lock()
	c.selected = nil
	c.state.Version++
	c.mu.Unlock()

	c.publish()
}

// SelectedUsers returns the selection in insertion order
func (c *Coordinator) SelectedUsers() []domain.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.User(nil), c.selected...)
}

// SelectedIDs returns the IDs of the selection in insertion order
func (c *Coordinator) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, len(c.selected))
	for i, u := range c.selected {
		ids[i] = u.ID
	}
	return ids
}

// fire issues the request for the search identified by tok and returns
// the phase the request ended in
func (c *Coordinator) fire(tok uint64, sess auth.Session, q domain.SearchQuery) Phase {
	c.mu.Lock()
	if tok != c.token || c.closed {
		c.mu.Unlock()
		return PhaseSuperseded
	}
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.timer = nil
	c.mu.Unlock()
	defer cancel()

	c.logger.Debug("searching users", "kind", q.Kind, "term", q.Term, "token", tok)
	page, err := c.gw.SearchUsers(ctx, sess, q)

	c.mu.Lock()
	if tok != c.token {
		// Superseded while in flight
		c.mu.Unlock()
		c.logger.Debug("search superseded", "term", q.Term, "token", tok)
		return PhaseSuperseded
	}
	c.cancel = nil

	switch {
	case err == nil:
		kept, hidden := policy.FilterAssignable(sess.Actor(), page.Users)
		e := entry{users: kept, hidden: hidden + page.Excluded, storedAt: c.opts.Now()}
		c.cache.put(q.Key(), e)
		c.resolveLocked(e, false)

	case domain.IsCanceled(err):
		c.mu.Unlock()
		return PhaseIdle

	case errors.Is(err, domain.ErrOffline):
		if e, ok, _ := c.cache.get(q.Key(), c.opts.Now()); ok {
			c.logger.Debug("serving stale search results", "key", q.Key())
			c.resolveLocked(e, true)
			break
		}
		c.failLocked(err)

	default:
		c.failLocked(err)
	}
	c.state.Version++
	phase := c.state.Phase
	c.mu.Unlock()

	c.publish()
	return phase
}

// supersedeLocked invalidates the current token, stops the debounce timer
// and aborts any in-flight request
func (c *Coordinator) supersedeLocked() {
	c.token++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) resolveLocked(e entry, stale bool) {
	c.state.Phase = PhaseResolved
	c.state.Users = append([]domain.User(nil), e.users...)
	c.state.HiddenCount = e.hidden
	c.state.Loading = false
	c.state.Stale = stale
	c.state.Err = ""
	c.state.ErrKind = domain.KindNone
}

func (c *Coordinator) failLocked(err error) {
	c.logger.Debug("search failed", "error", err)
	c.state.Phase = PhaseFailed
	c.state.Users = nil
	c.state.HiddenCount = 0
	c.state.Loading = false
	c.state.Stale = false
	c.state.Err = domain.UserMessage(err)
	c.state.ErrKind = domain.Classify(err)
}

func (c *Coordinator) snapshotLocked() State {
	st := c.state
	st.Users = append([]domain.User(nil), c.state.Users...)
	st.Selected = append([]domain.User(nil), c.selected...)
	return st
}

// publish sends the current state to the attached program, if any
func (c *Coordinator) publish() {
	c.mu.Lock()
	sender := c.sender
	st := c.snapshotLocked()
	c.mu.Unlock()

	if sender != nil {
		sender.Send(StateMsg{State: st})
	}
}
