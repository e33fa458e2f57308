package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/services/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGateway implements Gateway for testing
type mockGateway struct {
	mu      sync.Mutex
	calls   []domain.SearchQuery
	pages   map[string]gateway.UserPage
	err     error
	started chan string
	// block holds a term's request open until released
	block map[string]chan struct{}
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		pages:   make(map[string]gateway.UserPage),
		block:   make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
}

func (m *mockGateway) SearchUsers(ctx context.Context, s auth.Session, q domain.SearchQuery) (gateway.UserPage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, q)
	page, err := m.pages[q.Term], m.err
	wait := m.block[q.Term]
	m.mu.Unlock()

	m.started <- q.Term
	if wait != nil {
		// Resolve late even if canceled, like a transport that ignores aborts
		<-wait
	}
	return page, err
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockGateway) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// recordingSender implements Sender for testing
type recordingSender struct {
	mu     sync.Mutex
	states []State
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := msg.(StateMsg); ok {
		r.states = append(r.states, m.State)
	}
}

func (r *recordingSender) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	manager   = auth.Session{UserID: "m1", Role: domain.RoleManager}
	assistant = auth.Session{UserID: "a1", Role: domain.RoleAssistantManager, DepartmentID: "7"}
	developer = auth.Session{UserID: "d1", Role: domain.RoleDeveloper}
)

func newTestCoordinator(gw *mockGateway) (*Coordinator, *recordingSender, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := NewCoordinator(gw, slog.Default(), Options{Debounce: 5 * time.Millisecond, Now: clock.Now})
	sender := &recordingSender{}
	c.SetSender(sender)
	return c, sender, clock
}

func waitPhase(t *testing.T, c *Coordinator, want Phase) State {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State().Phase == want
	}, time.Second, time.Millisecond)
	return c.State()
}

func user(id, name string, role domain.Role, dept string) domain.User {
	return domain.User{ID: id, Name: name, Role: role, DepartmentID: dept}
}

func TestCoordinator_EmptyQueryGoesIdle(t *testing.T) {
	gw := newMockGateway()
	c, _, _ := newTestCoordinator(gw)
	defer c.Close()

	c.Search(manager, "   ", "")

	st := c.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.Users)
	assert.False(t, st.Loading)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, gw.callCount())
}

func TestCoordinator_DebounceIssuesOneRequest(t *testing.T) {
	gw := newMockGateway()
	gw.pages["joh"] = gateway.UserPage{Users: []domain.User{user("u1", "John", domain.RoleDeveloper, "")}}
	c, _, _ := newTestCoordinator(gw)
	defer c.Close()

	c.Search(manager, "j", "")
	c.Search(manager, "jo", "")
	c.Search(manager, "joh", "T1")
	assert.Equal(t, PhasePending, c.State().Phase)
	assert.True(t, c.State().Loading)

	st := waitPhase(t, c, PhaseResolved)

	require.Equal(t, 1, gw.callCount())
	assert.Equal(t, domain.SearchQuery{Kind: domain.QueryUsername, Term: "joh", ExcludeTaskID: "T1"}, gw.calls[0])
	require.Len(t, st.Users, 1)
	assert.Equal(t, "John", st.Users[0].Name)
	assert.False(t, st.Loading)
}

func TestCoordinator_SupersededResultNeverPublishes(t *testing.T) {
	gw := newMockGateway()
	gw.pages["a"] = gateway.UserPage{Users: []domain.User{user("ua", "Alpha", domain.RoleDeveloper, "")}}
	gw.pages["ab"] = gateway.UserPage{Users: []domain.User{user("uab", "Abe", domain.RoleDeveloper, "")}}
	releaseA := make(chan struct{})
	gw.block["a"] = releaseA
	c, sender, _ := newTestCoordinator(gw)
	defer c.Close()

	c.Search(manager, "a", "")
	require.Equal(t, "a", <-gw.started)

	c.Search(manager, "ab", "")
	require.Equal(t, "ab", <-gw.started)
	st := waitPhase(t, c, PhaseResolved)

	// "a" resolves after "ab" started and finished
	close(releaseA)
	time.Sleep(20 * time.Millisecond)

	require.Len(t, st.Users, 1)
	assert.Equal(t, "uab", st.Users[0].ID)
	assert.Equal(t, "uab", c.State().Users[0].ID)
	for _, published := range sender.all() {
		for _, u := range published.Users {
			assert.NotEqual(t, "ua", u.ID, "superseded result was published")
		}
	}
}

func TestCoordinator_CacheHitSkipsRequest(t *testing.T) {
	gw := newMockGateway()
	gw.pages["jo"] = gateway.UserPage{Users: []domain.User{user("u1", "Jo", domain.RoleIntern, "")}}
	c, _, _ := newTestCoordinator(gw)
	defer c.Close()

	c.Search(manager, "jo", "")
	waitPhase(t, c, PhaseResolved)
	require.Equal(t, 1, gw.callCount())

	c.Search(manager, "", "")
	c.Search(manager, "jo", "")

	// Resolved synchronously from cache
	st := c.State()
	assert.Equal(t, PhaseResolved, st.Phase)
	assert.Len(t, st.Users, 1)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, gw.callCount())
}

func TestCoordinator_CacheExpiry(t *testing.T) {
	gw := newMockGateway()
	gw.pages["jo"] = gateway.UserPage{Users: []domain.User{user("u1", "Jo", domain.RoleIntern, "")}}
	c, _, clock := newTestCoordinator(gw)
	defer c.Close()

	c.Search(manager, "jo", "")
	waitPhase(t, c, PhaseResolved)

	clock.Advance(DefaultTTL + time.Second)
	c.Search(manager, "jo", "")
	assert.Equal(t, PhasePending, c.State().Phase)

	require.Eventually(t, func() bool { return gw.callCount() == 2 }, time.Second, time.Millisecond)
	waitPhase(t, c, PhaseResolved)
}

func TestCoordinator_CacheKeyIncludesExcludedTask(t *testing.T) {
	gw := newMockGateway()
	c, _, _ := newTestCoordinator(gw)
	defer c.Close()

	c.Search(manager, "jo", "T1")
	waitPhase(t, c, PhaseResolved)
	c.Search(manager, "jo", "T2")
	require.Eventually(t, func() bool { return gw.callCount() == 2 }, time.Second, time.Millisecond)
}

func TestCoordinator_RoleScoping(t *testing.T) {
	gw := newMockGateway()
	gw.pages["jo"] = gateway.UserPage{
		Users: []domain.User{
			user("u1", "Joanna", domain.RoleManager, "7"),
			user("u2", "John", domain.RoleDeveloper, "7"),
			user("u3", "Jolene", domain.RoleIntern, "7"),
			user("u4", "Joe", domain.RoleDeveloper, "9"),
		},
		Excluded: 2,
	}
	c, _, _ := newTestCoordinator(gw)
	defer c.Close()

	c.Search(assistant, "jo", "")
	st := waitPhase(t, c, PhaseResolved)

	names := make([]string, 0, len(st.Users))
	for _, u := range st.Users {
		names = append(names, u.Name)
		assert.Contains(t, []domain.Role{domain.RoleDeveloper, domain.RoleIntern}, u.Role)
	}
	assert.Equal(t, []string{"John", "Jolene"}, names)
	assert.Equal(t, 4, st.HiddenCount)
}

func TestCoordinator_RoleWithoutSearch(t *testing.T) {
	gw := newMockGateway()
	c, _, _ := newTestCoordinator(gw)
	defer c.Close()

	c.Search(developer, "jo", "")

	st := c.State()
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.NotEmpty(t, st.Err)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, gw.callCount())
}

func TestCoordinator_Failures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		warm      bool
		wantPhase Phase
		wantStale bool
		wantErr   string
		wantKind  domain.ErrorKind
	}{
		{
			name:      "rejection surfaces detail",
			err:       &domain.GatewayError{Op: "search-users", Status: 400, Detail: "query too short"},
			wantPhase: PhaseFailed,
			wantErr:   "query too short",
			wantKind:  domain.KindRejected,
		},
		{
			name:      "offline without cache fails",
			err:       &domain.TransportError{Op: "search-users", Err: errors.New("refused")},
			wantPhase: PhaseFailed,
			wantErr:   "Cannot reach the server. Check your connection.",
			wantKind:  domain.KindTransport,
		},
		{
			name:      "offline with expired cache serves stale",
			err:       &domain.TransportError{Op: "search-users", Err: errors.New("refused")},
			warm:      true,
			wantPhase: PhaseResolved,
			wantStale: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newMockGateway()
			gw.pages["jo"] = gateway.UserPage{Users: []domain.User{user("u1", "Jo", domain.RoleIntern, "")}}
			c, _, clock := newTestCoordinator(gw)
			defer c.Close()

			if tt.warm {
				c.Search(manager, "jo", "")
				waitPhase(t, c, PhaseResolved)
				clock.Advance(DefaultTTL + time.Minute)
				c.Search(manager, "", "")
			}

			gw.setErr(tt.err)
			c.Search(manager, "jo", "")
			st := waitPhase(t, c, tt.wantPhase)

			assert.Equal(t, tt.wantStale, st.Stale)
			assert.Equal(t, tt.wantErr, st.Err)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantKind, st.ErrKind)
				assert.Empty(t, st.Users)
			} else {
				assert.Len(t, st.Users, 1)
			}
		})
	}
}

func TestCoordinator_ClearSearchCancelsInFlight(t *testing.T) {
	gw := newMockGateway()
	gw.pages["jo"] = gateway.UserPage{Users: []domain.User{user("u1", "Jo", domain.RoleIntern, "")}}
	release := make(chan struct{})
	gw.block["jo"] = release
	c, _, _ := newTestCoordinator(gw)
	defer c.Close()

	c.SelectUser(user("u9", "Kept", domain.RoleIntern, ""))
	c.Search(manager, "jo", "")
	<-gw.started

	c.ClearSearch()
	close(release)
	time.Sleep(20 * time.Millisecond)

	st := c.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.Users)
	assert.Empty(t, st.Err)
	require.Len(t, st.Selected, 1)
	assert.Equal(t, "u9", st.Selected[0].ID)
}

func TestCoordinator_Selection(t *testing.T) {
	c, sender, _ := newTestCoordinator(newMockGateway())
	defer c.Close()

	ann := user("u1", "Ann", domain.RoleDeveloper, "")
	bob := user("u2", "Bob", domain.RoleIntern, "")
	cy := user("u3", "Cy", domain.RoleIntern, "")

	c.SelectUser(ann)
	c.SelectUser(bob)
	c.SelectUser(ann)
	c.Search(manager, "", "")
	c.SelectUser(cy)
	assert.Equal(t, []string{"u1", "u2", "u3"}, c.SelectedIDs())

	c.RemoveUser("u2")
	assert.Equal(t, []domain.User{ann, cy}, c.SelectedUsers())

	c.ToggleUser(ann)
	assert.False(t, c.IsSelected("u1"))
	c.ToggleUser(ann)
	assert.Equal(t, []string{"u3", "u1"}, c.SelectedIDs())

	c.ClearSelection()
	assert.Empty(t, c.SelectedUsers())

	states := sender.all()
	require.NotEmpty(t, states)
	for i := 1; i < len(states); i++ {
		assert.Greater(t, states[i].Version, states[i-1].Version)
	}
}

func TestCoordinator_CloseIgnoresLaterSearches(t *testing.T) {
	gw := newMockGateway()
	c, _, _ := newTestCoordinator(gw)

	c.Close()
	c.Search(manager, "jo", "")

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, gw.callCount())
	assert.Equal(t, PhaseIdle, c.State().Phase)
}

func TestResultCache_EvictsOldestWrite(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := newResultCache(DefaultTTL, 3)

	cache.put("a", entry{storedAt: now})
	cache.put("b", entry{storedAt: now})
	cache.put("c", entry{storedAt: now})
	cache.put("a", entry{storedAt: now}) // rewrite makes "a" newest
	cache.put("d", entry{storedAt: now})

	assert.Equal(t, 3, cache.len())
	_, ok, _ := cache.get("b", now)
	assert.False(t, ok, "oldest write evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok, fresh := cache.get(key, now)
		assert.True(t, ok, key)
		assert.True(t, fresh, key)
	}

	_, ok, fresh := cache.get("a", now.Add(DefaultTTL))
	assert.True(t, ok)
	assert.False(t, fresh)
}

func TestCoordinator_CacheCapacity(t *testing.T) {
	gw := newMockGateway()
	c, _, _ := newTestCoordinator(gw)
	defer c.Close()

	for i := 0; i < DefaultCapacity+1; i++ {
		c.Search(manager, string(rune('a'+i))+"x", "")
		waitPhase(t, c, PhaseResolved)
	}
	assert.Equal(t, DefaultCapacity, c.cache.len())

	// The first key was evicted and needs a new request
	before := gw.callCount()
	c.Search(manager, "ax", "")
	require.Eventually(t, func() bool { return gw.callCount() == before+1 }, time.Second, time.Millisecond)
}

func TestCoordinator_OvertakenRequestEndsSuperseded(t *testing.T) {
	gw := newMockGateway()
	release := make(chan struct{})
	gw.block["jo"] = release
	gw.pages["jo"] = gateway.UserPage{Users: []domain.User{user("u1", "Jo", domain.RoleIntern, "")}}
	c, _, _ := newTestCoordinator(gw)
	defer c.Close()

	q := domain.ClassifyQuery("jo", "")
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()

	done := make(chan Phase, 1)
	go func() { done <- c.fire(tok, manager, q) }()
	<-gw.started

	c.Search(manager, "", "")
	close(release)

	assert.Equal(t, PhaseSuperseded, <-done)
	assert.Equal(t, PhaseIdle, c.State().Phase)
	assert.Empty(t, c.State().Users)

	// an already stale token never reaches the gateway
	calls := gw.callCount()
	assert.Equal(t, PhaseSuperseded, c.fire(tok, manager, q))
	assert.Equal(t, calls, gw.callCount())
}

func TestPhase_String(t *testing.T) {
	tests := map[Phase]string{
		PhaseIdle:       "idle",
		PhasePending:    "pending",
		PhaseResolved:   "resolved",
		PhaseFailed:     "failed",
		PhaseSuperseded: "superseded",
	}
	for p, want := range tests {
		assert.Equal(t, want, p.String())
	}
}
