package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) statuses() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bool
	for _, m := range r.msgs {
		if s, ok := m.(StatusMsg); ok {
			out = append(out, s.Online)
		}
	}
	return out
}

func TestNewStatusChecker(t *testing.T) {
	checker := NewStatusChecker("http://localhost", nil)
	require.NotNil(t, checker)
	assert.True(t, checker.IsOnline(), "should be optimistically online initially")
	assert.True(t, checker.LastCheck().IsZero())
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "ok", status: http.StatusOK, want: true},
		{name: "unauthorized still reachable", status: http.StatusUnauthorized, want: true},
		{name: "not found still reachable", status: http.StatusNotFound, want: true},
		{name: "server error", status: http.StatusInternalServerError, want: false},
		{name: "bad gateway", status: http.StatusBadGateway, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			checker := NewStatusChecker(server.URL, nil)
			got := checker.Check(context.Background())

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, checker.IsOnline())
			assert.False(t, checker.LastCheck().IsZero())
		})
	}
}

func TestCheck_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	checker := NewStatusChecker(url, nil)
	assert.False(t, checker.Check(context.Background()))
	assert.False(t, checker.IsOnline())
}

func TestCheck_BadTarget(t *testing.T) {
	checker := NewStatusChecker("://nope", nil)
	assert.False(t, checker.Check(context.Background()))
}

func TestReport(t *testing.T) {
	checker := NewStatusChecker("http://localhost", nil)

	assert.False(t, checker.Report(true), "no change from the optimistic default")
	assert.True(t, checker.Report(false))
	assert.False(t, checker.IsOnline())
	assert.False(t, checker.Report(false))
	assert.True(t, checker.Report(true))
}

func TestStartMonitoring_SendsOnChange(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	checker := NewStatusChecker(server.URL, nil)
	sender := &recordingSender{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.StartMonitoring(ctx, sender, 10*time.Millisecond)
		close(done)
	}()

	// Stable status sends nothing
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, sender.statuses())

	healthy.Store(false)
	require.Eventually(t, func() bool {
		return len(sender.statuses()) == 1
	}, time.Second, 5*time.Millisecond)

	healthy.Store(true)
	require.Eventually(t, func() bool {
		return len(sender.statuses()) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartMonitoring did not return after cancel")
	}

	assert.Equal(t, []bool{false, true}, sender.statuses()[:2])
}

func TestStartMonitoring_InitiallyOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := NewStatusChecker(server.URL, nil)
	sender := &recordingSender{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go checker.StartMonitoring(ctx, sender, time.Hour)

	require.Eventually(t, func() bool {
		return len(sender.statuses()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []bool{false}, sender.statuses())
}

func TestConcurrentAccess(t *testing.T) {
	checker := NewStatusChecker("http://localhost", nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			checker.Report(i%2 == 0)
		}
	}()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = checker.IsOnline()
				_ = checker.LastCheck()
			}
		}()
	}

	wg.Wait()
}

func TestCheckCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	checker := NewStatusChecker(server.URL, nil)
	cmd := checker.CheckCmd()
	require.NotNil(t, cmd)

	msg := cmd()
	statusMsg, ok := msg.(StatusMsg)
	require.True(t, ok, "should return StatusMsg")
	assert.True(t, statusMsg.Online)
}
