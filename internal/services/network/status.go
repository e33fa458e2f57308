// Package network tracks whether the task API is reachable.
package network

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Sender delivers messages to the running program
type Sender interface {
	Send(msg tea.Msg)
}

// StatusChecker monitors connectivity to the task API
type StatusChecker struct {
	mu        sync.RWMutex
	isOnline  bool
	lastCheck time.Time
	target    string
	client    *http.Client
	logger    *slog.Logger
}

// StatusMsg is sent when the network status changes
type StatusMsg struct {
	Online bool
}

// NewStatusChecker creates a checker that probes target, normally the API base URL
func NewStatusChecker(target string, logger *slog.Logger) *StatusChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusChecker{
		isOnline: true, // Optimistically assume online
		target:   target,
		logger:   logger,
		client: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
	}
}

// Check performs a connectivity check against the target.
// Any HTTP answer below 500 counts as reachable; auth failures still prove
// the server is up.
func (s *StatusChecker) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.target, nil)
	if err != nil {
		s.Report(false)
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("connectivity probe failed", "target", s.target, "error", err)
		s.Report(false)
		return false
	}
	defer resp.Body.Close()

	online := resp.StatusCode < 500

	s.Report(online)
	return online
}

// IsOnline returns the cached online status
func (s *StatusChecker) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isOnline
}

// LastCheck returns the time of the last connectivity check
func (s *StatusChecker) LastCheck() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCheck
}

// Report records an outcome observed elsewhere, such as a failed API call,
// and reports whether it changed the cached status
func (s *StatusChecker) Report(online bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.isOnline != online
	s.isOnline = online
	s.lastCheck = time.Now()
	return changed
}

// StartMonitoring polls the target at the given interval until ctx is done.
// A StatusMsg is sent to sender whenever the status flips.
func (s *StatusChecker) StartMonitoring(ctx context.Context, sender Sender, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial check
	wasOnline := s.Check(ctx)
	if !wasOnline {
		sender.Send(StatusMsg{Online: false})
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			isOnline := s.Check(ctx)
			if ctx.Err() != nil {
				return
			}

			if isOnline != wasOnline {
				s.logger.Info("network status changed", "online", isOnline)
				sender.Send(StatusMsg{Online: isOnline})
				wasOnline = isOnline
			}
		}
	}
}

// CheckCmd returns a tea.Cmd that performs a one-time connectivity check
func (s *StatusChecker) CheckCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		online := s.Check(ctx)
		return StatusMsg{Online: online}
	}
}
