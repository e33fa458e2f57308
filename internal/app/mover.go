package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/domain"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentMoves bounds the status updates a bulk move runs at once
const maxConcurrentMoves = 4

// StatusUpdater is the store operation a queued move eventually runs
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, s auth.Session, taskID string, status domain.Status) error
}

type statusMove struct {
	sess   auth.Session
	taskID string
	to     domain.Status
}

// deferredUpdater queues status updates requested by the projection during
// Update so they can run off the event loop in a single command.
type deferredUpdater struct {
	store   StatusUpdater
	pending []statusMove
}

func newDeferredUpdater(store StatusUpdater) *deferredUpdater {
	return &deferredUpdater{store: store}
}

// UpdateStatus queues the move and reports success; the real outcome
// arrives later as a movesDoneMsg
func (d *deferredUpdater) UpdateStatus(_ context.Context, s auth.Session, taskID string, status domain.Status) error {
	d.pending = append(d.pending, statusMove{sess: s, taskID: taskID, to: status})
	return nil
}

// movesDoneMsg reports the outcome of a flushed batch
type movesDoneMsg struct {
	count int
	err   error
}

// flush drains the queue into a command, or returns nil when nothing is queued
func (d *deferredUpdater) flush() tea.Cmd {
	if len(d.pending) == 0 {
		return nil
	}
	moves := d.pending
	d.pending = nil
	store := d.store

	return func() tea.Msg {
		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(maxConcurrentMoves)

		errs := make([]error, len(moves))
		for i, mv := range moves {
			i, mv := i, mv
			g.Go(func() error {
				// Collect rather than return so one failure never cancels
				// the other moves
				errs[i] = store.UpdateStatus(ctx, mv.sess, mv.taskID, mv.to)
				return nil
			})
		}
		_ = g.Wait()
		return movesDoneMsg{count: len(moves), err: errors.Join(errs...)}
	}
}
