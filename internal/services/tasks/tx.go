package tasks

import (
	"sync"

	"github.com/riordanpawley/tandem/internal/domain"
)

// statusTx is an optimistic status change awaiting the server
type statusTx struct {
	snapshot []domain.Task // collection before the change
	before   domain.Task   // the record before the change
	applied  domain.Task   // the speculative record
	gen      uint64        // generation right after the change
}

// beginTxLocked snapshots the collection and applies the speculative record
func (s *Store) beginTxLocked(i int, applied domain.Task) statusTx {
	tx := statusTx{
		snapshot: s.tasks,
		before:   s.tasks[i].Clone(),
		applied:  applied,
	}
	s.replaceLocked(i, applied)
	tx.gen = s.gen
	s.touched[applied.ID] = s.gen
	return tx
}

// rollbackLocked undoes tx. When nothing else wrote the collection since
// the change, the exact snapshot is restored. Otherwise only this task's
// status is put back, and only if it still holds the speculative value.
func (s *Store) rollbackLocked(tx statusTx) {
	if s.gen == tx.gen {
		s.tasks = tx.snapshot
		s.gen++
		return
	}
	i := s.indexLocked(tx.before.ID)
	if i < 0 {
		return
	}
	if s.tasks[i].Status != tx.applied.Status {
		return
	}
	s.replaceLocked(i, s.tasks[i].WithStatus(tx.before.Status))
}

// taskLock serializes mutations of one task
type taskLock struct {
	mu   sync.Mutex
	refs int
}

// lockTask blocks until the caller holds the task's mutation lock and
// returns the release function
func (s *Store) lockTask(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &taskLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}
