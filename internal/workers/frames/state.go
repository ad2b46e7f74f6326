package frames

import (
	"sync"
	"sync/atomic"
)

// PoolState holds the run flag, the pause flag and the completed count.
// The flags are guarded by mu; waiting workers park on cond. The completed
// count only ever moves through an atomic increment.
type PoolState struct {
	mu        sync.Mutex
	cond      *sync.Cond
	running   bool
	paused    bool
	completed atomic.Int64
	total     int
}

// NewPoolState returns a running, unpaused state for total items
func NewPoolState(total int) *PoolState {
	s := &PoolState{running: true, total: total}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Checkpoint blocks while the state is paused and running. It returns
// ErrCancelled once Stop has been called.
func (s *PoolState) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.paused && s.running {
		s.cond.Wait()
	}
	if !s.running {
		return ErrCancelled
	}
	return nil
}

// Pause makes later checkpoints block. It reports whether the flag changed.
func (s *PoolState) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.paused {
		return false
	}
	s.paused = true
	return true
}

// Resume clears the pause flag and wakes every blocked worker
func (s *PoolState) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paused {
		return false
	}
	s.paused = false
	s.cond.Broadcast()
	return true
}

// Stop clears the run flag and wakes paused workers so they observe it.
// Only the first call reports true.
func (s *PoolState) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}
	s.running = false
	s.paused = false
	s.cond.Broadcast()
	return true
}

// Paused reports whether the pause flag is set
func (s *PoolState) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Cancelled reports whether Stop has been called
func (s *PoolState) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.running
}

// Increment records one finished item and returns the new completed count
func (s *PoolState) Increment() int {
	return int(s.completed.Add(1))
}

// Completed returns the number of finished items
func (s *PoolState) Completed() int {
	return int(s.completed.Load())
}

// Total returns the number of items in the batch
func (s *PoolState) Total() int {
	return s.total
}
