package timeutil

import (
	"sync"
	"time"

	"avaneesh/pdcp-lte-go/pkg/internal/timerheap"
)

// ManualService is a timer service driven by explicit Advance calls.
// Callbacks run synchronously on the advancing goroutine, in deadline
// order, which makes timer behavior deterministic in tests.
type ManualService struct {
	mu      sync.Mutex
	now     time.Time
	pending *timerheap.Heap
}

// NewManualService creates a manual timer service starting at an
// arbitrary fixed epoch
func NewManualService() *ManualService {
	return &ManualService{
		now:     time.Unix(0, 0),
		pending: timerheap.New(),
	}
}

// StartOneShot schedules fn to run once the clock has advanced by d
func (s *ManualService) StartOneShot(d time.Duration, fn func()) *Timer {
	s.mu.Lock()
	deadline := s.now.Add(d)
	s.mu.Unlock()

	t := &Timer{}
	entry := s.pending.Push(deadline, func() {
		t.run(fn)
	})
	t.cancel = func() { s.pending.Remove(entry) }
	return t
}

// Now returns the manual clock's current time
func (s *ManualService) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the clock forward by d and fires every timer that
// becomes due, in deadline order
func (s *ManualService) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	now := s.now
	s.mu.Unlock()

	for {
		e := s.pending.PopDue(now)
		if e == nil {
			return
		}
		e.Fn()
	}
}

// Pending returns the number of timers not yet fired or stopped
func (s *ManualService) Pending() int {
	return s.pending.Len()
}
