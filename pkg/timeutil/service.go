package timeutil

import (
	"sync"
	"time"
)

// Timer is a one-shot timer handle obtained from a Service.
// Stop prevents a not-yet-delivered callback from running; a callback
// racing with Stop must tolerate finding its subject already gone
// (owners key callbacks by identity and look the subject up on expiry).
type Timer struct {
	mu      sync.Mutex
	stopped bool
	cancel  func()
}

// Stop cancels the timer. Safe to call more than once.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	if t.cancel != nil {
		t.cancel()
	}
}

func (t *Timer) run(fn func()) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()

	fn()
}

// Service provides reusable one-shot timers with millisecond granularity
type Service interface {
	// StartOneShot schedules fn to run once after d
	StartOneShot(d time.Duration, fn func()) *Timer

	// Now returns the service's current time
	Now() time.Time
}

// realService delivers callbacks from the runtime timer goroutine
type realService struct{}

// NewService creates a timer service backed by the system clock
func NewService() Service {
	return &realService{}
}

func (s *realService) StartOneShot(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	sys := time.AfterFunc(d, func() {
		t.run(fn)
	})
	t.cancel = func() { sys.Stop() }
	return t
}

func (s *realService) Now() time.Time {
	return time.Now()
}
