package timeutil

import (
	"testing"
	"time"
)

func TestManualService_FiresInDeadlineOrder(t *testing.T) {
	ts := NewManualService()

	var fired []int
	ts.StartOneShot(30*time.Millisecond, func() { fired = append(fired, 3) })
	ts.StartOneShot(10*time.Millisecond, func() { fired = append(fired, 1) })
	ts.StartOneShot(20*time.Millisecond, func() { fired = append(fired, 2) })

	ts.Advance(25 * time.Millisecond)
	if len(fired) != 2 || fired[0] != 1 || fired[1] != 2 {
		t.Fatalf("fired = %v, expected [1 2]", fired)
	}

	ts.Advance(5 * time.Millisecond)
	if len(fired) != 3 || fired[2] != 3 {
		t.Fatalf("fired = %v, expected [1 2 3]", fired)
	}
}

func TestManualService_StopPreventsCallback(t *testing.T) {
	ts := NewManualService()

	fired := false
	timer := ts.StartOneShot(10*time.Millisecond, func() { fired = true })
	timer.Stop()

	ts.Advance(time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	if ts.Pending() != 0 {
		t.Errorf("Pending() = %d, expected 0", ts.Pending())
	}
}

func TestManualService_StopIsIdempotent(t *testing.T) {
	ts := NewManualService()

	timer := ts.StartOneShot(10*time.Millisecond, func() {})
	timer.Stop()
	timer.Stop()

	ts.Advance(time.Second)
}

func TestManualService_TimerFiresOnce(t *testing.T) {
	ts := NewManualService()

	count := 0
	ts.StartOneShot(10*time.Millisecond, func() { count++ })

	ts.Advance(time.Second)
	ts.Advance(time.Second)
	if count != 1 {
		t.Errorf("callback ran %d times, expected 1", count)
	}
}

func TestManualService_SameDeadlineKeepsInsertionOrder(t *testing.T) {
	ts := NewManualService()

	var fired []int
	for i := 0; i < 5; i++ {
		i := i
		ts.StartOneShot(10*time.Millisecond, func() { fired = append(fired, i) })
	}

	ts.Advance(10 * time.Millisecond)
	for i, v := range fired {
		if v != i {
			t.Fatalf("fired = %v, expected insertion order", fired)
		}
	}
}

func TestService_RealTimerFires(t *testing.T) {
	ts := NewService()

	done := make(chan struct{})
	ts.StartOneShot(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestService_RealTimerStop(t *testing.T) {
	ts := NewService()

	fired := make(chan struct{}, 1)
	timer := ts.StartOneShot(50*time.Millisecond, func() { fired <- struct{}{} })
	timer.Stop()

	select {
	case <-fired:
		t.Error("stopped timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}
