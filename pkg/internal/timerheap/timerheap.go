package timerheap

import (
	"container/heap"
	"sync"
	"time"
)

// Entry is a scheduled callback ordered by deadline
type Entry struct {
	Deadline time.Time // When the callback becomes due
	Fn       func()    // The callback to run
	Seq      uint64    // Insertion order, breaks deadline ties
	Index    int       // Index in the heap, -1 once removed
}

// Heap is a deadline-ordered heap of timer entries
type Heap struct {
	entries entryHeap
	nextSeq uint64
	mu      sync.Mutex
}

// New creates an empty timer heap
func New() *Heap {
	h := &Heap{
		entries: make(entryHeap, 0),
	}
	heap.Init(&h.entries)
	return h
}

// Push schedules fn at the given deadline and returns its entry
func (h *Heap) Push(deadline time.Time, fn func()) *Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := &Entry{
		Deadline: deadline,
		Fn:       fn,
		Seq:      h.nextSeq,
	}
	h.nextSeq++
	heap.Push(&h.entries, e)
	return e
}

// PopDue removes and returns the earliest entry with Deadline <= now,
// or nil if no entry is due
func (h *Heap) PopDue(now time.Time) *Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.entries.Len() == 0 {
		return nil
	}

	e := h.entries[0]
	if now.Before(e.Deadline) {
		return nil
	}

	return heap.Pop(&h.entries).(*Entry)
}

// Remove takes an entry out of the heap.
// Returns false if the entry was already popped or removed.
func (h *Heap) Remove(e *Entry) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.Index < 0 || e.Index >= h.entries.Len() || h.entries[e.Index] != e {
		return false
	}
	heap.Remove(&h.entries, e.Index)
	return true
}

// Len returns the number of pending entries
func (h *Heap) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries.Len()
}

// Clear removes all pending entries
func (h *Heap) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = make(entryHeap, 0)
	heap.Init(&h.entries)
}

// entryHeap implements heap.Interface
type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Deadline.Before(h[j].Deadline) {
		return true
	}
	if h[j].Deadline.Before(h[i].Deadline) {
		return false
	}
	return h[i].Seq < h[j].Seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *entryHeap) Push(x interface{}) {
	e := x.(*Entry)
	e.Index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.Index = -1
	*h = old[0 : n-1]
	return e
}
