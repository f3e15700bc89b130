package subject

import (
	"sync"
	"time"
)

// Recorder is an observer that records every event it receives.
// Useful for testing code that produces events.
//
// Example:
//
//	rec := subject.NewRecorder[int]()
//	s.Subscribe(rec.Observer())
//	s.OnNext(1)
//	rec.Values() // [1]
type Recorder[T any] struct {
	mu      sync.Mutex
	events  []Event[T]
	changed chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{changed: make(chan struct{})}
}

// Record appends ev. It has the Observer signature.
func (r *Recorder[T]) Record(ev Event[T]) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	// wake waiters by closing the current channel and swapping a new one
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()
}

// Observer returns Record as an Observer.
func (r *Recorder[T]) Observer() Observer[T] {
	return r.Record
}

// Events returns a copy of all recorded events
func (r *Recorder[T]) Events() []Event[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Event[T], len(r.events))
	copy(result, r.events)
	return result
}

// Values returns the data items of the recorded Next events
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []T
	for _, ev := range r.events {
		if v, ok := ev.Value(); ok {
			result = append(result, v)
		}
	}
	return result
}

// Terminal returns the first recorded terminal event.
func (r *Recorder[T]) Terminal() (Event[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ev := range r.events {
		if ev.IsTerminal() {
			return ev, true
		}
	}
	return Event[T]{}, false
}

// TerminalCount returns the number of recorded terminal events
func (r *Recorder[T]) TerminalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, ev := range r.events {
		if ev.IsTerminal() {
			n++
		}
	}
	return n
}

// Count returns the number of recorded events
func (r *Recorder[T]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset clears all recorded events
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// WaitFor blocks until at least n events were recorded or timeout elapses.
// Returns false on timeout.
func (r *Recorder[T]) WaitFor(n int, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		r.mu.Lock()
		count := len(r.events)
		changed := r.changed
		r.mu.Unlock()

		if count >= n {
			return true
		}
		select {
		case <-changed:
		case <-timer.C:
			return false
		}
	}
}
