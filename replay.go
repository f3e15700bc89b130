package subject

// replayer is the buffering strategy of a subject. Both methods run under
// the subject lock.
type replayer[T any] interface {
	// record is called with every accepted event before it is broadcast.
	record(ev Event[T])
	// snapshot returns the events a newly subscribed observer receives
	// before live events. The slice must not be retained by the strategy.
	snapshot() []Event[T]
}

// noReplay keeps nothing
type noReplay[T any] struct{}

func (noReplay[T]) record(Event[T]) {}

func (noReplay[T]) snapshot() []Event[T] { return nil }

// boundedReplay keeps the last capacity data events and the terminal event.
// A capacity of 0 means unbounded.
type boundedReplay[T any] struct {
	capacity int
	events   []Event[T]
}

func (r *boundedReplay[T]) record(ev Event[T]) {
	r.events = append(r.events, ev)
	if r.capacity <= 0 {
		return
	}
	limit := r.capacity
	if ev.IsTerminal() {
		// the terminal event gets a slot of its own
		limit++
	}
	if n := len(r.events) - limit; n > 0 {
		// drop references to evicted events so their payloads can be collected
		clear(r.events[:n])
		r.events = r.events[n:]
	}
}

func (r *boundedReplay[T]) snapshot() []Event[T] {
	if len(r.events) == 0 {
		return nil
	}
	out := make([]Event[T], len(r.events))
	copy(out, r.events)
	return out
}

// latestReplay keeps the most recent data event and the terminal event
type latestReplay[T any] struct {
	last     *Event[T]
	terminal *Event[T]
}

func (r *latestReplay[T]) record(ev Event[T]) {
	if ev.IsTerminal() {
		r.terminal = &ev
		return
	}
	r.last = &ev
}

func (r *latestReplay[T]) snapshot() []Event[T] {
	var out []Event[T]
	if r.last != nil {
		out = append(out, *r.last)
	}
	if r.terminal != nil {
		out = append(out, *r.terminal)
	}
	return out
}
