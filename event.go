package subject

import "fmt"

// Kind identifies the variant of an Event.
type Kind uint8

const (
	// KindNext carries a data item.
	KindNext Kind = iota + 1
	// KindFailed carries a failure. Terminal.
	KindFailed
	// KindCompleted signals successful completion. Terminal.
	KindCompleted
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindFailed:
		return "failed"
	case KindCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Event is an immutable notification: a data item, a failure or a
// completion signal. The zero Event is invalid and must not be accepted.
type Event[T any] struct {
	kind  Kind
	value T
	err   error
}

// Next returns a data event carrying v.
func Next[T any](v T) Event[T] {
	return Event[T]{kind: KindNext, value: v}
}

// Failed returns a terminal failure event. A nil err is replaced with
// ErrUnspecified so a failure always carries an error.
func Failed[T any](err error) Event[T] {
	if err == nil {
		err = ErrUnspecified
	}
	return Event[T]{kind: KindFailed, err: err}
}

// Completed returns a terminal completion event.
func Completed[T any]() Event[T] {
	return Event[T]{kind: KindCompleted}
}

// Kind returns the event variant.
func (e Event[T]) Kind() Kind {
	return e.kind
}

// IsTerminal reports whether the event is a failure or a completion.
func (e Event[T]) IsTerminal() bool {
	return e.kind == KindFailed || e.kind == KindCompleted
}

// Value returns the data item and true for Next events.
func (e Event[T]) Value() (T, bool) {
	return e.value, e.kind == KindNext
}

// Err returns the failure of a Failed event, nil otherwise.
func (e Event[T]) Err() error {
	return e.err
}

func (e Event[T]) valid() bool {
	return e.kind >= KindNext && e.kind <= KindCompleted
}

func (e Event[T]) String() string {
	switch e.kind {
	case KindNext:
		return fmt.Sprintf("Next(%v)", e.value)
	case KindFailed:
		return fmt.Sprintf("Failed(%v)", e.err)
	case KindCompleted:
		return "Completed"
	default:
		return "Invalid"
	}
}

// Observer consumes events. Observers are invoked synchronously and must not
// block for long: delivery to the next observer waits for them.
type Observer[T any] func(Event[T])

// Observe builds an Observer from per-kind callbacks. Nil callbacks are
// skipped.
//
// Example:
//
//	s.Subscribe(subject.Observe(
//	    func(v int) { fmt.Println("got", v) },
//	    func(err error) { log.Println("failed:", err) },
//	    func() { fmt.Println("done") },
//	))
func Observe[T any](onNext func(T), onError func(error), onComplete func()) Observer[T] {
	return func(ev Event[T]) {
		switch ev.kind {
		case KindNext:
			if onNext != nil {
				onNext(ev.value)
			}
		case KindFailed:
			if onError != nil {
				onError(ev.err)
			}
		case KindCompleted:
			if onComplete != nil {
				onComplete()
			}
		}
	}
}
