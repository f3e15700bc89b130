package subject

import (
	"sync"

	"github.com/rbaliyan/subject/disposable"
)

// AtomicObserver guards one downstream observer: it receives at most one
// terminal event, and nothing once the associated disposable is disposed.
// Delivering a terminal event disposes the associated disposable, so a
// derived observer chain unsubscribes itself from upstream when it ends.
//
// AtomicObserver has its own lock, independent of any subject. The target
// must not call Deliver on the same AtomicObserver.
type AtomicObserver[T any] struct {
	mu         sync.Mutex
	target     Observer[T]
	link       disposable.Disposable
	terminated bool
}

// NewAtomic wraps target. link is the upstream subscription that is
// disposed after the terminal event; a nil link is replaced with a fresh
// handle.
func NewAtomic[T any](target Observer[T], link disposable.Disposable) *AtomicObserver[T] {
	if target == nil {
		panic("subject: NewAtomic called with a nil Observer")
	}
	if link == nil {
		link = disposable.New(nil)
	}
	return &AtomicObserver[T]{target: target, link: link}
}

// Deliver forwards ev to the target unless the link is disposed or a
// terminal event was already delivered.
func (a *AtomicObserver[T]) Deliver(ev Event[T]) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.terminated || a.link.IsDisposed() {
		return
	}
	if ev.IsTerminal() {
		a.terminated = true
		defer a.link.Dispose()
	}
	a.target(ev)
}

// Observer returns Deliver as an Observer.
func (a *AtomicObserver[T]) Observer() Observer[T] {
	return a.Deliver
}

// Link returns the disposable severed by the terminal event.
func (a *AtomicObserver[T]) Link() disposable.Disposable {
	return a.link
}

// SubscribeAtomic subscribes target to src through an AtomicObserver. The
// subscription is disposed when target receives its terminal event, even
// when that event is replayed during Subscribe itself.
func SubscribeAtomic[T any](src Observable[T], target Observer[T]) disposable.Disposable {
	link := &disposable.Assignable{}
	a := NewAtomic(target, link)
	link.Set(src.Subscribe(a.Deliver))
	return link
}
