// Package disposable provides cancellation handles for subscriptions.
//
// A Disposable severs whatever it was created for. Disposing is idempotent:
// the first call does the work, later calls are no-ops.
//
//	d := disposable.New(func() { fmt.Println("released") })
//	d.Dispose() // prints "released"
//	d.Dispose() // no-op
//
// Bag collects disposables that share a lifetime (an owner scope) and tears
// them all down exactly once.
package disposable

import (
	"sync"
	"sync/atomic"
)

// Disposable is a cancellation capability.
type Disposable interface {
	// Dispose releases the resource. Safe to call more than once.
	Dispose()
	// IsDisposed reports whether Dispose has been called.
	IsDisposed() bool
}

// funcDisposable runs a release function at most once
type funcDisposable struct {
	disposed atomic.Bool
	once     sync.Once
	fn       func()
}

// New returns a Disposable that runs fn on the first Dispose call.
// A nil fn is allowed; the handle then only tracks its disposed state.
func New(fn func()) Disposable {
	return &funcDisposable{fn: fn}
}

func (d *funcDisposable) Dispose() {
	d.once.Do(func() {
		d.disposed.Store(true)
		if d.fn != nil {
			d.fn()
		}
	})
}

func (d *funcDisposable) IsDisposed() bool {
	return d.disposed.Load()
}

// Disposed returns a handle that is already disposed.
func Disposed() Disposable {
	d := &funcDisposable{}
	d.Dispose()
	return d
}

// Assignable is a Disposable whose inner handle is supplied after creation.
// It is used when the handle must exist before the thing it cancels, for
// example an observer that may need to unsubscribe while Subscribe is still
// running.
type Assignable struct {
	mu       sync.Mutex
	inner    Disposable
	disposed bool
}

// Set assigns the inner handle. If the Assignable was already disposed the
// inner handle is disposed immediately. Set on an assigned, live Assignable
// replaces the previous handle without disposing it.
func (a *Assignable) Set(d Disposable) {
	if d == nil {
		return
	}
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		d.Dispose()
		return
	}
	a.inner = d
	a.mu.Unlock()
}

// Dispose disposes the current inner handle, and any handle assigned later.
func (a *Assignable) Dispose() {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return
	}
	a.disposed = true
	inner := a.inner
	a.inner = nil
	a.mu.Unlock()

	if inner != nil {
		inner.Dispose()
	}
}

// IsDisposed reports whether Dispose has been called.
func (a *Assignable) IsDisposed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disposed
}

// Compile-time interface checks
var _ Disposable = (*funcDisposable)(nil)
var _ Disposable = (*Assignable)(nil)
