package disposable

import (
	"sync"

	"go.uber.org/multierr"
)

// bagEntry is one registration in a Bag
type bagEntry struct {
	id      uint64
	d       Disposable
	cleanup func() error
}

// Bag is a scoped disposal registry. Everything added to a Bag is released
// exactly once, when the Bag is disposed or closed. Entries are released in
// reverse order of registration, like deferred calls.
//
// A Bag is itself a Disposable, so scopes nest:
//
//	owner := &disposable.Bag{}
//	owner.Add(s.Scope()) // tie the subject's scope to the owner
//	defer owner.Dispose()
//
// The zero value is ready to use.
type Bag struct {
	mu       sync.Mutex
	entries  []bagEntry
	nextID   uint64
	disposed bool
}

// Add registers d with the bag. If the bag is already disposed, d is
// disposed immediately.
//
// The returned handle removes d from the bag and disposes it, leaving the
// rest of the bag untouched.
func (b *Bag) Add(d Disposable) Disposable {
	if d == nil {
		return Disposed()
	}
	id, ok := b.add(bagEntry{d: d})
	if !ok {
		d.Dispose()
		return Disposed()
	}
	return New(func() {
		b.remove(id)
		d.Dispose()
	})
}

// AddFunc registers a cleanup function that runs when the bag is torn down.
// Errors returned by cleanup functions are reported by Close. If the bag is
// already disposed, fn runs immediately and its error is returned.
func (b *Bag) AddFunc(fn func() error) error {
	if fn == nil {
		return nil
	}
	if _, ok := b.add(bagEntry{cleanup: fn}); !ok {
		return fn()
	}
	return nil
}

func (b *Bag) add(e bagEntry) (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return 0, false
	}
	b.nextID++
	e.id = b.nextID
	b.entries = append(b.entries, e)
	return e.id, true
}

func (b *Bag) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of live registrations.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Close disposes every registration in reverse order and returns the
// combined errors of the cleanup functions. Only the first call does any
// work; later calls return nil.
func (b *Bag) Close() error {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return nil
	}
	b.disposed = true
	entries := b.entries
	b.entries = nil
	b.mu.Unlock()

	var err error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.d != nil {
			e.d.Dispose()
		}
		if e.cleanup != nil {
			err = multierr.Append(err, e.cleanup())
		}
	}
	return err
}

// Dispose is Close without the error.
func (b *Bag) Dispose() {
	_ = b.Close()
}

// IsDisposed reports whether the bag has been torn down.
func (b *Bag) IsDisposed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disposed
}

var _ Disposable = (*Bag)(nil)
