package subject

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/petermattis/goid"
	"github.com/rbaliyan/subject/disposable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanKeySubjectID   = "subject.id"
	spanKeySubjectName = "subject.name"
	spanKeyEventKind   = "event.kind"
)

// Observable is anything observers can subscribe to.
type Observable[T any] interface {
	Subscribe(Observer[T]) disposable.Disposable
}

// Sink is anything that accepts events.
type Sink[T any] interface {
	Accept(Event[T])
}

// entry is one registered observer. active is cleared on disposal so that
// work queued before the disposal is not delivered to it.
type entry[T any] struct {
	token    uint64
	observer Observer[T]
	active   atomic.Bool
}

// delivery is a unit of work: every event goes to every target
type delivery[T any] struct {
	events  []Event[T]
	targets []*entry[T]
}

// Subject is a multicast event bus: it accepts events from any number of
// producers and broadcasts them to every subscribed observer, in
// subscription order.
//
// A Subject terminates on the first Failed or Completed event it accepts.
// After that every accepted event is dropped, but Subscribe keeps working:
// new observers receive whatever the replay strategy retained.
//
// Delivery is synchronous and serialized by a delivery lock owned by the
// goroutine performing the fan-out. Accept and Subscribe called from other
// goroutines wait for the lock and return only after their own work was
// delivered. Observers may call Accept, Subscribe or Dispose on the same
// subject from inside a callback: the owning goroutine re-enters without
// blocking, and the work is delivered once the current callback returns,
// before the outermost call returns. An observer that accepts a new event for
// every event it receives loops forever, and an observer that blocks on
// another goroutine calling into the same subject deadlocks; avoiding both is
// the caller's responsibility.
type Subject[T any] struct {
	id       string
	name     string
	spanName string
	logger   *slog.Logger
	metrics  *instruments
	tracer   trace.Tracer
	recovery bool
	onError  func(error)

	// emitMu serializes state changes with their fan-out; emitter is the
	// goroutine id of its holder, 0 when free.
	emitMu  sync.Mutex
	emitter atomic.Int64

	mu         sync.Mutex
	terminated bool
	nextToken  uint64
	entries    []*entry[T] // copy-on-write, insertion order
	replay     replayer[T]
	queue      []delivery[T] // work of the current fan-out, incl. reentrant calls

	scope disposable.Bag
}

// New creates a subject without replay: observers only receive events
// accepted after they subscribed.
func New[T any](opts ...Option) *Subject[T] {
	return newSubject[T](noReplay[T]{}, opts...)
}

// NewReplay creates a subject that replays the last capacity data events,
// followed by the terminal event if there was one, to every new observer.
// Returns ErrInvalidCapacity if capacity is not positive.
func NewReplay[T any](capacity int, opts ...Option) (*Subject[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return newSubject[T](&boundedReplay[T]{capacity: capacity}, opts...), nil
}

// NewReplayAll creates a subject that replays every event it ever accepted.
// The buffer is never trimmed; bound the subject's lifetime accordingly.
func NewReplayAll[T any](opts ...Option) *Subject[T] {
	return newSubject[T](&boundedReplay[T]{}, opts...)
}

// NewLatest creates a subject that replays the most recent data event and
// then the terminal event, whichever of them occurred.
func NewLatest[T any](opts ...Option) *Subject[T] {
	return newSubject[T](&latestReplay[T]{}, opts...)
}

// NewBehavior creates a latest-value subject seeded with initial, so every
// observer starts with a current value.
func NewBehavior[T any](initial T, opts ...Option) *Subject[T] {
	r := &latestReplay[T]{}
	r.record(Next(initial))
	return newSubject[T](r, opts...)
}

func newSubject[T any](r replayer[T], opts ...Option) *Subject[T] {
	o := newOptions(opts...)
	s := &Subject[T]{
		id:       NewID(),
		name:     o.name,
		spanName: o.name + ".accept",
		logger:   o.logger,
		metrics:  newInstruments(o.name, o.metricsEnabled),
		recovery: o.recoveryEnabled,
		onError:  o.onError,
		replay:   r,
	}
	if o.tracingEnabled {
		s.tracer = otel.Tracer(meterName)
	}
	return s
}

// ID returns the unique subject ID
func (s *Subject[T]) ID() string {
	return s.id
}

// Name returns the subject name
func (s *Subject[T]) Name() string {
	return s.name
}

// Scope returns the subject's scoped disposal registry. It holds the
// subject's own upstream subscriptions (see Bind). An owner ties them to its
// lifetime by adding the scope to its own bag.
func (s *Subject[T]) Scope() *disposable.Bag {
	return &s.scope
}

// IsTerminated reports whether a terminal event has been accepted.
func (s *Subject[T]) IsTerminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// Observers returns the number of registered observers.
func (s *Subject[T]) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshot returns the events an observer subscribing now would be replayed.
func (s *Subject[T]) Snapshot() []Event[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replay.snapshot()
}

// Latest returns the cached data item of a latest-value subject. It returns
// false for other subjects and when no data item has been accepted yet.
func (s *Subject[T]) Latest() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.replay.(*latestReplay[T]); ok && r.last != nil {
		return r.last.Value()
	}
	var zero T
	return zero, false
}

// OnNext accepts a data event.
func (s *Subject[T]) OnNext(v T) {
	s.Accept(Next(v))
}

// OnError accepts a failure, terminating the subject.
func (s *Subject[T]) OnError(err error) {
	s.Accept(Failed[T](err))
}

// OnComplete accepts a completion, terminating the subject.
func (s *Subject[T]) OnComplete() {
	s.Accept(Completed[T]())
}

// Accept broadcasts ev to every registered observer and returns once it was
// delivered. Events accepted after the subject terminated are dropped
// without error. Accepting the zero Event panics.
func (s *Subject[T]) Accept(ev Event[T]) {
	if !ev.valid() {
		panic("subject: Accept called with an invalid Event")
	}

	if s.tracer != nil {
		var span trace.Span
		_, span = s.tracer.Start(context.Background(), s.spanName,
			trace.WithAttributes(
				attribute.String(spanKeySubjectID, s.id),
				attribute.String(spanKeySubjectName, s.name),
				attribute.String(spanKeyEventKind, ev.Kind().String())),
			trace.WithSpanKind(trace.SpanKindProducer))
		defer span.End()
	}

	owner := s.enter()
	if owner {
		defer s.leave()
	}

	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		s.drop(ev)
		return
	}
	targets := s.entries
	if ev.IsTerminal() {
		s.terminated = true
		// nothing can be delivered live after the terminal event
		s.entries = nil
	}
	s.replay.record(ev)
	if len(targets) > 0 {
		s.queue = append(s.queue, delivery[T]{events: []Event[T]{ev}, targets: targets})
	}
	s.mu.Unlock()

	s.metrics.onAccepted(ev.Kind())
	if ev.IsTerminal() {
		s.logger.Debug("subject terminated", "subject", s.id, "kind", ev.Kind().String(), "observers", len(targets))
	}
	if owner {
		s.flush()
	}
}

// Subscribe registers observer and returns the handle that unregisters it.
// The observer first receives the replayed events, then live events in the
// order they are accepted. On a terminated subject the observer receives
// its replay and is not retained. Subscribing a nil observer panics.
//
// The returned handle references the subject weakly: disposing it after the
// subject became unreachable is a no-op.
func (s *Subject[T]) Subscribe(observer Observer[T]) disposable.Disposable {
	if observer == nil {
		panic("subject: Subscribe called with a nil Observer")
	}
	e := &entry[T]{observer: observer}
	e.active.Store(true)

	owner := s.enter()
	if owner {
		defer s.leave()
	}

	s.mu.Lock()
	if replayed := s.replay.snapshot(); len(replayed) > 0 {
		s.queue = append(s.queue, delivery[T]{events: replayed, targets: []*entry[T]{e}})
	}
	s.nextToken++
	e.token = s.nextToken
	terminated := s.terminated
	if !terminated {
		s.entries = append(s.entries[:len(s.entries):len(s.entries)], e)
	}
	s.mu.Unlock()

	s.metrics.onSubscribed()
	s.logger.Debug("added observer", "subject", s.id, "token", e.token, "terminated", terminated)
	if owner {
		s.flush()
	}

	ref := weak.Make(s)
	token := e.token
	return disposable.New(func() {
		e.active.Store(false)
		if s := ref.Value(); s != nil {
			s.remove(token)
		}
	})
}

// remove unregisters the observer with token, if still registered
func (s *Subject[T]) remove(token uint64) {
	s.mu.Lock()
	idx := -1
	for i, e := range s.entries {
		if e.token == token {
			idx = i
			break
		}
	}
	if idx >= 0 {
		next := make([]*entry[T], 0, len(s.entries)-1)
		next = append(next, s.entries[:idx]...)
		next = append(next, s.entries[idx+1:]...)
		s.entries = next
	}
	s.mu.Unlock()

	s.metrics.onDisposed()
	s.logger.Debug("removed observer", "subject", s.id, "token", token, "registered", idx >= 0)
}

// enter acquires the delivery lock and reports whether the caller became
// its owner. It returns false without blocking when the calling goroutine
// already owns the lock, that is when an observer calls back into the subject.
func (s *Subject[T]) enter() bool {
	gid := goid.Get()
	if s.emitter.Load() == gid {
		return false
	}
	s.emitMu.Lock()
	s.emitter.Store(gid)
	return true
}

// leave releases the delivery lock
func (s *Subject[T]) leave() {
	s.emitter.Store(0)
	s.emitMu.Unlock()
}

// flush delivers queued work until the queue is empty. Only the owner of the
// delivery lock calls it. If an observer panics, the fan-out of that event is
// abandoned but the remaining work is still delivered before the panic
// continues.
func (s *Subject[T]) flush() {
	finished := false
	defer func() {
		if !finished {
			s.flush()
		}
	}()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.queue = nil
			s.mu.Unlock()
			finished = true
			return
		}
		d := s.queue[0]
		s.queue[0] = delivery[T]{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.deliver(d)
	}
}

func (s *Subject[T]) deliver(d delivery[T]) {
	for _, ev := range d.events {
		for _, e := range d.targets {
			if !e.active.Load() {
				continue
			}
			s.invoke(e, ev)
		}
	}
}

// invoke calls one observer, isolating panics when recovery is enabled
func (s *Subject[T]) invoke(e *entry[T], ev Event[T]) {
	if s.recovery {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				s.logger.Error("observer panic recovered",
					"subject", s.id,
					"token", e.token,
					"kind", ev.Kind().String(),
					"error", r,
					"stack", string(stack),
				)
				s.onError(&PanicError{Subject: s.name, Value: r, Stack: stack})
			}
		}()
	}
	e.observer(ev)
}

// drop reports an event accepted after termination
func (s *Subject[T]) drop(ev Event[T]) {
	s.metrics.onDropped(ev.Kind())
	s.logger.Debug("dropping event, subject terminated", "subject", s.id, "kind", ev.Kind().String())
	s.onError(fmt.Errorf("%w: %s event discarded by %q", ErrTerminated, ev.Kind(), s.name))
}

// Compile-time interface checks
var _ Observable[int] = (*Subject[int])(nil)
var _ Sink[int] = (*Subject[int])(nil)
