package subject

import (
	"context"

	"github.com/rbaliyan/subject/disposable"
	"golang.org/x/time/rate"
)

// Source is a lazy producer of values that cannot fail. Observe starts
// production, calling emit for every value, and returns the handle that
// stops it.
type Source[T any] interface {
	Observe(emit func(T)) disposable.Disposable
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc[T any] func(emit func(T)) disposable.Disposable

// Observe calls f(emit).
func (f SourceFunc[T]) Observe(emit func(T)) disposable.Disposable {
	return f(emit)
}

// Of returns a source that emits values synchronously, in order, on every
// Observe call.
func Of[T any](values ...T) Source[T] {
	return SourceFunc[T](func(emit func(T)) disposable.Disposable {
		for _, v := range values {
			emit(v)
		}
		return disposable.New(nil)
	})
}

// FromChannel returns a source that forwards values received from ch. Each
// Observe call starts one goroutine, which exits when ch is closed or the
// returned handle is disposed. Values are split between concurrent
// observers of the same channel.
func FromChannel[T any](ch <-chan T) Source[T] {
	return SourceFunc[T](func(emit func(T)) disposable.Disposable {
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case v, ok := <-ch:
					if !ok {
						return
					}
					emit(v)
				}
			}
		}()
		return disposable.New(func() { close(done) })
	})
}

// bindOptions holds configuration for Bind (unexported)
type bindOptions struct {
	limiter *rate.Limiter
}

// BindOption configures Bind
type BindOption func(*bindOptions)

// WithLimiter throttles forwarding: every value waits for a token from l
// before it is accepted. Values still waiting when the binding is disposed
// are dropped.
//
// Example:
//
//	// at most 10 values per second, bursts of 5
//	s.Bind(src, subject.WithLimiter(rate.NewLimiter(10, 5)))
func WithLimiter(l *rate.Limiter) BindOption {
	return func(o *bindOptions) {
		o.limiter = l
	}
}

// Bind forwards every value produced by src to the subject as Next events.
// The forwarding subscription lives in the subject's Scope: it is cancelled
// when the scope is disposed, or earlier through the returned handle.
//
// Values arriving after cancellation are discarded; a value already being
// forwarded when cancellation happens may still be delivered.
func (s *Subject[T]) Bind(src Source[T], opts ...BindOption) disposable.Disposable {
	if src == nil {
		panic("subject: Bind called with a nil Source")
	}
	if s.scope.IsDisposed() {
		return disposable.Disposed()
	}
	o := &bindOptions{}
	for _, opt := range opts {
		opt(o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	emit := func(v T) {
		if ctx.Err() != nil {
			return
		}
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				s.logger.Debug("dropping bound value", "subject", s.id, "error", err)
				return
			}
		}
		s.Accept(Next(v))
	}

	upstream := src.Observe(emit)
	s.logger.Debug("bound source", "subject", s.id)
	return s.scope.Add(disposable.New(func() {
		cancel()
		if upstream != nil {
			upstream.Dispose()
		}
	}))
}
