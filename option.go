package subject

import (
	"log/slog"
)

// DefaultName is used for subjects created without WithName.
var DefaultName = "subject"

// options holds configuration for a subject (unexported)
type options struct {
	name            string
	logger          *slog.Logger
	metricsEnabled  bool
	tracingEnabled  bool
	recoveryEnabled bool
	onError         func(error)
}

// Option configures a subject
type Option func(*options)

// WithName sets the subject name used in logs, metrics and spans.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger for the subject
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables/disables OpenTelemetry metrics. Default is true.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithTracing enables/disables OpenTelemetry spans around Accept.
// Default is true.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithRecovery enables/disables panic isolation between observers.
// Default is false: a panicking observer aborts the fan-out and the panic
// reaches the producer. When enabled the panic is logged, reported to the
// error handler as *PanicError and delivery continues with the next observer.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recoveryEnabled = enabled
	}
}

// WithErrorHandler sets a callback for conditions the subject otherwise
// swallows: events dropped after termination (ErrTerminated) and recovered
// observer panics (*PanicError). The callback runs outside the subject lock.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.onError = fn
		}
	}
}

// newOptions creates options with defaults and applies provided options
func newOptions(opts ...Option) *options {
	o := &options{
		name:           DefaultName,
		metricsEnabled: true,
		tracingEnabled: true,
		onError:        func(error) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = Logger("subject>" + o.name)
	}
	return o
}
