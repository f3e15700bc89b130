package subject

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for subject metrics
const meterName = "github.com/rbaliyan/subject"

// instruments records subject activity. A nil *instruments records nothing.
type instruments struct {
	subject    attribute.KeyValue
	accepted   metric.Int64Counter
	dropped    metric.Int64Counter
	subscribed metric.Int64Counter
	disposed   metric.Int64Counter
}

func newInstruments(name string, enabled bool) *instruments {
	if !enabled {
		return nil
	}
	meter := otel.Meter(meterName)
	m := &instruments{subject: attribute.String("subject", name)}
	m.accepted, _ = meter.Int64Counter("subject.accepted",
		metric.WithDescription("Events accepted for broadcast"),
		metric.WithUnit("{event}"))
	m.dropped, _ = meter.Int64Counter("subject.dropped",
		metric.WithDescription("Events discarded because the subject had terminated"),
		metric.WithUnit("{event}"))
	m.subscribed, _ = meter.Int64Counter("subject.subscribed",
		metric.WithDescription("Observers subscribed"),
		metric.WithUnit("{observer}"))
	m.disposed, _ = meter.Int64Counter("subject.disposed",
		metric.WithDescription("Observer subscriptions disposed"),
		metric.WithUnit("{observer}"))
	return m
}

func (m *instruments) add(c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if m == nil || c == nil {
		return
	}
	attrs = append(attrs, m.subject)
	c.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

func (m *instruments) onAccepted(k Kind) {
	if m == nil {
		return
	}
	m.add(m.accepted, attribute.String("kind", k.String()))
}

func (m *instruments) onDropped(k Kind) {
	if m == nil {
		return
	}
	m.add(m.dropped, attribute.String("kind", k.String()))
}

func (m *instruments) onSubscribed() {
	if m == nil {
		return
	}
	m.add(m.subscribed)
}

func (m *instruments) onDisposed() {
	if m == nil {
		return
	}
	m.add(m.disposed)
}
