// Package subject provides a multicast, thread-safe, in-process event bus
// with subscription lifecycle management.
//
// A Subject is both a sink and a source: producers call Accept (or the
// OnNext/OnError/OnComplete shortcuts) and every subscribed observer
// receives the event synchronously, in subscription order. The first
// Failed or Completed event terminates the subject; anything accepted
// afterwards is dropped silently.
//
// Basic example:
//
//	s := subject.New[string]()
//
//	d := s.Subscribe(subject.Observe(
//	    func(v string) { fmt.Println("got", v) },
//	    func(err error) { fmt.Println("failed:", err) },
//	    func() { fmt.Println("done") },
//	))
//	defer d.Dispose()
//
//	s.OnNext("hello")
//	s.OnComplete()
//
// Replay strategies:
//   - New: no replay, observers only see events accepted after they subscribed.
//   - NewReplay(n): the last n data events, then the terminal event if any.
//   - NewReplayAll: every event ever accepted.
//   - NewLatest: the most recent data event, then the terminal event if any.
//   - NewBehavior(v): NewLatest seeded with an initial value.
//
// Options:
//   - WithName: name used in logs, metrics and spans.
//   - WithLogger: set the slog logger.
//   - WithMetrics: enable/disable OpenTelemetry metrics. Default is true.
//   - WithTracing: enable/disable OpenTelemetry spans on Accept. Default is true.
//   - WithRecovery: isolate observer panics. Default is false.
//   - WithErrorHandler: receive dropped-event and recovered-panic reports.
//
// Delivery and reentrancy:
// Accept and Subscribe deliver synchronously on the calling goroutine and
// return once their events reached every observer. Calls from different
// goroutines are serialized. Observers may call back into the subject that
// is delivering to them without deadlocking; such calls are delivered after
// the current callback returns. Feedback loops that never settle, and
// observers that wait on other goroutines calling into the same subject,
// are the caller's responsibility.
//
// Lifetimes:
// Subscribe returns a disposable.Disposable that unregisters the observer.
// Bind forwards a Source into the subject for as long as the subject's
// Scope lives; owners tie that scope to their own with a disposable.Bag:
//
//	owner := &disposable.Bag{}
//	owner.Add(s.Scope())
//	s.Bind(subject.FromChannel(updates))
//	defer owner.Dispose()
//
// Atomic observers:
// SubscribeAtomic wraps an observer so it receives at most one terminal
// event and unsubscribes itself when that event arrives.
package subject
