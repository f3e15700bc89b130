// Package hub provides a named registry of subjects.
//
// A Hub owns a set of subjects, each registered under a name with its
// element type. Subjects can be looked up with type checking, either on a
// hub or globally by full name:
//
//	h, err := hub.New("orders")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	created, _ := hub.Ensure[Order](h, "created")
//
//	// elsewhere
//	hub.Publish("orders://created", Order{ID: "42"})
//
// Closing a hub completes every subject it owns and disposes their scopes.
package hub

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbaliyan/subject"
	"github.com/rbaliyan/subject/disposable"
)

const (
	hubRunning = 1
	hubStopped = 0
)

// FullNameSeparator is the separator between hub name and subject name in
// full names: "<hub_name>://<subject_name>"
const FullNameSeparator = "://"

// DefaultHubName is used when New is called with an empty name
var DefaultHubName = "subject-hub"

// Hub errors
var (
	ErrHubClosed        = errors.New("hub is closed")
	ErrHubExists        = errors.New("hub already exists with this name")
	ErrHubNotFound      = errors.New("hub not found")
	ErrSubjectExists    = errors.New("subject already registered")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrTypeMismatch     = errors.New("subject type mismatch")
	ErrInvalidFullName  = errors.New("invalid full name format, expected: <hub_name>://<subject_name>")
	ErrSubjectRequired  = errors.New("subject is required")
	ErrSubjectNameEmpty = errors.New("subject name must not be empty")
)

// Global hub registry
var hubRegistry sync.Map // map[string]*Hub

// Find returns a registered hub by name, or nil.
func Find(name string) *Hub {
	if v, ok := hubRegistry.Load(name); ok {
		return v.(*Hub)
	}
	return nil
}

// List returns the names of all registered hubs.
func List() []string {
	var names []string
	hubRegistry.Range(func(key, value any) bool {
		names = append(names, key.(string))
		return true
	})
	slices.Sort(names)
	return names
}

// member is the type-independent view of a registered subject
type member interface {
	OnComplete()
	Scope() *disposable.Bag
	Observers() int
	IsTerminated() bool
}

// options holds configuration for a hub (unexported)
type options struct {
	logger      *slog.Logger
	subjectOpts []subject.Option
}

// Option configures a hub
type Option func(*options)

// WithLogger sets the logger for the hub
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSubjectOptions sets options applied to subjects created by Ensure.
func WithSubjectOptions(opts ...subject.Option) Option {
	return func(o *options) {
		o.subjectOpts = append(o.subjectOpts, opts...)
	}
}

// Hub is a named registry of subjects.
type Hub struct {
	status      int32
	id          string
	name        string
	logger      *slog.Logger
	subjectOpts []subject.Option

	mu       sync.RWMutex
	subjects map[string]member
	types    map[string]reflect.Type

	scope disposable.Bag
}

// New creates a hub and registers it in the global registry.
// Returns ErrHubExists if a hub with the same name is already registered.
func New(name string, opts ...Option) (*Hub, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if name == "" {
		name = DefaultHubName
	}

	h := &Hub{
		status:      hubRunning,
		id:          subject.NewID(),
		name:        name,
		logger:      o.logger.With("component", "hub>"+name),
		subjectOpts: o.subjectOpts,
		subjects:    make(map[string]member),
		types:       make(map[string]reflect.Type),
	}

	if _, loaded := hubRegistry.LoadOrStore(name, h); loaded {
		return nil, fmt.Errorf("%w: %q", ErrHubExists, name)
	}
	return h, nil
}

// ID returns the hub ID
func (h *Hub) ID() string {
	return h.id
}

// Name returns the hub name
func (h *Hub) Name() string {
	return h.name
}

// Running returns true if the hub has not been closed
func (h *Hub) Running() bool {
	return atomic.LoadInt32(&h.status) == hubRunning
}

// Scope returns the hub's disposal registry. Every registered subject's
// scope is added to it; callers may add their own cleanups.
func (h *Hub) Scope() *disposable.Bag {
	return &h.scope
}

// Names returns the registered subject names in sorted order.
func (h *Hub) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Sorted(maps.Keys(h.subjects))
}

// Close completes every registered subject, disposes their scopes and
// removes the hub from the global registry. Returns the combined errors of
// scope cleanups. Only the first call does any work.
func (h *Hub) Close() error {
	if !atomic.CompareAndSwapInt32(&h.status, hubRunning, hubStopped) {
		return nil
	}
	hubRegistry.CompareAndDelete(h.name, h)

	h.mu.RLock()
	members := make([]member, 0, len(h.subjects))
	for _, m := range h.subjects {
		members = append(members, m)
	}
	h.mu.RUnlock()

	for _, m := range members {
		m.OnComplete()
	}
	err := h.scope.Close()
	h.logger.Debug("hub closed", "subjects", len(members), "error", err)
	return err
}

// register adds a subject to the hub (internal use)
func (h *Hub) register(name string, m member, typ reflect.Type) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.Running() {
		return ErrHubClosed
	}
	if existingType, ok := h.types[name]; ok {
		if existingType != typ {
			return fmt.Errorf("%w: subject %q registered as %v, requested %v",
				ErrTypeMismatch, name, existingType, typ)
		}
		return fmt.Errorf("%w: %q", ErrSubjectExists, name)
	}

	h.subjects[name] = m
	h.types[name] = typ
	h.scope.Add(m.Scope())
	h.logger.Debug("registered subject", "subject", name, "type", typ)
	return nil
}

// lookup returns an existing subject if it matches the type
func (h *Hub) lookup(name string, typ reflect.Type) (member, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m, ok := h.subjects[name]
	if !ok {
		return nil, nil
	}
	if existingType := h.types[name]; existingType != typ {
		return nil, fmt.Errorf("%w: subject %q registered as %v, requested %v",
			ErrTypeMismatch, name, existingType, typ)
	}
	return m, nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Register adds s to the hub under name.
// Returns error if:
//   - the hub is closed
//   - a subject with the same name exists (ErrSubjectExists, or
//     ErrTypeMismatch when its type differs)
func Register[T any](h *Hub, name string, s *subject.Subject[T]) error {
	if s == nil {
		return ErrSubjectRequired
	}
	if name == "" {
		return ErrSubjectNameEmpty
	}
	return h.register(name, s, typeOf[T]())
}

// Get returns the subject registered under name.
// The type parameter must match the type used at registration.
func Get[T any](h *Hub, name string) (*subject.Subject[T], error) {
	if !h.Running() {
		return nil, ErrHubClosed
	}
	m, err := h.lookup(name, typeOf[T]())
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrSubjectNotFound, name)
	}
	s, ok := m.(*subject.Subject[T])
	if !ok {
		return nil, fmt.Errorf("%w: cannot cast subject %q to requested type", ErrTypeMismatch, name)
	}
	return s, nil
}

// Ensure returns the subject registered under name, creating a plain
// subject (no replay) with the hub's subject options if there is none.
func Ensure[T any](h *Hub, name string) (*subject.Subject[T], error) {
	s, err := Get[T](h, name)
	if err == nil || !errors.Is(err, ErrSubjectNotFound) {
		return s, err
	}

	opts := append(slices.Clone(h.subjectOpts), subject.WithName(name))
	s = subject.New[T](opts...)
	if err := Register(h, name, s); err != nil {
		if errors.Is(err, ErrSubjectExists) {
			// another goroutine registered first
			return Get[T](h, name)
		}
		return nil, err
	}
	return s, nil
}

// parseFullName splits a full name into hub name and subject name.
func parseFullName(fullName string) (hubName, subjectName string, err error) {
	idx := strings.Index(fullName, FullNameSeparator)
	if idx == -1 {
		return "", "", fmt.Errorf("%w: missing separator %q in %q", ErrInvalidFullName, FullNameSeparator, fullName)
	}
	hubName = fullName[:idx]
	subjectName = fullName[idx+len(FullNameSeparator):]
	if hubName == "" {
		return "", "", fmt.Errorf("%w: empty hub name in %q", ErrInvalidFullName, fullName)
	}
	if subjectName == "" {
		return "", "", fmt.Errorf("%w: empty subject name in %q", ErrInvalidFullName, fullName)
	}
	return hubName, subjectName, nil
}

// Lookup retrieves a typed subject by its full name
// "<hub_name>://<subject_name>".
func Lookup[T any](fullName string) (*subject.Subject[T], error) {
	hubName, subjectName, err := parseFullName(fullName)
	if err != nil {
		return nil, err
	}
	h := Find(hubName)
	if h == nil {
		return nil, fmt.Errorf("%w: %q", ErrHubNotFound, hubName)
	}
	return Get[T](h, subjectName)
}

// Publish accepts v as a Next event on the subject with the given full name.
func Publish[T any](fullName string, v T) error {
	s, err := Lookup[T](fullName)
	if err != nil {
		return err
	}
	s.OnNext(v)
	return nil
}

// Subscribe registers observer on the subject with the given full name.
func Subscribe[T any](fullName string, observer subject.Observer[T]) (disposable.Disposable, error) {
	s, err := Lookup[T](fullName)
	if err != nil {
		return nil, err
	}
	return s.Subscribe(observer), nil
}

// StatusCode represents the health state of the hub
type StatusCode string

const (
	// StatusHealthy indicates the hub is open
	StatusHealthy StatusCode = "healthy"
	// StatusUnhealthy indicates the hub is closed
	StatusUnhealthy StatusCode = "unhealthy"
)

// Status contains a point-in-time view of the hub
type Status struct {
	Code       StatusCode     `json:"status"`
	Message    string         `json:"message,omitempty"`
	Subjects   int            `json:"subjects"`
	Terminated int            `json:"terminated"`
	Observers  int            `json:"observers"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// IsHealthy returns true if the status code is healthy
func (s *Status) IsHealthy() bool {
	return s.Code == StatusHealthy
}

// Status returns detailed status information about the hub.
func (h *Hub) Status() *Status {
	result := &Status{
		CheckedAt: time.Now(),
		Details:   map[string]any{"hub_name": h.name, "hub_id": h.id},
	}
	if !h.Running() {
		result.Code = StatusUnhealthy
		result.Message = "hub is closed"
		return result
	}

	h.mu.RLock()
	for _, m := range h.subjects {
		result.Subjects++
		result.Observers += m.Observers()
		if m.IsTerminated() {
			result.Terminated++
		}
	}
	h.mu.RUnlock()

	result.Code = StatusHealthy
	result.Message = "hub is healthy"
	return result
}
