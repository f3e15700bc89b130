package subject

import (
	"errors"
	"testing"
)

func TestEventKinds(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name     string
		ev       Event[int]
		kind     Kind
		terminal bool
		str      string
	}{
		{"next", Next(42), KindNext, false, "Next(42)"},
		{"failed", Failed[int](errBoom), KindFailed, true, "Failed(boom)"},
		{"completed", Completed[int](), KindCompleted, true, "Completed"},
		{"zero", Event[int]{}, 0, false, "Invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ev.Kind() != tt.kind {
				t.Errorf("kind got:%v, expected:%v", tt.ev.Kind(), tt.kind)
			}
			if tt.ev.IsTerminal() != tt.terminal {
				t.Errorf("terminal got:%v, expected:%v", tt.ev.IsTerminal(), tt.terminal)
			}
			if tt.ev.String() != tt.str {
				t.Errorf("string got:%q, expected:%q", tt.ev.String(), tt.str)
			}
		})
	}
}

func TestEventAccessors(t *testing.T) {
	if v, ok := Next("x").Value(); !ok || v != "x" {
		t.Errorf("got %q %v", v, ok)
	}
	if _, ok := Completed[string]().Value(); ok {
		t.Error("completed must not carry a value")
	}
	if err := Next(1).Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Failed[int](nil).Err(); !errors.Is(err, ErrUnspecified) {
		t.Errorf("expected ErrUnspecified, got %v", err)
	}
	if !Next(1).valid() || (Event[int]{}).valid() {
		t.Error("validity check failed")
	}
}

func TestKindString(t *testing.T) {
	if got := Kind(9).String(); got != "unknown(9)" {
		t.Errorf("got %q", got)
	}
}

func TestObserve(t *testing.T) {
	var (
		values    []int
		failure   error
		completed bool
	)
	obs := Observe(
		func(v int) { values = append(values, v) },
		func(err error) { failure = err },
		func() { completed = true },
	)
	errBoom := errors.New("boom")
	obs(Next(1))
	obs(Next(2))
	obs(Failed[int](errBoom))
	obs(Completed[int]())

	if len(values) != 2 || values[0] != 1 || values[1] != 2 {
		t.Errorf("values got:%v", values)
	}
	if !errors.Is(failure, errBoom) {
		t.Errorf("failure got:%v", failure)
	}
	if !completed {
		t.Error("completion not observed")
	}

	// nil callbacks are skipped
	partial := Observe[int](nil, nil, nil)
	partial(Next(1))
	partial(Failed[int](errBoom))
	partial(Completed[int]())
}
