package subject

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity is returned by NewReplay for a non-positive capacity.
	ErrInvalidCapacity = errors.New("replay capacity must be positive")

	// ErrTerminated is reported to the error handler when an event is
	// accepted after the subject already terminated. The event is dropped.
	ErrTerminated = errors.New("subject terminated")

	// ErrUnspecified is the failure carried by Failed(nil).
	ErrUnspecified = errors.New("unspecified failure")
)

// PanicError wraps a panic recovered from an observer when recovery is
// enabled with WithRecovery.
type PanicError struct {
	Subject string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("observer of %q panicked: %v", e.Subject, e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsPanic checks if an error is a recovered observer panic.
func IsPanic(err error) bool {
	var panicErr *PanicError
	return errors.As(err, &panicErr)
}
