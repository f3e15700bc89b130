package subject

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"
	"syreclabs.com/go/faker"
)

func init() {
	faker.Seed(time.Now().UnixNano())
}

const waitTimeout = time.Second

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// diffEvents compares event sequences, treating nil and empty as equal
func diffEvents[T any](want, got []Event[T]) string {
	return cmp.Diff(want, got,
		cmp.AllowUnexported(Event[T]{}),
		cmpopts.EquateErrors(),
		cmpopts.EquateEmpty())
}

// mustPanic fails the test if fn returns normally
func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	fn()
}
