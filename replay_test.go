package subject

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReplayCapacity(t *testing.T) {
	s, err := NewReplay[int](2)
	if err != nil {
		t.Fatal(err)
	}
	s.OnNext(1)
	s.OnNext(2)
	s.OnNext(3)

	a := NewRecorder[int]()
	s.Subscribe(a.Observer())
	if diff := diffEvents([]Event[int]{Next(2), Next(3)}, a.Events()); diff != "" {
		t.Errorf("observer A replay (-want +got):\n%s", diff)
	}

	s.OnComplete()

	b := NewRecorder[int]()
	s.Subscribe(b.Observer())
	want := []Event[int]{Next(2), Next(3), Completed[int]()}
	if diff := diffEvents(want, b.Events()); diff != "" {
		t.Errorf("observer B replay (-want +got):\n%s", diff)
	}
	if diff := diffEvents(want, a.Events()); diff != "" {
		t.Errorf("observer A live (-want +got):\n%s", diff)
	}
}

func TestReplayInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		s, err := NewReplay[int](capacity)
		if !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("capacity %d: expected ErrInvalidCapacity, got %v", capacity, err)
		}
		if s != nil {
			t.Errorf("capacity %d: expected nil subject", capacity)
		}
	}
}

func TestReplayFailure(t *testing.T) {
	errBoom := errors.New("boom")
	s, err := NewReplay[int](3)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 5; i++ {
		s.OnNext(i)
	}
	s.OnError(errBoom)
	s.OnNext(6)

	rec := NewRecorder[int]()
	s.Subscribe(rec.Observer())
	want := []Event[int]{Next(3), Next(4), Next(5), Failed[int](errBoom)}
	if diff := diffEvents(want, rec.Events()); diff != "" {
		t.Errorf("replay (-want +got):\n%s", diff)
	}
}

func TestReplayAll(t *testing.T) {
	s := NewReplayAll[int]()
	var want []Event[int]
	for i := 0; i < 100; i++ {
		s.OnNext(i)
		want = append(want, Next(i))
	}
	s.OnComplete()
	want = append(want, Completed[int]())

	for _, name := range []string{"first", "second"} {
		rec := NewRecorder[int]()
		s.Subscribe(rec.Observer())
		if diff := diffEvents(want, rec.Events()); diff != "" {
			t.Errorf("%s late observer (-want +got):\n%s", name, diff)
		}
	}
}

func TestReplayThenLive(t *testing.T) {
	s := NewReplayAll[int]()
	late := NewRecorder[int]()
	s.Subscribe(func(ev Event[int]) {
		if v, _ := ev.Value(); v == 2 {
			s.Subscribe(late.Observer())
		}
	})

	s.OnNext(1)
	s.OnNext(2)
	s.OnNext(3)

	// replay and live delivery neither overlap nor leave a gap
	if diff := cmp.Diff([]int{1, 2, 3}, late.Values()); diff != "" {
		t.Errorf("late observer (-want +got):\n%s", diff)
	}
}

func TestReplayConcurrentSubscribe(t *testing.T) {
	s := NewReplayAll[int]()
	var wg sync.WaitGroup
	recs := make([]*Recorder[int], 4)
	for i := range recs {
		recs[i] = NewRecorder[int]()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.OnNext(i)
		}
		s.OnComplete()
	}()
	for _, rec := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Subscribe(rec.Observer())
		}()
	}
	wg.Wait()

	for i, rec := range recs {
		values := rec.Values()
		if len(values) != 200 {
			t.Errorf("observer %d got %d values", i, len(values))
			continue
		}
		for j, v := range values {
			if v != j {
				t.Errorf("observer %d: position %d holds %d", i, j, v)
				break
			}
		}
		if rec.TerminalCount() != 1 {
			t.Errorf("observer %d terminal count %d", i, rec.TerminalCount())
		}
	}
}

func TestLatest(t *testing.T) {
	s := NewLatest[string]()
	if _, ok := s.Latest(); ok {
		t.Error("expected no latest value")
	}

	empty := NewRecorder[string]()
	s.Subscribe(empty.Observer())
	if empty.Count() != 0 {
		t.Errorf("nothing to replay, got %v", empty.Events())
	}

	s.OnNext("a")
	s.OnNext("b")
	if v, ok := s.Latest(); !ok || v != "b" {
		t.Errorf("latest got:%q %v", v, ok)
	}

	rec := NewRecorder[string]()
	s.Subscribe(rec.Observer())
	if diff := diffEvents([]Event[string]{Next("b")}, rec.Events()); diff != "" {
		t.Errorf("replay (-want +got):\n%s", diff)
	}

	s.OnComplete()
	done := NewRecorder[string]()
	s.Subscribe(done.Observer())
	want := []Event[string]{Next("b"), Completed[string]()}
	if diff := diffEvents(want, done.Events()); diff != "" {
		t.Errorf("terminated replay (-want +got):\n%s", diff)
	}
}

func TestLatestTerminalOnly(t *testing.T) {
	s := NewLatest[int]()
	s.OnComplete()
	rec := NewRecorder[int]()
	s.Subscribe(rec.Observer())
	if diff := diffEvents([]Event[int]{Completed[int]()}, rec.Events()); diff != "" {
		t.Errorf("replay (-want +got):\n%s", diff)
	}
}

func TestBehavior(t *testing.T) {
	s := NewBehavior(7)
	if v, ok := s.Latest(); !ok || v != 7 {
		t.Errorf("latest got:%d %v", v, ok)
	}
	rec := NewRecorder[int]()
	s.Subscribe(rec.Observer())
	s.OnNext(8)
	if diff := cmp.Diff([]int{7, 8}, rec.Values()); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
}

func TestSnapshot(t *testing.T) {
	if got := New[int]().Snapshot(); len(got) != 0 {
		t.Errorf("plain subject snapshot: %v", got)
	}
	if _, ok := New[int]().Latest(); ok {
		t.Error("plain subject has no latest value")
	}

	s := NewReplayAll[int]()
	s.OnNext(1)
	snap := s.Snapshot()
	snap[0] = Next(99)
	if diff := diffEvents([]Event[int]{Next(1)}, s.Snapshot()); diff != "" {
		t.Errorf("snapshot must be a copy (-want +got):\n%s", diff)
	}
}
