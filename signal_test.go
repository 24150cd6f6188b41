package webtty

import (
	"slices"
	"testing"
)

func TestSignalOrder(t *testing.T) {
	var s Signal[int]
	var got []string

	s.Subscribe(func(v int) { got = append(got, "first") })
	s.Subscribe(func(v int) { got = append(got, "second") })
	s.Emit(1)

	if !slices.Equal(got, []string{"first", "second"}) {
		t.Errorf("expected registration order, got %v", got)
	}
}

func TestSignalUnsubscribe(t *testing.T) {
	var s Signal[string]
	calls := 0

	unsubscribe := s.Subscribe(func(string) { calls++ })
	s.Emit("a")
	unsubscribe()
	unsubscribe()
	s.Emit("b")

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if s.Len() != 0 {
		t.Errorf("expected no listeners, got %d", s.Len())
	}
}

func TestSignalUnsubscribeDuringEmit(t *testing.T) {
	var s Signal[int]
	calls := 0

	var unsubscribe func()
	unsubscribe = s.Subscribe(func(int) {
		calls++
		unsubscribe()
	})
	s.Subscribe(func(int) {})

	s.Emit(1)
	s.Emit(2)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 listener left, got %d", s.Len())
	}
}

func TestSignalSubscribeDuringEmit(t *testing.T) {
	var s Signal[int]
	late := 0

	s.Subscribe(func(int) {
		s.Subscribe(func(int) { late++ })
	})
	s.Emit(1)

	if late != 0 {
		t.Errorf("expected listener added during Emit to wait for the next call, got %d calls", late)
	}
}

func TestSignalClear(t *testing.T) {
	var s Signal[int]
	s.Subscribe(func(int) { t.Error("expected cleared listener not to run") })

	s.Clear()
	s.Emit(1)
}

func TestSubscriptionFunc(t *testing.T) {
	called := false
	var sub Subscription = SubscriptionFunc(func() { called = true })

	sub.Dispose()
	if !called {
		t.Error("expected Dispose to call the function")
	}
}
