package webtty

import "sync"

// Signal is an ordered set of listeners for values of type T.
// Listeners run in registration order on the emitting goroutine.
// The zero value is ready to use.
type Signal[T any] struct {
	mu        sync.Mutex
	nextID    int
	listeners []signalListener[T]
}

type signalListener[T any] struct {
	id int
	fn func(T)
}

// Subscribe adds fn and returns a function that removes it.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, signalListener[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Signal[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Emit calls every listener with v. Listeners added or removed during Emit
// take effect on the next call.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	snapshot := make([]signalListener[T], len(s.listeners))
	copy(snapshot, s.listeners)
	s.mu.Unlock()

	for _, l := range snapshot {
		l.fn(v)
	}
}

// Len returns the number of registered listeners.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Clear removes all listeners.
func (s *Signal[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = nil
}
