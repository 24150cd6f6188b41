package webtty

import "sync"

// Scheduler runs callbacks on a later turn of the host event loop.
// Callbacks from one caller run in the order they were scheduled; nothing
// else is promised about ordering.
type Scheduler interface {
	ScheduleSoon(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// ScheduleSoon calls f(fn).
func (f SchedulerFunc) ScheduleSoon(fn func()) { f(fn) }

// Loop is a single goroutine that runs scheduled callbacks one at a time in
// FIFO order. It stands in for a host UI thread: widgets that receive events
// on other goroutines post them here so handlers never run concurrently.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

// NewLoop starts a loop goroutine.
func NewLoop() *Loop {
	l := &Loop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

// ScheduleSoon queues fn. Callbacks scheduled after Close are dropped.
func (l *Loop) ScheduleSoon(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it to return.
// Returns false if the loop is closed and fn did not run.
// Must not be called from a loop callback.
func (l *Loop) Do(fn func()) bool {
	ran := make(chan struct{})
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, func() {
		defer close(ran)
		fn()
	})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	select {
	case <-ran:
		return true
	case <-l.stopped:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		if closed && len(batch) == 0 {
			return
		}
		if len(batch) > 0 {
			continue
		}
		<-l.wake
	}
}

// Close stops accepting callbacks, runs the ones already queued, and waits
// for the loop goroutine to exit. Must not be called from a loop callback.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.stopped
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.stopped
}

var _ Scheduler = (*Loop)(nil)
var _ Scheduler = SchedulerFunc(nil)
