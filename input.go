package webtty

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// InputStream is the readable end a consumer pulls keystrokes from.
//
// Every widget data event is queued in arrival order and followed by one
// readable signal. Signals are not coalesced: a consumer is expected to call
// ReadChunk until it reports empty each time it is notified.
//
// InputStream also implements io.Reader for consumers with a blocking read
// loop, such as Bubble Tea.
type InputStream struct {
	widget     Widget
	middleware *Middleware
	log        zerolog.Logger

	mu       sync.Mutex
	queue    PendingInputQueue
	size     TerminalSize
	raw      bool
	encoding string
	closed   bool

	// wake holds at most one pending notification for blocked readers.
	wake chan struct{}
	done chan struct{}

	readable Signal[struct{}]
	sub      Subscription
}

// NewInputStream subscribes to w's data events.
func NewInputStream(w Widget, opts ...StreamOption) *InputStream {
	cfg := newStreamConfig(opts)
	if cfg.name == "" {
		cfg.name = "stdin"
	}
	in := &InputStream{
		widget:     w,
		middleware: cfg.middleware,
		log:        cfg.log.With().Str("stream", cfg.name).Logger(),
		size:       widgetSize(w),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	in.sub = w.OnData(in.receive)
	return in
}

func (in *InputStream) receive(data string) {
	in.middleware.input(data, in.enqueue)
}

func (in *InputStream) enqueue(data string) {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.queue.Push(data)
	in.mu.Unlock()

	select {
	case in.wake <- struct{}{}:
	default:
	}
	in.readable.Emit(struct{}{})
}

// IsTTY always reports true.
func (in *InputStream) IsTTY() bool { return true }

// Columns returns the last known terminal width.
func (in *InputStream) Columns() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.size.Columns
}

// Rows returns the last known terminal height.
func (in *InputStream) Rows() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.size.Rows
}

// Size returns the last known terminal size.
func (in *InputStream) Size() TerminalSize {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.size
}

func (in *InputStream) setSize(size TerminalSize) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	in.size = size
}

// UpdateDimensions re-reads the widget size. Input streams have no resize signal.
func (in *InputStream) UpdateDimensions() {
	in.setSize(widgetSize(in.widget))
}

// ReadChunk pops the oldest buffered chunk.
// Returns false when nothing is buffered or the stream is closed.
func (in *InputStream) ReadChunk() (string, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return "", false
	}
	return in.queue.Pop()
}

// ReadSize is ReadChunk with an advisory size. Whole chunks are returned
// regardless of n because input arrives keystroke by keystroke.
func (in *InputStream) ReadSize(n int) (string, bool) {
	return in.ReadChunk()
}

// Buffered returns the number of chunks waiting to be read.
func (in *InputStream) Buffered() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.queue.Len()
}

// Read blocks until input is available and copies it into p.
// A chunk longer than p is returned across consecutive calls, in order.
// Returns io.EOF once the stream is closed. Implements io.Reader.
func (in *InputStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		in.mu.Lock()
		if in.closed {
			in.mu.Unlock()
			return 0, io.EOF
		}
		if chunk, ok := in.queue.Peek(); ok {
			n := copy(p, chunk)
			if n < len(chunk) {
				in.queue.replaceHead(chunk[n:])
			} else {
				in.queue.Pop()
			}
			in.mu.Unlock()
			return n, nil
		}
		in.mu.Unlock()

		select {
		case <-in.wake:
		case <-in.done:
		}
	}
}

// OnReadable registers fn to run after each queued data event.
func (in *InputStream) OnReadable(fn func()) (unsubscribe func()) {
	return in.readable.Subscribe(func(struct{}) { fn() })
}

// SetRawMode records the raw-mode flag. Delivery does not change: the widget
// always produces discrete keystroke events.
func (in *InputStream) SetRawMode(raw bool) *InputStream {
	in.mu.Lock()
	in.raw = raw
	in.mu.Unlock()
	in.log.Debug().Bool("raw", raw).Msg("raw mode set")
	return in
}

// IsRaw returns the last value passed to SetRawMode.
func (in *InputStream) IsRaw() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.raw
}

// SetEncoding records the requested encoding. Chunks are always strings.
func (in *InputStream) SetEncoding(enc string) *InputStream {
	in.mu.Lock()
	in.encoding = enc
	in.mu.Unlock()
	return in
}

// Resume is a no-op kept for stream-contract compatibility.
func (in *InputStream) Resume() *InputStream { return in }

// Pause is a no-op kept for stream-contract compatibility.
func (in *InputStream) Pause() *InputStream { return in }

// Ref is a no-op kept for stream-contract compatibility.
func (in *InputStream) Ref() *InputStream { return in }

// Unref is a no-op kept for stream-contract compatibility.
func (in *InputStream) Unref() *InputStream { return in }

// Close detaches from the widget, drops buffered input, and wakes blocked
// readers with io.EOF. Idempotent. Implements io.Closer.
func (in *InputStream) Close() error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	in.queue.Clear()
	in.mu.Unlock()

	close(in.done)
	if in.sub != nil {
		in.sub.Dispose()
	}
	in.readable.Clear()
	in.log.Debug().Msg("input stream closed")
	return nil
}
