package webtty

import (
	"sync"

	"github.com/rs/zerolog"
)

// OutputStream is the writable end a consumer draws its frames into.
// It behaves like a TTY-backed process output stream: writes always succeed
// synchronously and line feeds imply a carriage return.
//
// Several OutputStreams may wrap one widget (stdout and stderr); each keeps its
// own dimensions, listeners, and newline state, and their writes are simply
// sequential calls on the shared widget.
type OutputStream struct {
	widget     Widget
	middleware *Middleware
	log        zerolog.Logger
	name       string

	// writeMu guards prevCR and pending. Chunks reach the widget outside the
	// lock, in the order they were queued, so a widget may call back into the
	// stream from inside its Write.
	writeMu  sync.Mutex
	prevCR   bool
	pending  []string
	flushing bool

	mu       sync.RWMutex
	size     TerminalSize
	ended    bool
	disposed bool

	resize Signal[TerminalSize]
}

// StreamOption configures an OutputStream or InputStream.
type StreamOption func(*streamConfig)

type streamConfig struct {
	middleware *Middleware
	log        zerolog.Logger
	name       string
}

func newStreamConfig(opts []StreamOption) streamConfig {
	cfg := streamConfig{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithStreamMiddleware sets functions to intercept stream traffic.
func WithStreamMiddleware(mw *Middleware) StreamOption {
	return func(c *streamConfig) {
		if mw == nil {
			return
		}
		if c.middleware == nil {
			c.middleware = &Middleware{}
		}
		c.middleware.Merge(mw)
	}
}

// WithStreamLogger sets the logger used for lifecycle events.
func WithStreamLogger(l zerolog.Logger) StreamOption {
	return func(c *streamConfig) {
		c.log = l
	}
}

// WithStreamName labels the stream in log output ("stdout", "stderr", ...).
func WithStreamName(name string) StreamOption {
	return func(c *streamConfig) {
		c.name = name
	}
}

// NewOutputStream wraps w. Dimensions start at the widget's current size.
func NewOutputStream(w Widget, opts ...StreamOption) *OutputStream {
	cfg := newStreamConfig(opts)
	if cfg.name == "" {
		cfg.name = "stdout"
	}
	return &OutputStream{
		widget:     w,
		middleware: cfg.middleware,
		log:        cfg.log.With().Str("stream", cfg.name).Logger(),
		name:       cfg.name,
		size:       widgetSize(w),
	}
}

// IsTTY always reports true.
func (o *OutputStream) IsTTY() bool { return true }

// Name returns the stream label.
func (o *OutputStream) Name() string { return o.name }

// Columns returns the last known terminal width.
func (o *OutputStream) Columns() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.size.Columns
}

// Rows returns the last known terminal height.
func (o *OutputStream) Rows() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.size.Rows
}

// Size returns the last known terminal size.
func (o *OutputStream) Size() TerminalSize {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.size
}

// GetWindowSize returns (columns, rows).
func (o *OutputStream) GetWindowSize() (columns, rows int) {
	s := o.Size()
	return s.Columns, s.Rows
}

// Ended returns true once End or Close has been called.
func (o *OutputStream) Ended() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ended
}

func (o *OutputStream) inactive() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ended || o.disposed
}

// Write forwards p to the widget with newlines normalized.
// Implements io.Writer. It never fails and never blocks on rendering.
func (o *OutputStream) Write(p []byte) (int, error) {
	o.forward(string(p))
	return len(p), nil
}

// WriteString is Write for strings.
func (o *OutputStream) WriteString(s string) (int, error) {
	o.forward(s)
	return len(s), nil
}

// Print writes s and reports success, matching the process-stream contract.
func (o *OutputStream) Print(s string) bool {
	o.forward(s)
	return true
}

func (o *OutputStream) forward(s string) {
	if s == "" || o.inactive() {
		return
	}

	o.writeMu.Lock()
	var out string
	out, o.prevCR = normalizeNewlines(s, o.prevCR)
	o.flushLocked(out)
}

// writeRaw forwards an escape sequence without newline handling.
func (o *OutputStream) writeRaw(seq string) bool {
	if seq == "" || o.inactive() {
		return true
	}

	o.writeMu.Lock()
	o.prevCR = false
	o.flushLocked(seq)
	return true
}

// flushLocked queues chunk and, unless a flush is already running further up
// the stack or on another goroutine, delivers the queue to the widget.
// It is called with writeMu held and returns with it released.
func (o *OutputStream) flushLocked(chunk string) {
	o.pending = append(o.pending, chunk)
	if o.flushing {
		o.writeMu.Unlock()
		return
	}
	o.flushing = true

	for len(o.pending) > 0 {
		next := o.pending[0]
		o.pending[0] = ""
		o.pending = o.pending[1:]

		o.writeMu.Unlock()
		o.middleware.write(next, o.widget.Write)
		o.writeMu.Lock()
	}
	o.flushing = false
	o.writeMu.Unlock()
}

// End writes a final chunk and marks the stream closed. Idempotent.
func (o *OutputStream) End(chunk string) {
	if o.inactive() {
		return
	}
	o.forward(chunk)

	o.mu.Lock()
	o.ended = true
	o.mu.Unlock()
	o.log.Debug().Msg("output stream ended")
}

// Close is End with no final chunk. Implements io.Closer.
func (o *OutputStream) Close() error {
	o.End("")
	return nil
}

// ClearLine erases part of the current line.
func (o *OutputStream) ClearLine(dir Direction) bool {
	return o.writeRaw(EraseLine(dir))
}

// ClearScreenDown erases from the cursor to the end of the screen.
func (o *OutputStream) ClearScreenDown() bool {
	return o.writeRaw(EraseScreenDown())
}

// CursorTo moves the cursor to the 0-indexed column x and row y.
func (o *OutputStream) CursorTo(x, y int) bool {
	return o.writeRaw(CursorPosition(x, y))
}

// CursorToColumn moves the cursor to the 0-indexed column x on the current row.
func (o *OutputStream) CursorToColumn(x int) bool {
	return o.writeRaw(CursorColumn(x))
}

// MoveCursor moves the cursor relative to its position.
// Positive dx moves right, positive dy moves down.
func (o *OutputStream) MoveCursor(dx, dy int) bool {
	return o.writeRaw(CursorMove(dx, dy))
}

// OnResize registers fn for resize signals and returns a function removing it.
func (o *OutputStream) OnResize(fn func(TerminalSize)) (unsubscribe func()) {
	return o.resize.Subscribe(fn)
}

// UpdateDimensions re-reads the widget size and emits a resize signal.
// The signal fires on every call, even when the size did not change.
func (o *OutputStream) UpdateDimensions() {
	o.mu.RLock()
	disposed := o.disposed
	o.mu.RUnlock()
	if disposed {
		return
	}
	o.setSize(widgetSize(o.widget))
	o.emitResize()
}

// setSize stores size without signalling.
func (o *OutputStream) setSize(size TerminalSize) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed {
		return
	}
	o.size = size
}

func (o *OutputStream) emitResize() {
	o.mu.RLock()
	size, disposed := o.size, o.disposed
	o.mu.RUnlock()
	if disposed {
		return
	}
	o.middleware.resize(size, o.resize.Emit)
}

// Dispose turns every later call into a no-op and drops listeners.
func (o *OutputStream) Dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	o.mu.Unlock()

	o.resize.Clear()
	o.log.Debug().Msg("output stream disposed")
}
