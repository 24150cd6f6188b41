// Package headless provides a webtty.Widget backed by an in-process
// headless terminal emulator. It is used to run hosted programs without a
// browser: in tests, in server-side rendering, and for screen scraping.
//
//	container := headless.NewContainer(800, 480)
//	host := webtty.NewHost(headless.Factory(), model)
//	host.Mount(container)
//
//	w := host.Widget().(*headless.Widget)
//	w.Type("q")
//	fmt.Println(w.Screen())
package headless

import (
	"sync"

	headlessterm "github.com/danielgatis/go-headless-term"
	"github.com/rs/zerolog"

	"github.com/danielgatis/go-webtty"
)

const (
	// DefaultCellWidth is the pixel width of one cell used by the fit helper.
	DefaultCellWidth = 10
	// DefaultCellHeight is the pixel height of one cell used by the fit helper.
	DefaultCellHeight = 20
)

// Widget implements webtty.Widget on top of a headless terminal.
// All methods are safe for concurrent use.
type Widget struct {
	mu        sync.RWMutex
	term      *headlessterm.Terminal
	opts      webtty.WidgetOptions
	container webtty.Container
	opened    bool
	focused   bool
	disposed  bool

	cellWidth  int
	cellHeight int
	log        zerolog.Logger

	// replies holds emulator responses produced during a Write. They are
	// emitted once the emulator has returned.
	replyMu sync.Mutex
	replies []string

	data   webtty.Signal[string]
	resize webtty.Signal[webtty.TerminalSize]
}

// Option configures a Widget during construction.
type Option func(*Widget)

// WithCellSize sets the pixel size of one cell. Values <= 0 are ignored.
func WithCellSize(width, height int) Option {
	return func(w *Widget) {
		if width > 0 {
			w.cellWidth = width
		}
		if height > 0 {
			w.cellHeight = height
		}
	}
}

// WithLogger sets the logger for widget events.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Widget) {
		w.log = l
	}
}

// New creates a widget sized from opts (80x24 when unset).
func New(opts webtty.WidgetOptions, options ...Option) *Widget {
	w := &Widget{
		opts:       opts,
		cellWidth:  DefaultCellWidth,
		cellHeight: DefaultCellHeight,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(w)
	}

	termOpts := []headlessterm.Option{
		headlessterm.WithSize(opts.Rows, opts.Cols),
		headlessterm.WithPTYWriter(responseWriter{w}),
		headlessterm.WithSizeProvider(sizeProvider{w}),
	}
	if opts.Scrollback > 0 {
		termOpts = append(termOpts, headlessterm.WithScrollback(headlessterm.NewMemoryScrollback(opts.Scrollback)))
	}
	w.term = headlessterm.New(termOpts...)
	return w
}

// Factory returns a webtty.WidgetFactory producing headless widgets.
func Factory(options ...Option) webtty.WidgetFactory {
	return func(opts webtty.WidgetOptions) (webtty.Widget, error) {
		return New(opts, options...), nil
	}
}

// Open attaches the widget to container.
func (w *Widget) Open(container webtty.Container) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.container = container
	w.opened = true
	w.log.Debug().Int("cols", w.term.Cols()).Int("rows", w.term.Rows()).Msg("widget opened")
	return nil
}

// Write feeds data to the emulator. No-op after Dispose.
func (w *Widget) Write(data string) {
	w.mu.RLock()
	disposed := w.disposed
	w.mu.RUnlock()
	if disposed {
		return
	}
	w.term.WriteString(data)
	w.flushReplies()
}

func (w *Widget) flushReplies() {
	w.replyMu.Lock()
	replies := w.replies
	w.replies = nil
	w.replyMu.Unlock()

	for _, reply := range replies {
		w.data.Emit(reply)
	}
}

// Resize changes the grid and fires resize handlers when the size changed.
func (w *Widget) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	w.mu.Lock()
	if w.disposed || (w.term.Cols() == cols && w.term.Rows() == rows) {
		w.mu.Unlock()
		return
	}
	w.term.Resize(rows, cols)
	w.mu.Unlock()

	w.log.Debug().Int("cols", cols).Int("rows", rows).Msg("widget resized")
	w.resize.Emit(webtty.TerminalSize{Columns: cols, Rows: rows})
}

// Type simulates the user typing keys. Ignored when input is disabled or
// the widget is disposed.
func (w *Widget) Type(keys string) {
	w.mu.RLock()
	skip := w.disposed || w.opts.DisableStdin
	w.mu.RUnlock()
	if skip || keys == "" {
		return
	}
	w.data.Emit(keys)
}

// OnData registers a handler for user input and emulator responses.
func (w *Widget) OnData(fn func(data string)) webtty.Subscription {
	return webtty.SubscriptionFunc(w.data.Subscribe(fn))
}

// OnResize registers a handler for grid size changes.
func (w *Widget) OnResize(fn func(size webtty.TerminalSize)) webtty.Subscription {
	return webtty.SubscriptionFunc(w.resize.Subscribe(fn))
}

func (w *Widget) Focus() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = true
}

func (w *Widget) Blur() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = false
}

// Focused returns true after Focus until Blur.
func (w *Widget) Focused() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.focused
}

func (w *Widget) Cols() int { return w.term.Cols() }
func (w *Widget) Rows() int { return w.term.Rows() }

// Fit returns a helper proposing dimensions from the container's pixel size.
func (w *Widget) Fit() webtty.FitAddon {
	return fitAddon{w}
}

// SetOptions stores opts and applies the scrollback limit.
func (w *Widget) SetOptions(opts webtty.WidgetOptions) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts = opts
	if opts.Scrollback > 0 {
		w.term.SetMaxScrollback(opts.Scrollback)
	}
}

// Options returns the options last applied.
func (w *Widget) Options() webtty.WidgetOptions {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.opts
}

// Dispose drops all handlers and turns later calls into no-ops.
func (w *Widget) Dispose() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.disposed = true
	w.mu.Unlock()

	w.data.Clear()
	w.resize.Clear()
	w.log.Debug().Msg("widget disposed")
}

// Disposed returns true after Dispose.
func (w *Widget) Disposed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.disposed
}

// Opened returns true after Open.
func (w *Widget) Opened() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.opened
}

// Screen returns the visible text, one line per row.
func (w *Widget) Screen() string {
	return w.term.String()
}

// Line returns the text of one visible row.
func (w *Widget) Line(row int) string {
	return w.term.LineContent(row)
}

// CursorPos returns the 0-based cursor position.
func (w *Widget) CursorPos() (row, col int) {
	return w.term.CursorPos()
}

// Terminal exposes the underlying emulator for inspection.
func (w *Widget) Terminal() *headlessterm.Terminal {
	return w.term
}

func (w *Widget) containerSize() (width, height int, ok bool) {
	w.mu.RLock()
	c := w.container
	w.mu.RUnlock()

	sized, isSized := c.(Sizer)
	if !isSized {
		return 0, 0, false
	}
	width, height = sized.Size()
	return width, height, width > 0 && height > 0
}

// responseWriter routes emulator replies (cursor reports, device attributes)
// to data handlers, the way a browser terminal reports them through onData.
// Replies are queued and emitted after the emulator write returns.
type responseWriter struct {
	w *Widget
}

func (r responseWriter) Write(p []byte) (int, error) {
	r.w.mu.RLock()
	disposed := r.w.disposed
	r.w.mu.RUnlock()
	if !disposed && len(p) > 0 {
		r.w.replyMu.Lock()
		r.w.replies = append(r.w.replies, string(p))
		r.w.replyMu.Unlock()
	}
	return len(p), nil
}

// sizeProvider answers pixel-size queries from the container.
type sizeProvider struct {
	w *Widget
}

func (s sizeProvider) WindowSizePixels() (width, height int) {
	if width, height, ok := s.w.containerSize(); ok {
		return width, height
	}
	cw, ch := s.CellSizePixels()
	return cw * s.w.Cols(), ch * s.w.Rows()
}

func (s sizeProvider) CellSizePixels() (width, height int) {
	return s.w.cellWidth, s.w.cellHeight
}

// fitAddon divides the container's pixel size by the cell size.
type fitAddon struct {
	w *Widget
}

func (f fitAddon) ProposeDimensions() (webtty.TerminalSize, bool) {
	width, height, ok := f.w.containerSize()
	if !ok {
		return webtty.TerminalSize{}, false
	}
	size := webtty.TerminalSize{
		Columns: width / f.w.cellWidth,
		Rows:    height / f.w.cellHeight,
	}
	return size, size.Valid()
}

var _ webtty.Widget = (*Widget)(nil)
var _ webtty.FitAddon = fitAddon{}
var _ headlessterm.SizeProvider = sizeProvider{}
var _ headlessterm.PTYWriter = responseWriter{}
