package wswidget

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/danielgatis/go-webtty"
)

// Widget is the server-side proxy of a browser terminal.
// Writes become binary frames; grid size mirrors client resize reports.
type Widget struct {
	session *Session

	mu       sync.RWMutex
	opts     webtty.WidgetOptions
	size     webtty.TerminalSize
	disposed bool

	data   webtty.Signal[string]
	resize webtty.Signal[webtty.TerminalSize]
}

func newWidget(s *Session, opts webtty.WidgetOptions) *Widget {
	size := webtty.TerminalSize{Columns: opts.Cols, Rows: opts.Rows}
	if !size.Valid() {
		size = webtty.TerminalSize{Columns: webtty.DefaultColumns, Rows: webtty.DefaultRows}
	}
	return &Widget{session: s, opts: opts, size: size}
}

// Open sends the initial options and grid size to the client.
func (w *Widget) Open(container webtty.Container) error {
	w.mu.RLock()
	opts, size := w.opts, w.size
	w.mu.RUnlock()

	w.session.sendControl(Message{Type: TypeOptions, Options: &opts})
	w.session.sendControl(Message{Type: TypeResize, Cols: size.Columns, Rows: size.Rows})
	return nil
}

// Resize asks the client to resize and fires resize handlers when the size changed.
func (w *Widget) Resize(cols, rows int) {
	size := webtty.TerminalSize{Columns: cols, Rows: rows}
	if !size.Valid() || !w.setSize(size) {
		return
	}
	w.session.sendControl(Message{Type: TypeResize, Cols: cols, Rows: rows})
	w.resize.Emit(size)
}

// clientResized applies a size reported by the client without echoing it back.
func (w *Widget) clientResized(size webtty.TerminalSize) {
	if w.setSize(size) {
		w.resize.Emit(size)
	}
}

// setSize stores size and reports whether it changed.
func (w *Widget) setSize(size webtty.TerminalSize) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed || w.size == size {
		return false
	}
	w.size = size
	return true
}

func (w *Widget) input(data string) {
	w.mu.RLock()
	skip := w.disposed || w.opts.DisableStdin
	w.mu.RUnlock()
	if !skip {
		w.data.Emit(data)
	}
}

// Write sends data as one binary frame. Failures are logged, never returned.
func (w *Widget) Write(data string) {
	w.mu.RLock()
	disposed := w.disposed
	w.mu.RUnlock()
	if disposed || data == "" {
		return
	}
	if err := w.session.writeFrame(websocket.BinaryMessage, []byte(data)); err != nil {
		w.session.log.Debug().Err(err).Msg("write output frame")
	}
}

func (w *Widget) OnData(fn func(data string)) webtty.Subscription {
	return webtty.SubscriptionFunc(w.data.Subscribe(fn))
}

func (w *Widget) OnResize(fn func(size webtty.TerminalSize)) webtty.Subscription {
	return webtty.SubscriptionFunc(w.resize.Subscribe(fn))
}

func (w *Widget) Focus() {
	if !w.Disposed() {
		w.session.sendControl(Message{Type: TypeFocus})
	}
}

func (w *Widget) Blur() {
	if !w.Disposed() {
		w.session.sendControl(Message{Type: TypeBlur})
	}
}

func (w *Widget) Cols() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size.Columns
}

func (w *Widget) Rows() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size.Rows
}

// Fit proposes dimensions from the client's container and cell metrics.
func (w *Widget) Fit() webtty.FitAddon {
	return fitAddon{w.session}
}

// SetOptions forwards opts to the client.
func (w *Widget) SetOptions(opts webtty.WidgetOptions) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.opts = opts
	w.mu.Unlock()

	w.session.sendControl(Message{Type: TypeOptions, Options: &opts})
}

// Dispose drops handlers. The connection stays open; Session.Close ends it.
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
}

// Disposed returns true after Dispose.
func (w *Widget) Disposed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.disposed
}

type fitAddon struct {
	s *Session
}

func (f fitAddon) ProposeDimensions() (webtty.TerminalSize, bool) {
	width, height := f.s.Size()
	cw, ch := f.s.CellSize()
	if width <= 0 || height <= 0 || cw <= 0 || ch <= 0 {
		return webtty.TerminalSize{}, false
	}
	size := webtty.TerminalSize{Columns: width / cw, Rows: height / ch}
	return size, size.Valid()
}

var _ webtty.Widget = (*Widget)(nil)
var _ webtty.FitAddon = fitAddon{}
