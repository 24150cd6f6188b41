// Package wswidget drives a browser terminal (xterm.js or compatible) over a
// WebSocket so a program hosted on the server appears in the page.
//
// A Session wraps one connection. It is the mount Container (the client
// reports its element size) and produces the Widget through Factory:
//
//	session := wswidget.NewSession(conn)
//	defer session.Close()
//
//	host := webtty.NewHost(session.Factory(), model)
//	go session.Serve(ctx)
//	host.Mount(session)
//
// Events read from the connection are dispatched on the session's Scheduler,
// so widget handlers never run concurrently with each other.
package wswidget

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/danielgatis/go-webtty"
)

// DefaultWriteTimeout bounds each frame write.
const DefaultWriteTimeout = 5 * time.Second

// ErrSessionClosed is returned by Serve after Close.
var ErrSessionClosed = errors.New("wswidget: session closed")

// Conn is the subset of *websocket.Conn a Session needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one browser terminal connection.
type Session struct {
	conn         Conn
	sched        webtty.Scheduler
	ownLoop      *webtty.Loop
	log          zerolog.Logger
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu         sync.RWMutex
	widget     *Widget
	width      int
	height     int
	cellWidth  int
	cellHeight int
	closed     bool

	container webtty.Signal[struct{}]
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Session during construction.
type Option func(*Session)

// WithScheduler sets where connection events are dispatched.
// Defaults to a Loop owned by the session.
func WithScheduler(s webtty.Scheduler) Option {
	return func(sess *Session) {
		sess.sched = s
	}
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(sess *Session) {
		sess.log = l
	}
}

// WithWriteTimeout sets the per-frame write deadline. Values <= 0 disable it.
func WithWriteTimeout(d time.Duration) Option {
	return func(sess *Session) {
		sess.writeTimeout = d
	}
}

// NewSession wraps conn.
func NewSession(conn Conn, options ...Option) *Session {
	s := &Session{
		conn:         conn,
		log:          zerolog.Nop(),
		writeTimeout: DefaultWriteTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.sched == nil {
		s.ownLoop = webtty.NewLoop()
		s.sched = s.ownLoop
	}
	return s
}

// Factory returns a webtty.WidgetFactory bound to this session.
// Each call replaces the session's current widget.
func (s *Session) Factory() webtty.WidgetFactory {
	return func(opts webtty.WidgetOptions) (webtty.Widget, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return nil, ErrSessionClosed
		}
		s.widget = newWidget(s, opts)
		return s.widget, nil
	}
}

// Size returns the container's pixel size as last reported by the client.
func (s *Session) Size() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// CellSize returns the client's cell metrics in pixels.
func (s *Session) CellSize() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cellWidth, s.cellHeight
}

// ObserveSize registers fn for container size reports. Implements webtty.Container.
func (s *Session) ObserveSize(fn func()) (stop func()) {
	return s.container.Subscribe(func(struct{}) { fn() })
}

// Serve reads frames until the connection fails, ctx is cancelled, or the
// session is closed. A normal closure or cancellation returns nil.
func (s *Session) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Msg("client closed connection")
				return nil
			}
			return err
		}

		switch mt {
		case websocket.BinaryMessage:
			s.dispatchInput(string(data))
		case websocket.TextMessage:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				s.log.Warn().Err(err).Msg("invalid control frame")
				continue
			}
			s.handle(msg)
		}
	}
}

func (s *Session) handle(msg Message) {
	switch msg.Type {
	case TypeInput:
		s.dispatchInput(msg.Data)
	case TypeResize:
		size := webtty.TerminalSize{Columns: msg.Cols, Rows: msg.Rows}
		if !size.Valid() {
			return
		}
		s.sched.ScheduleSoon(func() {
			if w := s.currentWidget(); w != nil {
				w.clientResized(size)
			}
		})
	case TypeContainer:
		s.mu.Lock()
		s.width, s.height = msg.Width, msg.Height
		if msg.CellWidth > 0 && msg.CellHeight > 0 {
			s.cellWidth, s.cellHeight = msg.CellWidth, msg.CellHeight
		}
		s.mu.Unlock()
		s.sched.ScheduleSoon(func() { s.container.Emit(struct{}{}) })
	default:
		s.log.Debug().Str("type", msg.Type).Msg("ignoring control frame")
	}
}

func (s *Session) dispatchInput(data string) {
	if data == "" {
		return
	}
	s.sched.ScheduleSoon(func() {
		if w := s.currentWidget(); w != nil {
			w.input(data)
		}
	})
}

func (s *Session) currentWidget() *Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.widget
}

func (s *Session) writeFrame(mt int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(mt, data)
}

func (s *Session) sendControl(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Str("type", msg.Type).Msg("encode control frame")
		return
	}
	if err := s.writeFrame(websocket.TextMessage, data); err != nil && !errors.Is(err, ErrSessionClosed) {
		s.log.Warn().Err(err).Str("type", msg.Type).Msg("send control frame")
	}
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close closes the connection and stops the session's own loop. Idempotent.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.done)

		s.writeMu.Lock()
		err = s.conn.Close()
		s.writeMu.Unlock()

		if s.ownLoop != nil {
			s.ownLoop.Close()
		}
	})
	return err
}

var _ webtty.Container = (*Session)(nil)
var _ Conn = (*websocket.Conn)(nil)
