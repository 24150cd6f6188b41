package wswidget

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielgatis/go-webtty"
	"github.com/danielgatis/go-webtty/examples/demo"
)

type frame struct {
	mt   int
	data []byte
}

// testConn is an in-memory Conn. Frames pushed with send are returned by
// ReadMessage; frames written by the session are recorded.
type testConn struct {
	incoming chan frame
	closed   chan struct{}
	once     sync.Once

	mu      sync.Mutex
	written []frame
}

func newTestConn() *testConn {
	return &testConn{
		incoming: make(chan frame, 16),
		closed:   make(chan struct{}),
	}
}

func (c *testConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.incoming:
		return f.mt, f.data, nil
	case <-c.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
	}
}

func (c *testConn) WriteMessage(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, frame{mt, append([]byte(nil), data...)})
	return nil
}

func (c *testConn) SetWriteDeadline(time.Time) error { return nil }

func (c *testConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *testConn) sendJSON(msg Message) {
	data, _ := json.Marshal(msg)
	c.incoming <- frame{websocket.TextMessage, data}
}

func (c *testConn) controls() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, f := range c.written {
		if f.mt != websocket.TextMessage {
			continue
		}
		var msg Message
		json.Unmarshal(f.data, &msg)
		out = append(out, msg)
	}
	return out
}

func (c *testConn) binary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []byte
	for _, f := range c.written {
		if f.mt == websocket.BinaryMessage {
			out = append(out, f.data...)
		}
	}
	return string(out)
}

// syncScheduler runs callbacks immediately on the reading goroutine.
var syncScheduler = webtty.SchedulerFunc(func(fn func()) { fn() })

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newTestWidget(t *testing.T, s *Session, opts webtty.WidgetOptions) *Widget {
	t.Helper()
	widget, err := s.Factory()(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return widget.(*Widget)
}

func TestWidgetOpenSendsOptionsAndSize(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn, WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{Cols: 100, Rows: 30, FontSize: 14})
	w.Open(s)

	msgs := conn.controls()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 control frames, got %d", len(msgs))
	}
	if msgs[0].Type != TypeOptions || msgs[0].Options == nil || msgs[0].Options.FontSize != 14 {
		t.Errorf("expected options frame, got %+v", msgs[0])
	}
	if msgs[1].Type != TypeResize || msgs[1].Cols != 100 || msgs[1].Rows != 30 {
		t.Errorf("expected resize 100x30, got %+v", msgs[1])
	}
}

func TestWidgetDefaultSize(t *testing.T) {
	s := NewSession(newTestConn(), WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{})
	if w.Cols() != webtty.DefaultColumns || w.Rows() != webtty.DefaultRows {
		t.Errorf("expected default size, got %dx%d", w.Cols(), w.Rows())
	}
}

func TestWidgetWriteSendsBinary(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn, WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{})
	w.Write("hello\r\n")
	w.Write("")

	if got := conn.binary(); got != "hello\r\n" {
		t.Errorf("expected %q, got %q", "hello\r\n", got)
	}
}

func TestSessionInput(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn, WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{})
	var mu sync.Mutex
	var got []string
	w.OnData(func(data string) {
		mu.Lock()
		got = append(got, data)
		mu.Unlock()
	})

	go s.Serve(context.Background())

	conn.incoming <- frame{websocket.BinaryMessage, []byte("a")}
	conn.sendJSON(Message{Type: TypeInput, Data: "\x1b[A"})
	conn.incoming <- frame{websocket.TextMessage, []byte("{not json")}
	conn.incoming <- frame{websocket.BinaryMessage, []byte("b")}

	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	})
	mu.Lock()
	defer mu.Unlock()
	if got[0] != "a" || got[1] != "\x1b[A" || got[2] != "b" {
		t.Errorf("expected input in order, got %q", got)
	}
}

func TestSessionClientResize(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn, WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{})
	sizes := make(chan webtty.TerminalSize, 4)
	w.OnResize(func(size webtty.TerminalSize) { sizes <- size })

	go s.Serve(context.Background())

	conn.sendJSON(Message{Type: TypeResize, Cols: 0, Rows: 10})
	conn.sendJSON(Message{Type: TypeResize, Cols: 120, Rows: 40})

	select {
	case size := <-sizes:
		if size != (webtty.TerminalSize{Columns: 120, Rows: 40}) {
			t.Errorf("expected 120x40, got %v", size)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resize")
	}
	if w.Cols() != 120 || w.Rows() != 40 {
		t.Errorf("expected 120x40, got %dx%d", w.Cols(), w.Rows())
	}
	for _, msg := range conn.controls() {
		if msg.Type == TypeResize {
			t.Errorf("expected client resize not echoed, got %+v", msg)
		}
	}
}

func TestSessionContainerAndFit(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn, WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{})
	if _, ok := w.Fit().ProposeDimensions(); ok {
		t.Error("expected no proposal before the client reports its container")
	}

	observed := make(chan struct{}, 1)
	stop := s.ObserveSize(func() { observed <- struct{}{} })
	defer stop()

	go s.Serve(context.Background())
	conn.sendJSON(Message{Type: TypeContainer, Width: 900, Height: 340, CellWidth: 9, CellHeight: 17})

	select {
	case <-observed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for container report")
	}

	size, ok := w.Fit().ProposeDimensions()
	if !ok || size != (webtty.TerminalSize{Columns: 100, Rows: 20}) {
		t.Errorf("expected 100x20, got %v (ok=%v)", size, ok)
	}
}

func TestWidgetServerResize(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn, WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{})
	calls := 0
	w.OnResize(func(webtty.TerminalSize) { calls++ })

	w.Resize(90, 20)
	w.Resize(90, 20)

	if calls != 1 {
		t.Errorf("expected 1 resize event, got %d", calls)
	}
	msgs := conn.controls()
	if len(msgs) != 1 || msgs[0].Type != TypeResize || msgs[0].Cols != 90 {
		t.Errorf("expected one resize frame, got %+v", msgs)
	}
}

func TestWidgetFocusBlur(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn, WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{})
	w.Focus()
	w.Blur()

	msgs := conn.controls()
	if len(msgs) != 2 || msgs[0].Type != TypeFocus || msgs[1].Type != TypeBlur {
		t.Errorf("expected focus then blur frames, got %+v", msgs)
	}
}

func TestWidgetDisableStdin(t *testing.T) {
	s := NewSession(newTestConn(), WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{DisableStdin: true})
	calls := 0
	w.OnData(func(string) { calls++ })

	w.input("x")

	if calls != 0 {
		t.Errorf("expected input ignored, got %d events", calls)
	}
}

func TestWidgetDispose(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn, WithScheduler(syncScheduler))
	defer s.Close()

	w := newTestWidget(t, s, webtty.WidgetOptions{})
	calls := 0
	w.OnData(func(string) { calls++ })

	w.Dispose()
	w.Dispose()
	w.input("x")
	w.Write("late")
	w.Focus()
	w.SetOptions(webtty.WidgetOptions{FontSize: 20})

	if calls != 0 {
		t.Errorf("expected no data events, got %d", calls)
	}
	if n := len(conn.controls()) + len(conn.binary()); n != 0 {
		t.Errorf("expected no frames after Dispose, got %d", n)
	}
}

func TestSessionServeStopsOnCancel(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx) }()

	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Serve")
	}
	select {
	case <-s.Done():
	default:
		t.Error("expected session closed")
	}
}

func TestSessionClosed(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn)
	s.Close()
	s.Close()

	if _, err := s.Factory()(webtty.WidgetOptions{}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if err := s.writeFrame(websocket.BinaryMessage, []byte("x")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed from write, got %v", err)
	}
}

func TestSessionServeReturnsReadError(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn, WithScheduler(syncScheduler))
	defer s.Close()

	conn.Close()

	err := s.Serve(context.Background())
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.CloseAbnormalClosure {
		t.Errorf("expected abnormal closure error, got %v", err)
	}
}

func TestHostOverSession(t *testing.T) {
	conn := newTestConn()
	s := NewSession(conn)
	defer s.Close()

	host := webtty.NewHost(s.Factory(), demo.New("remote"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	if err := host.Mount(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer host.Unmount()

	conn.sendJSON(Message{Type: TypeContainer, Width: 900, Height: 340, CellWidth: 9, CellHeight: 17})

	eventually(t, func() bool {
		return host.Size() == webtty.TerminalSize{Columns: 100, Rows: 20}
	})
	eventually(t, func() bool {
		return strings.Contains(conn.binary(), "count:")
	})

	conn.incoming <- frame{websocket.BinaryMessage, []byte("+")}
	eventually(t, func() bool {
		return strings.Contains(conn.binary(), "+")
	})
}
