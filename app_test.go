package webtty

import (
	"errors"
	"testing"
)

// echoApp writes every chunk back and exits on "q".
type echoApp struct {
	prefix   string
	attached int
	detached int
}

func (a *echoApp) Attach(streams Streams, exit func(error)) func() {
	a.attached++
	stop := streams.Stdin.OnReadable(func() {
		for {
			chunk, ok := streams.Stdin.ReadChunk()
			if !ok {
				return
			}
			if chunk == "q" {
				exit(nil)
				return
			}
			streams.Stdout.WriteString(a.prefix + chunk)
		}
	})
	return func() {
		a.detached++
		stop()
	}
}

func newAppStreams(w *testWidget) Streams {
	return Streams{Stdin: NewInputStream(w), Stdout: NewOutputStream(w), Stderr: NewOutputStream(w)}
}

func TestRenderAppRejectsTrees(t *testing.T) {
	streams := newAppStreams(newTestWidget(80, 24))

	if _, err := RenderApp(nil, streams, RenderOptions{}); !errors.Is(err, ErrNilModel) {
		t.Errorf("expected ErrNilModel, got %v", err)
	}
	if _, err := RenderApp("plain text", streams, RenderOptions{}); !errors.Is(err, ErrUnsupportedTree) {
		t.Errorf("expected ErrUnsupportedTree, got %v", err)
	}
}

func TestRenderAppEcho(t *testing.T) {
	w := newTestWidget(80, 24)
	streams := newAppStreams(w)
	app := &echoApp{prefix: "> "}

	inst, err := RenderApp(app, streams, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !streams.Stdin.IsRaw() {
		t.Error("expected stdin switched to raw mode")
	}

	w.data.Emit("a")
	w.data.Emit("b")

	if got := w.output(); got != "> a> b" {
		t.Errorf("expected %q, got %q", "> a> b", got)
	}

	w.data.Emit("q")
	if err := inst.Wait(); err != nil {
		t.Errorf("expected clean exit, got %v", err)
	}
	if app.detached != 1 {
		t.Errorf("expected app detached on exit, got %d", app.detached)
	}

	w.data.Emit("c")
	if got := w.output(); got != "> a> b" {
		t.Errorf("expected no output after exit, got %q", got)
	}
}

func TestRenderAppExitError(t *testing.T) {
	streams := newAppStreams(newTestWidget(80, 24))
	boom := errors.New("boom")

	inst, err := RenderApp(AppFunc(func(_ Streams, exit func(error)) func() {
		exit(boom)
		return nil
	}), streams, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := inst.Wait(); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestAppInstanceUpdate(t *testing.T) {
	w := newTestWidget(80, 24)
	streams := newAppStreams(w)
	first := &echoApp{prefix: "1:"}
	second := &echoApp{prefix: "2:"}

	inst, _ := RenderApp(first, streams, RenderOptions{})
	w.data.Emit("a")

	inst.Update(second)
	inst.Update("ignored")
	w.data.Emit("b")

	if first.detached != 1 || second.attached != 1 {
		t.Errorf("expected first detached and second attached, got %d and %d", first.detached, second.attached)
	}
	if got := w.output(); got != "1:a2:b" {
		t.Errorf("expected %q, got %q", "1:a2:b", got)
	}
}

func TestAppInstanceDispose(t *testing.T) {
	w := newTestWidget(80, 24)
	streams := newAppStreams(w)
	app := &echoApp{}

	inst, _ := RenderApp(app, streams, RenderOptions{})
	inst.Dispose()
	inst.Dispose()
	inst.Update(&echoApp{})

	if err := inst.Wait(); err != nil {
		t.Errorf("expected nil after Dispose, got %v", err)
	}
	if app.detached != 1 {
		t.Errorf("expected one detach, got %d", app.detached)
	}
	if streams.Stdin.readable.Len() != 0 {
		t.Errorf("expected readable listener removed, got %d", streams.Stdin.readable.Len())
	}
}

func TestHostRendersApp(t *testing.T) {
	w := newTestWidget(80, 24)
	factory := func(WidgetOptions) (Widget, error) { return w, nil }
	host := NewHost(factory, &echoApp{prefix: "> "}, WithRender(RenderApp), WithAutoFitWrap())

	if err := host.Mount(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.data.Emit("x")
	host.SetChildren(&echoApp{prefix: "$ "})
	w.data.Emit("y")
	w.data.Emit("q")

	if err := host.Wait(); err != nil {
		t.Errorf("expected clean exit, got %v", err)
	}
	if got := w.output(); got != "> x$ y" {
		t.Errorf("expected %q, got %q", "> x$ y", got)
	}
	host.Unmount()
}
