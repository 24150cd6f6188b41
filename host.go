package webtty

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Host owns one widget, its three stream endpoints, a DimensionTracker and
// the consumer's RenderInstance. It wires widget lifecycle events to the
// adapters and re-invokes the render instance when the tree changes.
//
// A Host is mounted at most once. All methods are safe to call after
// Unmount and become no-ops.
type Host struct {
	factory WidgetFactory
	cfg     hostConfig
	log     zerolog.Logger

	mu        sync.Mutex
	tree      Tree
	container Container
	widget    Widget
	stdin     *InputStream
	stdout    *OutputStream
	stderr    *OutputStream
	tracker   *DimensionTracker
	render    RenderInstance
	subs      []Subscription
	mounted   bool
	unmounted bool
}

type hostConfig struct {
	widgetOptions WidgetOptions
	fixed         TerminalSize
	autoFitWrap   bool
	focus         bool
	render        RenderFunc
	env           *Environment
	log           zerolog.Logger
	middleware    *Middleware
}

// HostOption configures a Host during construction.
type HostOption func(*hostConfig)

// WithWidgetOptions sets the options passed to the widget factory.
// Input is always enabled regardless of DisableStdin.
func WithWidgetOptions(opts WidgetOptions) HostOption {
	return func(c *hostConfig) {
		c.widgetOptions = opts
	}
}

// WithFixedSize pins the terminal to cols x rows and disables container
// observation. Values <= 0 leave auto-fit enabled.
func WithFixedSize(cols, rows int) HostOption {
	return func(c *hostConfig) {
		c.fixed = TerminalSize{Columns: cols, Rows: rows}
	}
}

// WithAutoFitWrap wraps a tea.Model tree in a SizeBox matching the terminal
// size. Other trees are passed through unchanged.
func WithAutoFitWrap() HostOption {
	return func(c *hostConfig) {
		c.autoFitWrap = true
	}
}

// WithFocus focuses the widget right after mount.
func WithFocus(focus bool) HostOption {
	return func(c *hostConfig) {
		c.focus = focus
	}
}

// WithRender replaces the consumer framework entry point. Defaults to
// RenderTea, or RenderApp when built for js/wasm.
func WithRender(fn RenderFunc) HostOption {
	return func(c *hostConfig) {
		c.render = fn
	}
}

// WithEnvironment sets the environment exposed to the consumer.
func WithEnvironment(env *Environment) HostOption {
	return func(c *hostConfig) {
		c.env = env
	}
}

// WithLogger sets the logger for the host and its streams.
func WithLogger(l zerolog.Logger) HostOption {
	return func(c *hostConfig) {
		c.log = l
	}
}

// WithMiddleware sets functions to intercept stream traffic.
func WithMiddleware(mw *Middleware) HostOption {
	return func(c *hostConfig) {
		if mw == nil {
			return
		}
		if c.middleware == nil {
			c.middleware = &Middleware{}
		}
		c.middleware.Merge(mw)
	}
}

// NewHost prepares a host that renders tree into a widget built by factory.
// Nothing is created until Mount.
func NewHost(factory WidgetFactory, tree Tree, opts ...HostOption) *Host {
	cfg := hostConfig{
		render: defaultRender(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.env == nil {
		cfg.env = NewEnvironment()
	}
	return &Host{
		factory: factory,
		cfg:     cfg,
		log:     cfg.log.With().Str("component", "host").Logger(),
		tree:    tree,
	}
}

// Mount creates the widget, opens it into container, builds the streams and
// starts the render instance.
func (h *Host) Mount(container Container) error {
	h.mu.Lock()
	if h.unmounted {
		h.mu.Unlock()
		return ErrUnmounted
	}
	if h.mounted {
		h.mu.Unlock()
		return ErrAlreadyMounted
	}

	wopts := baselineOptions(h.cfg.widgetOptions)
	if h.cfg.fixed.Valid() {
		wopts.Cols, wopts.Rows = h.cfg.fixed.Columns, h.cfg.fixed.Rows
	}
	w, err := h.factory(wopts)
	if err != nil {
		h.mu.Unlock()
		return fmt.Errorf("webtty: create widget: %w", err)
	}
	if container == nil {
		container = NoopContainer{}
	}
	if err := w.Open(container); err != nil {
		w.Dispose()
		h.mu.Unlock()
		return fmt.Errorf("webtty: open widget: %w", err)
	}

	streamOpts := []StreamOption{
		WithStreamLogger(h.cfg.log),
		WithStreamMiddleware(h.cfg.middleware),
	}
	stdin := NewInputStream(w, append(streamOpts, WithStreamName("stdin"))...)
	stdout := NewOutputStream(w, append(streamOpts, WithStreamName("stdout"))...)
	stderr := NewOutputStream(w, append(streamOpts, WithStreamName("stderr"))...)

	tracker := NewDimensionTracker(w, h.log)
	tracker.Track([]*OutputStream{stdout, stderr}, []*InputStream{stdin})
	tracker.Mount()

	h.container = container
	h.widget = w
	h.stdin, h.stdout, h.stderr = stdin, stdout, stderr
	h.tracker = tracker
	h.subs = append(h.subs, w.OnResize(func(TerminalSize) { tracker.Resync() }))
	h.mounted = true
	fixed := h.cfg.fixed
	tree := h.tree
	h.mu.Unlock()

	if fixed.Valid() {
		tracker.ApplyFixed(fixed)
	} else {
		tracker.AutoFit(container)
	}

	inst, err := h.cfg.render(h.wrap(tree, stdout), Streams{Stdin: stdin, Stdout: stdout, Stderr: stderr}, RenderOptions{
		ExitOnInterrupt: false,
		PatchConsole:    false,
		Env:             h.cfg.env,
		Logger:          h.cfg.log,
	})
	if err != nil {
		h.Unmount()
		return fmt.Errorf("webtty: start render: %w", err)
	}

	h.mu.Lock()
	h.render = inst
	h.mu.Unlock()

	if h.cfg.focus {
		w.Focus()
	}

	size := tracker.Size()
	h.log.Debug().Int("columns", size.Columns).Int("rows", size.Rows).Msg("mounted")
	return nil
}

func (h *Host) wrap(tree Tree, stdout *OutputStream) Tree {
	if tree == nil || !h.cfg.autoFitWrap {
		return tree
	}
	return wrapTree(tree, stdout)
}

// SetChildren replaces the rendered tree.
func (h *Host) SetChildren(tree Tree) {
	h.mu.Lock()
	if h.unmounted {
		h.mu.Unlock()
		return
	}
	h.tree = tree
	render, stdout := h.render, h.stdout
	h.mu.Unlock()

	if render == nil || tree == nil {
		return
	}
	render.Update(h.wrap(tree, stdout))
}

// SetFocus focuses or blurs the widget.
func (h *Host) SetFocus(focus bool) {
	h.mu.Lock()
	h.cfg.focus = focus
	w := h.activeWidget()
	h.mu.Unlock()

	if w == nil {
		return
	}
	if focus {
		w.Focus()
	} else {
		w.Blur()
	}
}

// SetWidgetOptions pushes changed options to the widget, refits when not
// pinned to a fixed size, and resyncs the streams.
func (h *Host) SetWidgetOptions(opts WidgetOptions) {
	h.mu.Lock()
	h.cfg.widgetOptions = opts
	w, tracker, container, fixed := h.activeWidget(), h.tracker, h.container, h.cfg.fixed
	h.mu.Unlock()

	if w == nil {
		return
	}
	w.SetOptions(baselineOptions(opts))
	if !fixed.Valid() {
		tracker.AutoFit(container)
	}
	tracker.Resync()
}

// SetFixedSize pins the terminal size. Passing a non-positive dimension
// returns to container-driven auto-fit.
func (h *Host) SetFixedSize(cols, rows int) {
	size := TerminalSize{Columns: cols, Rows: rows}

	h.mu.Lock()
	h.cfg.fixed = size
	w, tracker, container := h.activeWidget(), h.tracker, h.container
	h.mu.Unlock()

	if w == nil {
		return
	}
	if size.Valid() {
		tracker.ApplyFixed(size)
		return
	}
	tracker.AutoFit(container)
}

// activeWidget returns the widget while mounted. Caller holds h.mu.
func (h *Host) activeWidget() Widget {
	if !h.mounted || h.unmounted {
		return nil
	}
	return h.widget
}

// Unmount disposes the render instance, detaches observers and widget
// subscriptions, and releases the widget. Safe to call more than once and
// before Mount.
func (h *Host) Unmount() {
	h.mu.Lock()
	if h.unmounted {
		h.mu.Unlock()
		return
	}
	h.unmounted = true
	mounted := h.mounted
	render, tracker, w := h.render, h.tracker, h.widget
	stdin, stdout, stderr := h.stdin, h.stdout, h.stderr
	subs := h.subs
	h.subs = nil
	h.mu.Unlock()

	if !mounted {
		return
	}

	stdin.Close()
	if render != nil {
		render.Dispose()
	}
	tracker.StopAutoFit()
	for _, s := range subs {
		s.Dispose()
	}
	stdout.Dispose()
	stderr.Dispose()
	w.Dispose()

	h.log.Debug().Msg("unmounted")
}

// Wait blocks until the render instance stops. Returns nil if never mounted.
func (h *Host) Wait() error {
	h.mu.Lock()
	render := h.render
	h.mu.Unlock()

	if render == nil {
		return nil
	}
	return render.Wait()
}

// Mounted returns true between Mount and Unmount.
func (h *Host) Mounted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mounted && !h.unmounted
}

// Stdin returns the input endpoint, or nil before Mount.
func (h *Host) Stdin() *InputStream {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stdin
}

// Stdout returns the output endpoint, or nil before Mount.
func (h *Host) Stdout() *OutputStream {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stdout
}

// Stderr returns the error endpoint, or nil before Mount.
func (h *Host) Stderr() *OutputStream {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stderr
}

// Widget returns the widget, or nil before Mount.
func (h *Host) Widget() Widget {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.widget
}

// Render returns the render instance, or nil before Mount.
func (h *Host) Render() RenderInstance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.render
}

// Size returns the tracked terminal size. 0x0 before Mount.
func (h *Host) Size() TerminalSize {
	h.mu.Lock()
	tracker := h.tracker
	h.mu.Unlock()

	if tracker == nil {
		return TerminalSize{}
	}
	return tracker.Size()
}

// Environment returns the environment exposed to the consumer.
func (h *Host) Environment() *Environment {
	return h.cfg.env
}
