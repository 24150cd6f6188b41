package webtty

// TerminalSize is a column/row count reported by a widget.
type TerminalSize struct {
	Columns int
	Rows    int
}

// Valid returns true if both dimensions are positive.
func (s TerminalSize) Valid() bool {
	return s.Columns > 0 && s.Rows > 0
}

const (
	// DefaultColumns is the width used when a widget reports no size.
	DefaultColumns = 80
	// DefaultRows is the height used when a widget reports no size.
	DefaultRows = 24
)

// Subscription is a handle returned by widget event registration.
type Subscription interface {
	// Dispose detaches the handler. Calling it more than once is allowed.
	Dispose()
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

// Dispose calls f.
func (f SubscriptionFunc) Dispose() {
	if f != nil {
		f()
	}
}

// Container is the mount target a widget is opened into.
type Container interface {
	// ObserveSize registers fn to run whenever the container's size changes.
	// The returned function detaches the observer.
	ObserveSize(fn func()) (stop func())
}

// FitAddon proposes a column/row count that fills the widget's container.
type FitAddon interface {
	// ProposeDimensions returns the proposal, or false when the container has
	// no usable size yet.
	ProposeDimensions() (TerminalSize, bool)
}

// WidgetOptions configures a terminal widget.
// Zero values mean "widget default".
type WidgetOptions struct {
	Cols         int               `json:"cols,omitempty" yaml:"cols"`
	Rows         int               `json:"rows,omitempty" yaml:"rows"`
	Scrollback   int               `json:"scrollback,omitempty" yaml:"scrollback"`
	CursorBlink  bool              `json:"cursorBlink,omitempty" yaml:"cursor_blink"`
	FontSize     int               `json:"fontSize,omitempty" yaml:"font_size"`
	FontFamily   string            `json:"fontFamily,omitempty" yaml:"font_family"`
	Theme        map[string]string `json:"theme,omitempty" yaml:"theme"`
	DisableStdin bool              `json:"disableStdin,omitempty" yaml:"-"`
}

// baselineOptions is merged over caller options; input must stay enabled.
func baselineOptions(opts WidgetOptions) WidgetOptions {
	opts.DisableStdin = false
	return opts
}

// Widget is a terminal emulation component driven by the stream adapters.
// Implementations own glyph rendering and escape-sequence interpretation.
type Widget interface {
	// Open attaches the widget to its container.
	Open(container Container) error
	// Resize changes the grid size. Implementations fire resize handlers.
	Resize(cols, rows int)
	// Write queues text for display. It must not block on rendering.
	Write(data string)
	// OnData registers a handler for raw user input.
	OnData(fn func(data string)) Subscription
	// OnResize registers a handler for grid size changes.
	OnResize(fn func(size TerminalSize)) Subscription
	Focus()
	Blur()
	Cols() int
	Rows() int
	// Fit returns the widget's fit helper.
	Fit() FitAddon
	// SetOptions applies changed options to an open widget.
	SetOptions(opts WidgetOptions)
	// Dispose releases the widget. Later calls become no-ops.
	Dispose()
}

// WidgetFactory constructs a widget from merged options.
type WidgetFactory func(opts WidgetOptions) (Widget, error)

// widgetSize reads the widget's live size, falling back to defaults.
func widgetSize(w Widget) TerminalSize {
	s := TerminalSize{Columns: w.Cols(), Rows: w.Rows()}
	if s.Columns <= 0 {
		s.Columns = DefaultColumns
	}
	if s.Rows <= 0 {
		s.Rows = DefaultRows
	}
	return s
}

// --- Noop implementations ---

// NoopContainer never changes size.
type NoopContainer struct{}

func (NoopContainer) ObserveSize(fn func()) func() { return func() {} }

// NoopFit never proposes dimensions.
type NoopFit struct{}

func (NoopFit) ProposeDimensions() (TerminalSize, bool) { return TerminalSize{}, false }

// Ensure implementations satisfy their interfaces
var _ Container = NoopContainer{}
var _ FitAddon = NoopFit{}
var _ Subscription = SubscriptionFunc(nil)
