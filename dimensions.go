package webtty

import (
	"sync"

	"github.com/rs/zerolog"
)

// TrackerState is the DimensionTracker lifecycle state.
type TrackerState int

const (
	// StateUninitialized means the widget has not been opened; size is 0x0.
	StateUninitialized TrackerState = iota
	// StateMounted means the size mirrors the widget.
	StateMounted
	// StateResizing is held while endpoints are updated and listeners notified.
	StateResizing
)

func (s TrackerState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateMounted:
		return "mounted"
	case StateResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// DimensionTracker holds the current terminal size and pushes it to the
// stream endpoints. Each transition into StateMounted updates every endpoint
// first and only then emits resize signals, so listeners always observe
// consistent values on both streams.
type DimensionTracker struct {
	widget Widget
	log    zerolog.Logger

	mu      sync.Mutex
	state   TrackerState
	size    TerminalSize
	outputs []*OutputStream
	inputs  []*InputStream

	stopObserve func()
}

// NewDimensionTracker creates a tracker for w in StateUninitialized.
func NewDimensionTracker(w Widget, log zerolog.Logger) *DimensionTracker {
	return &DimensionTracker{widget: w, log: log}
}

// Track registers endpoints to keep in sync.
func (d *DimensionTracker) Track(outputs []*OutputStream, inputs []*InputStream) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputs = append(d.outputs, outputs...)
	d.inputs = append(d.inputs, inputs...)
}

// State returns the current lifecycle state.
func (d *DimensionTracker) State() TrackerState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Size returns the latest size. 0x0 before Mount.
func (d *DimensionTracker) Size() TerminalSize {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Mount performs the one-time Uninitialized -> Mounted transition using the
// widget's initial size. Later calls behave like Resync.
func (d *DimensionTracker) Mount() {
	d.mu.Lock()
	first := d.state == StateUninitialized
	d.mu.Unlock()

	if first {
		d.log.Debug().Msg("dimension tracker mounted")
	}
	d.Resync()
}

// Resync re-reads the widget size and applies it.
// Resize signals fire on every call, including when nothing changed.
func (d *DimensionTracker) Resync() {
	d.apply(widgetSize(d.widget))
}

func (d *DimensionTracker) apply(size TerminalSize) {
	d.mu.Lock()
	d.state = StateResizing
	d.size = size
	outputs := append([]*OutputStream(nil), d.outputs...)
	inputs := append([]*InputStream(nil), d.inputs...)
	d.mu.Unlock()

	for _, o := range outputs {
		o.setSize(size)
	}
	for _, in := range inputs {
		in.setSize(size)
	}

	d.mu.Lock()
	d.state = StateMounted
	d.mu.Unlock()

	d.log.Debug().Int("columns", size.Columns).Int("rows", size.Rows).Msg("dimensions applied")

	for _, o := range outputs {
		o.emitResize()
	}
}

// ApplyFixed forces the widget to size. A widget that changes size reports
// it through its resize event, synchronously or later, and that event is
// expected to trigger Resync. A widget already at size stays silent, so the
// tracker resyncs here when it has fallen behind.
func (d *DimensionTracker) ApplyFixed(size TerminalSize) {
	if !size.Valid() {
		return
	}
	d.StopAutoFit()
	before := widgetSize(d.widget)
	d.widget.Resize(size.Columns, size.Rows)
	if before == size && d.Size() != size {
		d.Resync()
	}
}

// AutoFit observes container and resizes the widget to the fit helper's
// proposal on every container size change. Empty proposals are skipped.
func (d *DimensionTracker) AutoFit(container Container) {
	if container == nil {
		return
	}
	d.StopAutoFit()

	fit := d.widget.Fit()
	if fit == nil {
		fit = NoopFit{}
	}

	refit := func() {
		proposal, ok := fit.ProposeDimensions()
		if !ok || !proposal.Valid() {
			d.log.Debug().Msg("fit proposal empty, skipping")
			return
		}
		d.widget.Resize(proposal.Columns, proposal.Rows)
	}

	stop := container.ObserveSize(refit)

	d.mu.Lock()
	d.stopObserve = stop
	d.mu.Unlock()

	refit()
}

// StopAutoFit detaches the container observer, if any.
func (d *DimensionTracker) StopAutoFit() {
	d.mu.Lock()
	stop := d.stopObserve
	d.stopObserve = nil
	d.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Observing returns true while a container observer is attached.
func (d *DimensionTracker) Observing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopObserve != nil
}
