package webtty

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// App is a consumer that drives the streams itself, the way a process pulls
// stdin on its readable signal and redraws on resize. It needs no terminal
// device and no blocking reads, so it runs wherever the streams do,
// including js/wasm.
type App interface {
	// Attach starts the app on streams. The app calls exit once it is done;
	// later calls are ignored. The returned function detaches the app and is
	// called at most once.
	Attach(streams Streams, exit func(err error)) (detach func())
}

// AppFunc adapts a function to App.
type AppFunc func(streams Streams, exit func(err error)) (detach func())

// Attach calls f.
func (f AppFunc) Attach(streams Streams, exit func(err error)) (detach func()) {
	return f(streams, exit)
}

// AppInstance runs one App at a time against a set of streams.
type AppInstance struct {
	streams Streams
	log     zerolog.Logger

	mu         sync.Mutex
	generation int
	detach     func()
	stopped    bool
	err        error
	done       chan struct{}
}

// RenderApp attaches tree, which must be an App, to streams. Implements
// RenderFunc.
func RenderApp(tree Tree, streams Streams, opts RenderOptions) (RenderInstance, error) {
	if tree == nil {
		return nil, ErrNilModel
	}
	app, ok := tree.(App)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an App", ErrUnsupportedTree, tree)
	}

	streams.Stdin.SetRawMode(true)

	inst := &AppInstance{
		streams: streams,
		log:     opts.Logger,
		done:    make(chan struct{}),
	}
	inst.attach(app)
	return inst, nil
}

func (a *AppInstance) attach(app App) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.generation++
	gen := a.generation
	previous := a.detach
	a.detach = nil
	a.mu.Unlock()

	if previous != nil {
		previous()
	}

	detach := app.Attach(a.streams, func(err error) { a.exit(gen, err) })

	a.mu.Lock()
	if a.stopped || a.generation != gen {
		a.mu.Unlock()
		if detach != nil {
			detach()
		}
		return
	}
	a.detach = detach
	a.mu.Unlock()
}

// exit stops the instance when the current app reports it is done.
func (a *AppInstance) exit(gen int, err error) {
	a.mu.Lock()
	if a.stopped || a.generation != gen {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.err = err
	detach := a.detach
	a.detach = nil
	a.mu.Unlock()

	if detach != nil {
		detach()
	}
	close(a.done)

	if err != nil {
		a.log.Error().Err(err).Msg("app exited with error")
		return
	}
	a.log.Debug().Msg("app exited")
}

// Update detaches the running app and attaches tree in its place. No-op once
// stopped or when tree is not an App.
func (a *AppInstance) Update(tree Tree) {
	app, ok := tree.(App)
	if !ok || app == nil {
		return
	}
	a.attach(app)
}

// Done is closed when the instance stops.
func (a *AppInstance) Done() <-chan struct{} {
	return a.done
}

// Dispose detaches the running app. Idempotent.
func (a *AppInstance) Dispose() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	detach := a.detach
	a.detach = nil
	a.mu.Unlock()

	if detach != nil {
		detach()
	}
	close(a.done)
}

// Wait blocks until the app exits or the instance is disposed and returns
// the error the app exited with.
func (a *AppInstance) Wait() error {
	<-a.done
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

var _ RenderInstance = (*AppInstance)(nil)
var _ RenderFunc = RenderApp
