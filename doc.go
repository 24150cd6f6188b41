// Package webtty runs a terminal UI program inside a terminal widget instead
// of a real TTY.
//
// The program expects byte streams for stdin, stdout and stderr plus
// window-size notifications. A widget (a
// browser xterm.js terminal, a WebSocket proxy to one, or an in-memory
// emulator) offers a grid of cells, keystroke events and resize events. This
// package adapts one to the other:
//
//   - Text written by the program reaches the widget with bare line feeds
//     converted to CR LF.
//   - Keystrokes reaching the widget are queued and read back by the program.
//   - Every stream endpoint always reports the widget's current size, and
//     size changes are announced to the program.
//
// # Quick Start
//
// Mount a model on a widget produced by a factory:
//
//	host := webtty.NewHost(headless.Factory(), model,
//	    webtty.WithAutoFitWrap(),
//	)
//	if err := host.Mount(container); err != nil {
//	    return err
//	}
//	defer host.Unmount()
//	host.Wait()
//
// # Programs
//
// The tree handed to [NewHost] is rendered by a [RenderFunc]. [RenderTea]
// runs a Bubble Tea model and is the default. [RenderApp] runs an [App],
// which reads stdin on the readable signal instead of blocking on a
// terminal device. Bubble Tea does not build for js/wasm, so browser builds
// default to RenderApp and only accept Apps:
//
//	host := webtty.NewHost(factory, prompt.New("shell"),
//	    webtty.WithRender(webtty.RenderApp),
//	)
//
// # Architecture
//
// The package is organized around these core types:
//
//   - [OutputStream]: Writable endpoint bound to a widget (stdout, stderr)
//   - [InputStream]: Readable endpoint fed by widget data events (stdin)
//   - [DimensionTracker]: Keeps every endpoint's columns and rows in sync
//   - [Host]: Mounts a widget and a program, and tears both down
//   - [Environment]: Process facts (env vars, platform, exit) for the program
//
// # Output
//
// OutputStream forwards every write to [Widget.Write] after newline
// normalization. A CR LF pair is never doubled, including when the CR ends
// one write and the LF starts the next:
//
//	out := webtty.NewOutputStream(w)
//	out.WriteString("a\nb\r\nc") // widget receives "a\r\nb\r\nc"
//
// Cursor helpers emit the usual CSI sequences:
//
//	out.CursorTo(3, 5)     // "\x1b[6;4H"
//	out.CursorToColumn(3)  // "\x1b[4G"
//	out.ClearLine(webtty.DirectionBoth) // "\x1b[2K"
//
// Writes after End or after the widget is released report success and do
// nothing.
//
// # Input
//
// InputStream queues each widget data event as one chunk. Chunks are read
// in arrival order, either with the non-blocking [InputStream.ReadChunk] or
// through [io.Reader], which blocks until data arrives or the stream closes:
//
//	in := webtty.NewInputStream(w)
//	in.OnReadable(func() {
//	    for chunk, ok := in.ReadChunk(); ok; chunk, ok = in.ReadChunk() {
//	        handle(chunk)
//	    }
//	})
//
// Raw mode and the flow-control calls (Pause, Resume, Ref, Unref) are
// accepted and chain, but change nothing: a widget has no line discipline.
//
// # Dimensions
//
// The tracker updates every endpoint before any resize listener runs, so a
// listener on stdout that queries stdin sees the new size:
//
//	tracker := webtty.NewDimensionTracker(w, log)
//	tracker.Track([]*webtty.OutputStream{stdout, stderr}, []*webtty.InputStream{stdin})
//	tracker.Mount()
//	tracker.AutoFit(container)
//
// A resync emits a resize even when the size did not change.
//
// # Middleware
//
// Stream traffic can be intercepted for recording or filtering:
//
//	mw := &webtty.Middleware{
//	    Write: func(data string, next func(string)) {
//	        log.Printf("out: %q", data)
//	        next(data)
//	    },
//	}
//	host := webtty.NewHost(factory, model, webtty.WithMiddleware(mw))
//
// # Environment
//
// [Environment] reports TERM=xterm-256color, COLORTERM=truecolor and
// LANG=en_US.UTF-8 by default. Exit cannot terminate a browser program, so
// it panics with an [*ExitError] that [CatchExit] turns back into an error.
//
// # Thread Safety
//
// All exported types are safe for concurrent use. Listeners are always
// called without internal locks held.
package webtty
