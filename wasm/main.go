//go:build js && wasm

// Command wasm mounts the prompt shell on xterm.js terminals in the page.
//
// Load xterm.js (and optionally its fit addon) before this module, then:
//
//	const id = WebTTY.mount(document.getElementById("term"), {fontSize: 14});
//	WebTTY.resize(id, 100, 30);
//	WebTTY.unmount(id);
//
// JS callbacks only post work to the loop, so host operations, widget events
// and render updates all run on the loop goroutine in order.
package main

import (
	"errors"
	"os"
	"syscall/js"

	"github.com/rs/zerolog"

	webtty "github.com/danielgatis/go-webtty"
	"github.com/danielgatis/go-webtty/examples/prompt"
)

var errNoXterm = errors.New("webtty: xterm.js Terminal is not loaded")

// Global mount registry, only touched from JS callbacks.
var mounts = make(map[int]*mountInstance)
var nextMountID = 1

type mountInstance struct {
	host      *webtty.Host
	container *elementContainer
}

var (
	loop = webtty.NewLoop()
	log  = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()
)

func main() {
	js.Global().Set("WebTTY", js.ValueOf(map[string]interface{}{
		"mount":   js.FuncOf(mount),
		"unmount": js.FuncOf(unmount),
		"resize":  js.FuncOf(resize),
		"focus":   js.FuncOf(focus),
	}))

	// Keep the program running
	select {}
}

// mount(element, options?, title?) returns a mount id, or 0 when called
// without an element. Mounting itself happens on the loop; failures are
// logged and leave the id unmounted.
func mount(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return 0
	}
	opts := webtty.WidgetOptions{}
	if len(args) >= 2 {
		parsed, err := fromJS(args[1])
		if err != nil {
			log.Warn().Err(err).Msg("ignoring widget options")
		}
		opts = parsed
	}
	title := "webtty"
	if len(args) >= 3 && args[2].Type() == js.TypeString {
		title = args[2].String()
	}

	env := webtty.NewEnvironment(webtty.WithScheduler(loop), webtty.WithPlatform("browser"))
	env.Apply()

	container := newElementContainer(args[0], loop)
	factory := func(o webtty.WidgetOptions) (webtty.Widget, error) {
		return newXterm(o, loop)
	}
	host := webtty.NewHost(factory, prompt.New(title),
		webtty.WithRender(webtty.RenderApp),
		webtty.WithWidgetOptions(opts),
		webtty.WithEnvironment(env),
		webtty.WithLogger(log),
		webtty.WithFocus(true),
	)

	id := nextMountID
	nextMountID++
	mounts[id] = &mountInstance{host: host, container: container}

	loop.ScheduleSoon(func() {
		if err := host.Mount(container); err != nil {
			log.Error().Err(err).Int("id", id).Msg("mount")
			container.release()
			return
		}
		log.Debug().Int("id", id).Msg("mounted")
	})
	return id
}

func getMount(args []js.Value) (int, *mountInstance) {
	if len(args) < 1 {
		return 0, nil
	}
	id := args[0].Int()
	return id, mounts[id]
}

func unmount(_ js.Value, args []js.Value) interface{} {
	id, m := getMount(args)
	if m == nil {
		return false
	}
	delete(mounts, id)
	loop.ScheduleSoon(func() {
		m.host.Unmount()
		m.container.release()
	})
	return true
}

// resize(id, cols, rows) pins the grid size; resize(id) returns to fitting.
func resize(_ js.Value, args []js.Value) interface{} {
	_, m := getMount(args)
	if m == nil {
		return false
	}
	cols, rows := 0, 0
	if len(args) >= 3 {
		cols, rows = args[1].Int(), args[2].Int()
	}
	loop.ScheduleSoon(func() { m.host.SetFixedSize(cols, rows) })
	return true
}

func focus(_ js.Value, args []js.Value) interface{} {
	_, m := getMount(args)
	if m == nil {
		return false
	}
	focused := len(args) < 2 || args[1].Truthy()
	loop.ScheduleSoon(func() { m.host.SetFocus(focused) })
	return true
}
