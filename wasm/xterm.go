//go:build js && wasm

package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"

	webtty "github.com/danielgatis/go-webtty"
)

// xtermWidget wraps a page-global xterm.js Terminal.
// JS callbacks only enqueue on the loop; handlers run on the loop goroutine.
type xtermWidget struct {
	term js.Value
	fit  js.Value
	loop *webtty.Loop

	mu        sync.Mutex
	funcs     []js.Func
	disposers []js.Value
	disposed  bool

	data   webtty.Signal[string]
	resize webtty.Signal[webtty.TerminalSize]
}

// newXterm constructs a Terminal with opts and loads the fit addon when the
// page provides one.
func newXterm(opts webtty.WidgetOptions, loop *webtty.Loop) (*xtermWidget, error) {
	ctor := js.Global().Get("Terminal")
	if ctor.IsUndefined() {
		return nil, errNoXterm
	}
	w := &xtermWidget{
		term: ctor.New(toJS(opts)),
		loop: loop,
	}

	if addon := js.Global().Get("FitAddon"); !addon.IsUndefined() {
		if inner := addon.Get("FitAddon"); !inner.IsUndefined() {
			addon = inner
		}
		w.fit = addon.New()
		w.term.Call("loadAddon", w.fit)
	}

	w.listen("onData", func(args []js.Value) {
		data := args[0].String()
		w.loop.ScheduleSoon(func() { w.data.Emit(data) })
	})
	w.listen("onResize", func(args []js.Value) {
		size := webtty.TerminalSize{
			Columns: args[0].Get("cols").Int(),
			Rows:    args[0].Get("rows").Int(),
		}
		w.loop.ScheduleSoon(func() { w.resize.Emit(size) })
	})
	return w, nil
}

// listen registers fn on one of the Terminal's event emitters.
func (w *xtermWidget) listen(event string, fn func(args []js.Value)) {
	f := js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		if len(args) > 0 {
			fn(args)
		}
		return nil
	})
	w.funcs = append(w.funcs, f)
	w.disposers = append(w.disposers, w.term.Call(event, f))
}

func (w *xtermWidget) Open(container webtty.Container) error {
	if el, ok := container.(*elementContainer); ok {
		w.term.Call("open", el.el)
	}
	return nil
}

func (w *xtermWidget) Resize(cols, rows int) {
	if w.Disposed() {
		return
	}
	w.term.Call("resize", cols, rows)
}

func (w *xtermWidget) Write(data string) {
	if w.Disposed() || data == "" {
		return
	}
	w.term.Call("write", data)
}

func (w *xtermWidget) OnData(fn func(data string)) webtty.Subscription {
	return webtty.SubscriptionFunc(w.data.Subscribe(fn))
}

func (w *xtermWidget) OnResize(fn func(size webtty.TerminalSize)) webtty.Subscription {
	return webtty.SubscriptionFunc(w.resize.Subscribe(fn))
}

func (w *xtermWidget) Focus() {
	if !w.Disposed() {
		w.term.Call("focus")
	}
}

func (w *xtermWidget) Blur() {
	if !w.Disposed() {
		w.term.Call("blur")
	}
}

func (w *xtermWidget) Cols() int { return w.term.Get("cols").Int() }
func (w *xtermWidget) Rows() int { return w.term.Get("rows").Int() }

func (w *xtermWidget) Fit() webtty.FitAddon {
	if w.fit.IsUndefined() {
		return webtty.NoopFit{}
	}
	return xtermFit{w.fit}
}

// SetOptions assigns each option onto term.options.
func (w *xtermWidget) SetOptions(opts webtty.WidgetOptions) {
	if w.Disposed() {
		return
	}
	current := w.term.Get("options")
	src := toJS(opts)
	keys := js.Global().Get("Object").Call("keys", src)
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		if k == "cols" || k == "rows" {
			continue
		}
		current.Set(k, src.Get(k))
	}
}

func (w *xtermWidget) Dispose() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.disposed = true
	w.mu.Unlock()

	w.data.Clear()
	w.resize.Clear()
	for _, d := range w.disposers {
		d.Call("dispose")
	}
	w.term.Call("dispose")
	for _, f := range w.funcs {
		f.Release()
	}
}

func (w *xtermWidget) Disposed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disposed
}

type xtermFit struct {
	addon js.Value
}

func (f xtermFit) ProposeDimensions() (webtty.TerminalSize, bool) {
	dims := f.addon.Call("proposeDimensions")
	if dims.IsUndefined() || dims.IsNull() {
		return webtty.TerminalSize{}, false
	}
	size := webtty.TerminalSize{Columns: dims.Get("cols").Int(), Rows: dims.Get("rows").Int()}
	return size, size.Valid()
}

// toJS converts opts to a plain JS object through JSON.
func toJS(opts webtty.WidgetOptions) js.Value {
	data, err := json.Marshal(opts)
	if err != nil {
		return js.Global().Get("Object").New()
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

// fromJS reads widget options from a JS object. Missing input yields zero
// options.
func fromJS(v js.Value) (webtty.WidgetOptions, error) {
	var opts webtty.WidgetOptions
	if v.IsUndefined() || v.IsNull() {
		return opts, nil
	}
	raw := js.Global().Get("JSON").Call("stringify", v).String()
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return webtty.WidgetOptions{}, fmt.Errorf("webtty: parse widget options: %w", err)
	}
	return opts, nil
}

var _ webtty.Widget = (*xtermWidget)(nil)
var _ webtty.FitAddon = xtermFit{}
