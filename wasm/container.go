//go:build js && wasm

package main

import (
	"sync"
	"syscall/js"

	webtty "github.com/danielgatis/go-webtty"
)

// elementContainer is a DOM element observed with ResizeObserver.
type elementContainer struct {
	el   js.Value
	loop *webtty.Loop

	mu       sync.Mutex
	observer js.Value
	callback js.Func
	started  bool

	changed webtty.Signal[struct{}]
}

func newElementContainer(el js.Value, loop *webtty.Loop) *elementContainer {
	return &elementContainer{el: el, loop: loop}
}

// ObserveSize starts the ResizeObserver on first use.
func (c *elementContainer) ObserveSize(fn func()) (stop func()) {
	c.mu.Lock()
	if !c.started && !js.Global().Get("ResizeObserver").IsUndefined() {
		c.callback = js.FuncOf(func(js.Value, []js.Value) interface{} {
			c.loop.ScheduleSoon(func() { c.changed.Emit(struct{}{}) })
			return nil
		})
		c.observer = js.Global().Get("ResizeObserver").New(c.callback)
		c.observer.Call("observe", c.el)
		c.started = true
	}
	c.mu.Unlock()

	return c.changed.Subscribe(func(struct{}) { fn() })
}

// release disconnects the observer.
func (c *elementContainer) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	c.observer.Call("disconnect")
	c.callback.Release()
	c.started = false
	c.changed.Clear()
}

var _ webtty.Container = (*elementContainer)(nil)
