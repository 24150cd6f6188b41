package headless

import (
	"sync"

	"github.com/danielgatis/go-webtty"
)

// Sizer is a container that knows its pixel size.
type Sizer interface {
	Size() (width, height int)
}

// Container is an in-memory mount target with a settable pixel size.
type Container struct {
	mu       sync.RWMutex
	width    int
	height   int
	observer webtty.Signal[struct{}]
}

// NewContainer creates a container of width x height pixels.
func NewContainer(width, height int) *Container {
	return &Container{width: width, height: height}
}

// Size returns the pixel size.
func (c *Container) Size() (width, height int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// SetSize changes the pixel size and notifies observers when it changed.
func (c *Container) SetSize(width, height int) {
	c.mu.Lock()
	if c.width == width && c.height == height {
		c.mu.Unlock()
		return
	}
	c.width, c.height = width, height
	c.mu.Unlock()

	c.observer.Emit(struct{}{})
}

// ObserveSize registers fn for size changes.
func (c *Container) ObserveSize(fn func()) (stop func()) {
	return c.observer.Subscribe(func(struct{}) { fn() })
}

// Observers returns the number of attached observers.
func (c *Container) Observers() int {
	return c.observer.Len()
}

var _ webtty.Container = (*Container)(nil)
var _ Sizer = (*Container)(nil)
