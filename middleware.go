package webtty

// Middleware intercepts stream traffic between the consumer and the widget.
// Each field wraps one path: it receives the original value and a next
// function that runs the default behavior. Not calling next drops the value.
type Middleware struct {
	// Write wraps every normalized chunk an OutputStream forwards to the widget.
	Write func(data string, next func(string))

	// Input wraps every widget data event before it is queued by an InputStream.
	Input func(data string, next func(string))

	// Resize wraps resize signal emission on an OutputStream.
	Resize func(size TerminalSize, next func(TerminalSize))
}

// Merge copies non-nil middleware functions from other into this, overwriting existing values.
func (m *Middleware) Merge(other *Middleware) {
	if other == nil {
		return
	}

	if other.Write != nil {
		m.Write = other.Write
	}
	if other.Input != nil {
		m.Input = other.Input
	}
	if other.Resize != nil {
		m.Resize = other.Resize
	}
}

func (m *Middleware) write(data string, next func(string)) {
	if m != nil && m.Write != nil {
		m.Write(data, next)
		return
	}
	next(data)
}

func (m *Middleware) input(data string, next func(string)) {
	if m != nil && m.Input != nil {
		m.Input(data, next)
		return
	}
	next(data)
}

func (m *Middleware) resize(size TerminalSize, next func(TerminalSize)) {
	if m != nil && m.Resize != nil {
		m.Resize(size, next)
		return
	}
	next(size)
}
