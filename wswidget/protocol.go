package wswidget

import "github.com/danielgatis/go-webtty"

// Message types exchanged as JSON text frames. Terminal output travels from
// server to client as binary frames; binary frames from the client are input.
const (
	// TypeInput carries user input (client -> server).
	TypeInput = "input"
	// TypeResize reports the client grid size (client -> server) or asks the
	// client to resize (server -> client).
	TypeResize = "resize"
	// TypeContainer reports the pixel size of the element hosting the
	// terminal and its cell metrics (client -> server).
	TypeContainer = "container"
	// TypeOptions pushes widget options (server -> client).
	TypeOptions = "options"
	// TypeFocus asks the client to focus the terminal (server -> client).
	TypeFocus = "focus"
	// TypeBlur asks the client to blur the terminal (server -> client).
	TypeBlur = "blur"
)

// Message is one control frame.
type Message struct {
	Type string `json:"type"`

	Data string `json:"data,omitempty"`

	Cols int `json:"cols,omitempty"`
	Rows int `json:"rows,omitempty"`

	Width      int `json:"width,omitempty"`
	Height     int `json:"height,omitempty"`
	CellWidth  int `json:"cellWidth,omitempty"`
	CellHeight int `json:"cellHeight,omitempty"`

	Options *webtty.WidgetOptions `json:"options,omitempty"`
}
