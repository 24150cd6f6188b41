//go:build !js

package webtty

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SizeBox lays its child out in a box exactly the size of an output stream,
// so the child computes its layout against the real terminal instead of an
// unbounded canvas. Whenever a resize reaches it, SizeBox re-reads the
// stream's Columns and Rows.
type SizeBox struct {
	child  tea.Model
	stream *OutputStream
	width  int
	height int
}

// NewSizeBox wraps child, sized from stream.
func NewSizeBox(child tea.Model, stream *OutputStream) SizeBox {
	cols, rows := stream.GetWindowSize()
	return SizeBox{child: child, stream: stream, width: cols, height: rows}
}

// Child returns the wrapped model.
func (b SizeBox) Child() tea.Model { return b.child }

// Size returns the box dimensions.
func (b SizeBox) Size() TerminalSize {
	return TerminalSize{Columns: b.width, Rows: b.height}
}

func (b SizeBox) Init() tea.Cmd {
	return b.child.Init()
}

func (b SizeBox) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		b.width, b.height = b.stream.GetWindowSize()
		msg = tea.WindowSizeMsg{Width: b.width, Height: b.height}
	}

	var cmd tea.Cmd
	b.child, cmd = b.child.Update(msg)
	return b, cmd
}

func (b SizeBox) View() string {
	if b.width <= 0 || b.height <= 0 {
		return b.child.View()
	}
	return lipgloss.NewStyle().
		Width(b.width).
		Height(b.height).
		MaxWidth(b.width).
		MaxHeight(b.height).
		Render(b.child.View())
}
