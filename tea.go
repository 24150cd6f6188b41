//go:build !js

package webtty

import (
	"errors"
	"fmt"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// childrenMsg swaps the tree rendered under rootModel.
type childrenMsg struct {
	tree tea.Model
}

// rootModel forwards everything to the current tree and remembers the last
// size so a replacement tree is laid out immediately.
type rootModel struct {
	child tea.Model
	size  TerminalSize
}

func sizeMsg(size TerminalSize) tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: size.Columns, Height: size.Rows}
}

func (m rootModel) Init() tea.Cmd {
	size := m.size
	return tea.Batch(m.child.Init(), func() tea.Msg { return sizeMsg(size) })
}

func (m rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case childrenMsg:
		m.child = msg.tree
		init := m.child.Init()
		if !m.size.Valid() {
			return m, init
		}
		var cmd tea.Cmd
		m.child, cmd = m.child.Update(sizeMsg(m.size))
		return m, tea.Batch(init, cmd)
	case tea.WindowSizeMsg:
		m.size = TerminalSize{Columns: msg.Width, Rows: msg.Height}
	}

	var cmd tea.Cmd
	m.child, cmd = m.child.Update(msg)
	return m, cmd
}

func (m rootModel) View() string {
	return m.child.View()
}

// TeaInstance runs a Bubble Tea program against webtty streams.
type TeaInstance struct {
	program *tea.Program
	log     zerolog.Logger

	unsubscribe func()
	done        chan struct{}
	err         error
	disposeOnce sync.Once
}

// RenderTea starts tree, which must be a tea.Model, as a Bubble Tea program
// reading streams.Stdin and drawing into streams.Stdout. Resize signals on
// Stdout become tea.WindowSizeMsg. Implements RenderFunc.
func RenderTea(tree Tree, streams Streams, opts RenderOptions) (RenderInstance, error) {
	return startTea(tree, streams, opts, nil)
}

// TeaRenderer returns a RenderFunc like RenderTea that appends extra program
// options after the ones derived from RenderOptions.
func TeaRenderer(extra ...tea.ProgramOption) RenderFunc {
	return func(tree Tree, streams Streams, opts RenderOptions) (RenderInstance, error) {
		return startTea(tree, streams, opts, extra)
	}
}

// WithProgramOptions renders with TeaRenderer(opts...). It replaces any
// RenderFunc set earlier with WithRender.
func WithProgramOptions(opts ...tea.ProgramOption) HostOption {
	return func(c *hostConfig) {
		c.render = TeaRenderer(opts...)
	}
}

func startTea(tree Tree, streams Streams, opts RenderOptions, extra []tea.ProgramOption) (RenderInstance, error) {
	if tree == nil {
		return nil, ErrNilModel
	}
	model, ok := tree.(tea.Model)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a tea.Model", ErrUnsupportedTree, tree)
	}
	env := opts.Env
	if env == nil {
		env = NewEnvironment()
	}

	popts := []tea.ProgramOption{
		tea.WithInput(streams.Stdin),
		tea.WithOutput(streams.Stdout),
		tea.WithEnvironment(env.Environ()),
	}
	if !opts.ExitOnInterrupt {
		popts = append(popts, tea.WithoutSignalHandler())
	}
	popts = append(popts, extra...)

	if opts.PatchConsole && streams.Stderr != nil {
		log.SetOutput(streams.Stderr)
	}

	// A real TTY would be switched to raw mode by the framework.
	streams.Stdin.SetRawMode(true)

	root := rootModel{child: model, size: streams.Stdout.Size()}
	inst := &TeaInstance{
		program: tea.NewProgram(root, popts...),
		log:     opts.Logger,
		done:    make(chan struct{}),
	}
	inst.unsubscribe = streams.Stdout.OnResize(inst.resized)

	go inst.run()
	return inst, nil
}

func (t *TeaInstance) run() {
	defer close(t.done)
	_, err := t.program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		t.log.Error().Err(err).Msg("program exited with error")
		t.err = err
		return
	}
	t.log.Debug().Msg("program exited")
}

func (t *TeaInstance) resized(size TerminalSize) {
	select {
	case <-t.done:
		return
	default:
	}
	t.program.Send(sizeMsg(size))
}

// Update replaces the rendered tree. No-op once the program has stopped or
// when tree is not a tea.Model.
func (t *TeaInstance) Update(tree Tree) {
	model, ok := tree.(tea.Model)
	if !ok || model == nil {
		return
	}
	select {
	case <-t.done:
		return
	default:
	}
	t.program.Send(childrenMsg{tree: model})
}

// Send delivers an arbitrary message to the program.
func (t *TeaInstance) Send(msg tea.Msg) {
	select {
	case <-t.done:
		return
	default:
	}
	t.program.Send(msg)
}

// Done is closed when the program stops.
func (t *TeaInstance) Done() <-chan struct{} {
	return t.done
}

// Dispose kills the program and waits for it to stop. Idempotent.
func (t *TeaInstance) Dispose() {
	t.disposeOnce.Do(func() {
		t.unsubscribe()
		t.program.Kill()
		<-t.done
	})
}

// Wait blocks until the program stops. A program stopped by Dispose
// returns nil.
func (t *TeaInstance) Wait() error {
	<-t.done
	return t.err
}

var _ RenderInstance = (*TeaInstance)(nil)
var _ RenderFunc = RenderTea

func defaultRender() RenderFunc { return RenderTea }

// wrapTree boxes tea models in a SizeBox. Other trees pass through.
func wrapTree(tree Tree, stdout *OutputStream) Tree {
	model, ok := tree.(tea.Model)
	if !ok || model == nil {
		return tree
	}
	return NewSizeBox(model, stdout)
}
