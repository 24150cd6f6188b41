package webtty

import "github.com/rs/zerolog"

// Tree is the consumer's render tree. Its concrete type is defined by the
// RenderFunc in use: a tea.Model for RenderTea, an App for RenderApp.
type Tree = any

// Streams are the three endpoints handed to a consumer framework.
type Streams struct {
	Stdin  *InputStream
	Stdout *OutputStream
	Stderr *OutputStream
}

// RenderOptions configures how a consumer framework is started.
type RenderOptions struct {
	// ExitOnInterrupt lets the framework install its own interrupt handler.
	ExitOnInterrupt bool

	// PatchConsole redirects the standard library logger into Stderr.
	PatchConsole bool

	// Env is exposed to the program as its process environment.
	Env *Environment

	Logger zerolog.Logger
}

// RenderInstance is a live render tree driven through Streams.
// It is created once per mount and re-laid-out, never re-created, on resize.
type RenderInstance interface {
	// Update replaces the rendered tree.
	Update(tree Tree)
	// Dispose stops rendering. Idempotent.
	Dispose()
	// Wait blocks until rendering stops and returns the framework's error.
	Wait() error
}

// RenderFunc starts a RenderInstance.
type RenderFunc func(tree Tree, streams Streams, opts RenderOptions) (RenderInstance, error)
