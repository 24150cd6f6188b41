package webtty

import (
	"errors"
	"fmt"
)

var (
	// ErrExitUnsupported is wrapped by ExitError: a page cannot terminate itself.
	ErrExitUnsupported = errors.New("webtty: process exit is not supported in this environment")
	// ErrAlreadyMounted is returned by Host.Mount on a mounted host.
	ErrAlreadyMounted = errors.New("webtty: host already mounted")
	// ErrUnmounted is returned by Host.Mount after Unmount.
	ErrUnmounted = errors.New("webtty: host was unmounted")
	// ErrNilModel is returned when a render is started without a tree.
	ErrNilModel = errors.New("webtty: nil model")
	// ErrUnsupportedTree is returned when a RenderFunc is given a tree of a
	// type it cannot run.
	ErrUnsupportedTree = errors.New("webtty: unsupported tree")
)

// ExitError is raised (as a panic value) when the consumer calls Exit.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%v (exit code %d)", ErrExitUnsupported, e.Code)
}

// Unwrap returns ErrExitUnsupported.
func (e *ExitError) Unwrap() error {
	return ErrExitUnsupported
}
