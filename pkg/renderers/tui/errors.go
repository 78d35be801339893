package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrDeadEnd is returned when a submitted form leads to a route that is
	// neither a form nor a result page.
	ErrDeadEnd = errors.New("tui: next route does not resolve")
)
