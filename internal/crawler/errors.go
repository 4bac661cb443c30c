package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrMaxDepthExceeded is returned when a directory lies deeper than
	// the configured maximum depth.
	ErrMaxDepthExceeded = errors.New("maximum crawl depth exceeded")

	// ErrCycle is returned under CycleError when a directory URL is
	// reached a second time.
	ErrCycle = errors.New("directory already visited")
)

// WalkError reports the node at which a walk was aborted.
type WalkError struct {
	// URL is the directory being processed when the walk failed.
	URL string

	// Depth is the depth of that directory.
	Depth int

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *WalkError) Error() string {
	return fmt.Sprintf("crawl aborted at %s (depth %d): %v", e.URL, e.Depth, e.Err)
}

// Unwrap returns the underlying error.
func (e *WalkError) Unwrap() error {
	return e.Err
}
