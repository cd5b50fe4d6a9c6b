package filesystem

import (
	"errors"
	"fmt"
)

var (
	// ErrNotDirectory occurs when the root of a walk exists but is not a
	// directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrEmptyRoot occurs when a walk is started without a root path.
	ErrEmptyRoot = errors.New("empty root path")
)

// TraversalError occurs when a directory cannot be listed or stat'ed during a
// walk. It carries the path of the directory that failed.
type TraversalError struct {
	Path string
	Err  error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("traversal of %q failed: %v", e.Path, e.Err)
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}
