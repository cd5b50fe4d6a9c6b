package checker

import (
	"fmt"
)

// ReadError occurs when a matched text file cannot be read after it was
// discovered. It is local to the file and must not abort a scan.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %q failed: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
