package render

import "errors"

var (
	// ErrUnknownFormat occurs when an output format is not supported.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrKeyConflict occurs when a directory and a wordlist share one key,
	// such as a directory "colors" next to a file "colors.txt".
	ErrKeyConflict = errors.New("directory and wordlist share a key")
)
