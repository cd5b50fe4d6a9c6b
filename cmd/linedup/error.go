package main

import "errors"

var (
	// ErrProfileIsDir occurs when a profile path names an existing directory.
	ErrProfileIsDir = errors.New("profile path is a directory")

	// ErrProfileSamePath occurs when both profiles are set to the same file.
	ErrProfileSamePath = errors.New("cpu and memory profile share a path")
)
