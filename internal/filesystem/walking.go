// Package filesystem implements the depth-first directory walker.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

type osProvider interface {
	ReadDir(name string) ([]os.DirEntry, error)
	Stat(name string) (os.FileInfo, error)
}

// Handler is the principal implementation of the directory walker.
type Handler struct {
	osHandler osProvider

	// FailFast halts the entire walk on the first [TraversalError] instead of
	// skipping the affected subtree.
	FailFast bool

	// OnError is called for every [TraversalError] below the root which did
	// not halt the walk. If nil, the error is logged with [slog.Warn].
	OnError func(err *TraversalError)
}

// NewHandler returns a pointer to a new directory walker [Handler].
func NewHandler(osHandler osProvider) *Handler {
	return &Handler{
		osHandler: osHandler,
	}
}

// Walk traverses the directory tree at root depth-first and calls visit with
// the full path of every entry that is not a directory. Directories are
// recursed into and never visited themselves. The order of siblings is the
// order reported by the operating system and must not be relied upon.
//
// An unusable root is always returned as a [TraversalError]. Errors below the
// root skip the affected subtree, unless [Handler.FailFast] is set.
func (f *Handler) Walk(ctx context.Context, root string, visit func(path string)) error {
	if root == "" {
		return fmt.Errorf("(fs-walk) %w", &TraversalError{Path: root, Err: ErrEmptyRoot})
	}

	info, err := f.osHandler.Stat(root)
	if err != nil {
		return fmt.Errorf("(fs-walk) %w", &TraversalError{Path: root, Err: err})
	}

	if !info.IsDir() {
		return fmt.Errorf("(fs-walk) %w", &TraversalError{Path: root, Err: ErrNotDirectory})
	}

	if err := f.walkDir(ctx, root, visit, true); err != nil {
		return fmt.Errorf("(fs-walk) %w", err)
	}

	return nil
}

func (f *Handler) walkDir(ctx context.Context, dir string, visit func(path string), isRoot bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := f.osHandler.ReadDir(dir)
	if err != nil {
		travErr := &TraversalError{Path: dir, Err: err}
		if isRoot || f.FailFast {
			return travErr
		}
		f.reportError(travErr)

		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())

		if !entry.IsDir() {
			visit(path)

			continue
		}

		if err := f.walkDir(ctx, path, visit, false); err != nil {
			return err
		}
	}

	return nil
}

func (f *Handler) reportError(err *TraversalError) {
	if f.OnError != nil {
		f.OnError(err)

		return
	}

	slog.Warn("Skipped directory: failed to list contents",
		"path", err.Path,
		"err", err.Err,
	)
}

// IsTraversalError returns whether the given error is or wraps a
// [TraversalError].
func IsTraversalError(err error) bool {
	var travErr *TraversalError

	return errors.As(err, &travErr)
}
