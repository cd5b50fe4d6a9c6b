// Package render bundles a directory tree of .txt wordlists into a single
// JSON document or rant module.
package render

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertwitch/linedup/internal/checker"
)

const (
	// FormatJSON renders the wordlists as one nested JSON object.
	FormatJSON = "json"

	// FormatRant renders the wordlists as a rant module.
	FormatRant = "rant"

	tmpSuffix = ".linedup.tmp"
)

type walkProvider interface {
	Walk(ctx context.Context, root string, visit func(path string)) error
}

type osProvider interface {
	ReadFile(name string) ([]byte, error)
	Create(name string) (*os.File, error)
	Rename(oldpath string, newpath string) error
	Remove(name string) error
}

// Handler is the principal implementation of the wordlist renderer.
type Handler struct {
	walkHandler walkProvider
	osHandler   osProvider

	// Quiet suppresses the per-wordlist progress logging.
	Quiet bool
}

// NewHandler returns a pointer to a new wordlist renderer [Handler].
func NewHandler(walkHandler walkProvider, osHandler osProvider) *Handler {
	return &Handler{
		walkHandler: walkHandler,
		osHandler:   osHandler,
	}
}

// Formats returns the supported output formats.
func Formats() []string {
	return []string{FormatJSON, FormatRant}
}

// ValidateFormat returns [ErrUnknownFormat] for unsupported output formats.
func ValidateFormat(format string) error {
	switch format {
	case FormatJSON, FormatRant:
		return nil
	default:
		return fmt.Errorf("%w: %q (want %s)", ErrUnknownFormat, format, strings.Join(Formats(), " or "))
	}
}

// Collect walks root and reads every wordlist below it into a [Tree]. Any
// traversal or read failure aborts the collection, so an incomplete bundle
// is never produced.
func (h *Handler) Collect(ctx context.Context, root string) (*Tree, error) {
	var paths []string

	if err := h.walkHandler.Walk(ctx, root, func(path string) {
		if checker.IsCandidate(path) {
			paths = append(paths, path)
		}
	}); err != nil {
		return nil, fmt.Errorf("(render-collect) %w", err)
	}

	tree := NewTree()

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("(render-collect) %w", err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, fmt.Errorf("(render-collect) %w", err)
		}

		if !h.Quiet {
			slog.Info("Reading wordlist.", "path", path)
		}

		data, err := h.osHandler.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("(render-collect) %w", &checker.ReadError{Path: path, Err: err})
		}

		if err := tree.insert(strings.Split(filepath.ToSlash(rel), "/"), ParseWordlist(string(data))); err != nil {
			return nil, fmt.Errorf("(render-collect) %s: %w", path, err)
		}
	}

	return tree, nil
}

// Encode writes the [Tree] to w in the given format.
func (h *Handler) Encode(w io.Writer, tree *Tree, format string) error {
	if err := ValidateFormat(format); err != nil {
		return fmt.Errorf("(render-encode) %w", err)
	}

	var err error
	if format == FormatJSON {
		err = encodeJSON(w, tree)
	} else {
		err = h.encodeRant(w, tree)
	}

	if err != nil {
		return fmt.Errorf("(render-encode) %w", err)
	}

	return nil
}

// WriteFile encodes the [Tree] into a temporary file next to path and
// renames it into place once complete.
func (h *Handler) WriteFile(path string, tree *Tree, format string) error {
	if err := ValidateFormat(format); err != nil {
		return fmt.Errorf("(render-write) %w", err)
	}

	tmpPath := path + tmpSuffix

	f, err := h.osHandler.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("(render-write) %w", err)
	}

	renamed := false
	defer func() {
		if !renamed {
			if err := h.osHandler.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Warn("Failed to remove temporary file", "path", tmpPath, "err", err)
			}
		}
	}()

	if err := h.Encode(f, tree, format); err != nil {
		_ = f.Close()

		return fmt.Errorf("(render-write) %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("(render-write) %w", err)
	}

	if err := h.osHandler.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("(render-write) %w", err)
	}
	renamed = true

	return nil
}

func encodeJSON(w io.Writer, tree *Tree) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(tree)
}

func (h *Handler) encodeRant(w io.Writer, tree *Tree) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("<%module = (::)>\n")
	h.writeRantTree(bw, "", tree)
	bw.WriteString("<module>")

	return bw.Flush()
}

// writeRantTree writes one map definition per directory and one list
// definition per wordlist, keyed by their slash-separated path. Write
// errors are kept by the [bufio.Writer] and returned on flush.
func (h *Handler) writeRantTree(bw *bufio.Writer, prefix string, tree *Tree) {
	for _, key := range tree.Keys() {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "/" + key
		}

		if words, ok := tree.Lists[key]; ok {
			if !h.Quiet {
				slog.Info("Rendering wordlist.", "key", fullKey)
			}
			fmt.Fprintf(bw, "<module/%s = %s>\n", fullKey, RantList(words))

			continue
		}

		fmt.Fprintf(bw, "<module/%s = (::)>\n", fullKey)
		h.writeRantTree(bw, fullKey, tree.Dirs[key])
	}
}

// RantList renders words as a rant list literal of quoted strings. Double
// quotes inside a word are doubled.
func RantList(words []string) string {
	quoted := make([]string, len(words))
	for i, word := range words {
		quoted[i] = `"` + strings.ReplaceAll(word, `"`, `""`) + `"`
	}

	return "(: " + strings.Join(quoted, "; ") + " )"
}
