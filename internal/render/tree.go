package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/desertwitch/linedup/internal/checker"
)

// Tree is one directory level of collected wordlists. Wordlists are keyed by
// their file name without [checker.TextSuffix], subdirectories by their name.
type Tree struct {
	Lists map[string][]string
	Dirs  map[string]*Tree
}

// NewTree returns a pointer to a new empty [Tree].
func NewTree() *Tree {
	return &Tree{
		Lists: make(map[string][]string),
		Dirs:  make(map[string]*Tree),
	}
}

// Keys returns the sorted keys of all wordlists and subdirectories.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, len(t.Lists)+len(t.Dirs))
	for key := range t.Lists {
		keys = append(keys, key)
	}
	for key := range t.Dirs {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}

// Len returns the number of wordlists in the [Tree] and all subdirectories.
func (t *Tree) Len() int {
	n := len(t.Lists)
	for _, dir := range t.Dirs {
		n += dir.Len()
	}

	return n
}

// insert adds the words under the relative path given as its elements, with
// the last element being the file name.
func (t *Tree) insert(elems []string, words []string) error {
	node := t

	for _, dir := range elems[:len(elems)-1] {
		if _, ok := node.Lists[dir]; ok {
			return fmt.Errorf("%w: %q", ErrKeyConflict, dir)
		}

		next, ok := node.Dirs[dir]
		if !ok {
			next = NewTree()
			node.Dirs[dir] = next
		}
		node = next
	}

	key := strings.TrimSuffix(elems[len(elems)-1], checker.TextSuffix)
	if _, ok := node.Dirs[key]; ok {
		return fmt.Errorf("%w: %q", ErrKeyConflict, key)
	}
	node.Lists[key] = words

	return nil
}

// MarshalJSON encodes the [Tree] as one JSON object holding both wordlists
// (as arrays) and subdirectories (as nested objects).
func (t *Tree) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(t.Lists)+len(t.Dirs))
	for key, words := range t.Lists {
		obj[key] = words
	}
	for key, dir := range t.Dirs {
		obj[key] = dir
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(obj); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ParseWordlist splits content into its lines, trimming surrounding
// whitespace from each. Blank lines are kept as empty words, but a final
// newline does not start another line.
func ParseWordlist(content string) []string {
	if content == "" {
		return []string{}
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return lines
}
