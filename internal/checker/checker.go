// Package checker implements the per-file duplicate line detection.
package checker

import (
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

type osProvider interface {
	ReadFile(name string) ([]byte, error)
}

// Report describes a single file containing duplicate lines.
type Report struct {
	// Name is the base name of the file.
	Name string

	// Path is the full path of the file.
	Path string

	// Duplicates holds every line value occurring more than once. The order
	// is not defined and must be normalized before comparison.
	Duplicates []string

	// Counts holds the occurrence count of every duplicated line value.
	Counts map[string]int

	// Lines is the number of filtered (non-empty) lines.
	Lines int

	// Distinct is the number of distinct line values.
	Distinct int

	// Size is the size of the read content in bytes.
	Size int
}

// result is what the content cache retains of a file with duplicates. Only
// the duplicated values and their counts are kept, never the full multiset.
type result struct {
	duplicates []string
	counts     map[string]int
	lines      int
	distinct   int
}

// Handler is the principal implementation of the duplicate line checker. It
// is safe for concurrent use.
type Handler struct {
	osHandler osProvider

	cacheLock sync.RWMutex
	cache     map[[32]byte]*result

	bytesRead atomic.Uint64
	cacheHits atomic.Uint64
}

// NewHandler returns a pointer to a new duplicate line checker [Handler].
func NewHandler(osHandler osProvider) *Handler {
	return &Handler{
		osHandler: osHandler,
		cache:     make(map[[32]byte]*result),
	}
}

// Check reads the file at path and returns a [Report] if it contains
// duplicate lines. Paths not ending in [TextSuffix] are not read and return
// neither a [Report] nor an error, same as files without duplicates. A file
// that cannot be read returns a [ReadError].
func (c *Handler) Check(path string) (*Report, error) {
	if !IsCandidate(path) {
		return nil, nil //nolint:nilnil
	}

	data, err := c.osHandler.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	c.bytesRead.Add(uint64(len(data)))

	res := c.evaluate(data)
	if len(res.duplicates) == 0 {
		return nil, nil //nolint:nilnil
	}

	return &Report{
		Name:       filepath.Base(path),
		Path:       path,
		Duplicates: slices.Clone(res.duplicates),
		Counts:     maps.Clone(res.counts),
		Lines:      res.lines,
		Distinct:   res.distinct,
		Size:       len(data),
	}, nil
}

// BytesRead returns the total amount of bytes read by the [Handler].
func (c *Handler) BytesRead() uint64 {
	return c.bytesRead.Load()
}

// CacheHits returns how many files had content identical to an earlier
// checked file with duplicates and were not counted again.
func (c *Handler) CacheHits() uint64 {
	return c.cacheHits.Load()
}

// evaluate returns the counting result for the content, consulting the
// content cache keyed by the BLAKE3 digest of the content first. Contents
// without duplicates are not cached.
func (c *Handler) evaluate(data []byte) *result {
	digest := blake3.Sum256(data)

	c.cacheLock.RLock()
	cached, ok := c.cache[digest]
	c.cacheLock.RUnlock()

	if ok {
		c.cacheHits.Add(1)

		return cached
	}

	lines := FilteredLines(string(data))
	duplicates, counts := FindDuplicates(lines)

	res := &result{
		lines:    len(lines),
		distinct: len(counts),
	}
	if len(duplicates) == 0 {
		return res
	}

	res.duplicates = duplicates
	res.counts = make(map[string]int, len(duplicates))
	for _, d := range duplicates {
		res.counts[d] = counts[d]
	}

	c.cacheLock.Lock()
	c.cache[digest] = res
	c.cacheLock.Unlock()

	return res
}

// cacheStats returns the number of cached contents and the number of line
// values retained across them.
func (c *Handler) cacheStats() (entries int, values int) {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()

	for _, res := range c.cache {
		values += len(res.counts)
	}

	return len(c.cache), values
}
