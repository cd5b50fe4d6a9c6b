package scan

import (
	"time"

	"github.com/desertwitch/linedup/internal/queue"
	"github.com/dustin/go-humanize"
)

// Progress is a point-in-time snapshot of a running [Scanner].
type Progress struct {
	Tasks queue.Progress

	Visited         uint64
	Checked         uint64
	Reports         uint64
	ReadErrors      uint64
	TraversalErrors uint64
	BytesRead       uint64
}

// Summary describes a finished (or aborted) scan.
type Summary struct {
	ID         string
	Root       string
	StartTime  time.Time
	FinishTime time.Time

	// Visited is the number of non-directory entries found by the walk.
	Visited uint64

	// Checked is the number of text files dispatched for checking.
	Checked uint64

	// Skipped is the number of visited files not ending in ".txt".
	Skipped uint64

	Reports         uint64
	ReadErrors      uint64
	TraversalErrors uint64
	BytesRead       uint64
	CacheHits       uint64
}

// Duration returns the wall time of the scan.
func (s *Summary) Duration() time.Duration {
	if s.FinishTime.IsZero() {
		return time.Since(s.StartTime)
	}

	return s.FinishTime.Sub(s.StartTime)
}

// LogAttrs returns the [Summary] as key/value pairs for structured logging.
func (s *Summary) LogAttrs() []any {
	return []any{
		"id", s.ID,
		"root", s.Root,
		"visited", humanize.Comma(int64(s.Visited)), //nolint:gosec
		"checked", humanize.Comma(int64(s.Checked)), //nolint:gosec
		"duplicates", s.Reports,
		"readErrors", s.ReadErrors,
		"traversalErrors", s.TraversalErrors,
		"read", humanize.IBytes(s.BytesRead),
		"cacheHits", s.CacheHits,
		"took", s.Duration().Round(time.Millisecond).String(),
	}
}
