// Package scan composes the directory walk and the duplicate line checks into
// a single pass over a directory tree.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/desertwitch/linedup/internal/checker"
	"github.com/desertwitch/linedup/internal/filesystem"
	"github.com/desertwitch/linedup/internal/queue"
	"github.com/google/uuid"
)

type walkProvider interface {
	Walk(ctx context.Context, root string, visit func(path string)) error
}

type checkProvider interface {
	Check(path string) (*checker.Report, error)
	BytesRead() uint64
	CacheHits() uint64
}

type taskProvider interface {
	Go(ctx context.Context, task func(ctx context.Context)) error
	Wait(ctx context.Context) error
	Progress() queue.Progress
}

type reportProvider interface {
	Print(r *checker.Report) error
}

// Scanner is the principal implementation of a duplicate line scan.
type Scanner struct {
	walkHandler   walkProvider
	checkHandler  checkProvider
	taskHandler   taskProvider
	reportHandler reportProvider

	visited         atomic.Uint64
	checked         atomic.Uint64
	skipped         atomic.Uint64
	reports         atomic.Uint64
	readErrors      atomic.Uint64
	traversalErrors atomic.Uint64
}

// NewScanner returns a pointer to a new [Scanner].
func NewScanner(walkHandler walkProvider, checkHandler checkProvider, taskHandler taskProvider, reportHandler reportProvider) (*Scanner, error) {
	if walkHandler == nil || checkHandler == nil || taskHandler == nil || reportHandler == nil {
		return nil, fmt.Errorf("(scan) %w", ErrNilDependency)
	}

	return &Scanner{
		walkHandler:   walkHandler,
		checkHandler:  checkHandler,
		taskHandler:   taskHandler,
		reportHandler: reportHandler,
	}, nil
}

// Run walks the directory tree at root and checks every text file found for
// duplicate lines, printing a report for each file containing any. The checks
// run asynchronously to the walk, but Run always joins all of them before
// returning.
//
// Unreadable files are logged and skipped. An error is only returned for a
// fatal traversal error or a context cancellation, in which case the returned
// [Summary] still covers the work done until then.
func (s *Scanner) Run(ctx context.Context, root string) (*Summary, error) {
	summary := &Summary{
		ID:        uuid.NewString(),
		Root:      root,
		StartTime: time.Now(),
	}

	slog.Debug("Scan started:", "id", summary.ID, "root", root)

	walkErr := s.walkHandler.Walk(ctx, root, func(path string) {
		s.visited.Add(1)

		if !checker.IsCandidate(path) {
			s.skipped.Add(1)

			return
		}

		s.checked.Add(1)
		if err := s.taskHandler.Go(ctx, func(context.Context) { s.check(path) }); err != nil {
			slog.Error("Skipped file: failed to dispatch check",
				"path", path,
				"err", err,
			)
		}
	})

	waitErr := s.taskHandler.Wait(ctx)
	s.fillSummary(summary)

	if walkErr != nil {
		return summary, fmt.Errorf("(scan) %w", walkErr)
	}

	if waitErr != nil {
		return summary, fmt.Errorf("(scan) %w", waitErr)
	}

	return summary, nil
}

// OnTraversalError records and logs a non-fatal [filesystem.TraversalError].
// It is meant to be set as the walker's error callback.
func (s *Scanner) OnTraversalError(err *filesystem.TraversalError) {
	s.traversalErrors.Add(1)

	slog.Warn("Skipped directory: failed to list contents",
		"path", err.Path,
		"err", err.Err,
	)
}

// Progress returns a snapshot of the scan's current [Progress].
func (s *Scanner) Progress() Progress {
	return Progress{
		Tasks:           s.taskHandler.Progress(),
		Visited:         s.visited.Load(),
		Checked:         s.checked.Load(),
		Reports:         s.reports.Load(),
		ReadErrors:      s.readErrors.Load(),
		TraversalErrors: s.traversalErrors.Load(),
		BytesRead:       s.checkHandler.BytesRead(),
	}
}

func (s *Scanner) check(path string) {
	report, err := s.checkHandler.Check(path)
	if err != nil {
		s.readErrors.Add(1)

		slog.Warn("Skipped file: failed to read",
			"path", path,
			"err", err,
		)

		return
	}

	if report == nil {
		return
	}

	s.reports.Add(1)

	slog.Debug("Duplicates found:",
		"path", report.Path,
		"values", len(report.Duplicates),
		"lines", report.Lines,
		"distinct", report.Distinct,
	)

	if err := s.reportHandler.Print(report); err != nil {
		slog.Error("Failed to print report",
			"path", path,
			"err", err,
		)
	}
}

func (s *Scanner) fillSummary(summary *Summary) {
	summary.FinishTime = time.Now()
	summary.Visited = s.visited.Load()
	summary.Checked = s.checked.Load()
	summary.Skipped = s.skipped.Load()
	summary.Reports = s.reports.Load()
	summary.ReadErrors = s.readErrors.Load()
	summary.TraversalErrors = s.traversalErrors.Load()
	summary.BytesRead = s.checkHandler.BytesRead()
	summary.CacheHits = s.checkHandler.CacheHits()
}
