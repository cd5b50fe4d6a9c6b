package scan

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertwitch/linedup/internal/checker"
	"github.com/desertwitch/linedup/internal/filesystem"
	"github.com/desertwitch/linedup/internal/queue"
	"github.com/desertwitch/linedup/internal/report"
	"github.com/desertwitch/linedup/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnreadable = errors.New("permission denied")

// flakyOS wraps [schema.OS] and fails reads and listings for chosen paths.
type flakyOS struct {
	schema.OS
	failFiles map[string]struct{}
	failDirs  map[string]struct{}
}

func (f *flakyOS) ReadFile(name string) ([]byte, error) {
	if _, fail := f.failFiles[name]; fail {
		return nil, errUnreadable
	}

	return f.OS.ReadFile(name)
}

func (f *flakyOS) ReadDir(name string) ([]os.DirEntry, error) {
	if _, fail := f.failDirs[name]; fail {
		return nil, errUnreadable
	}

	return f.OS.ReadDir(name)
}

// slowChecker delays every check to verify that all checks are joined.
type slowChecker struct {
	delay    time.Duration
	finished atomic.Int32
}

func (c *slowChecker) Check(path string) (*checker.Report, error) {
	time.Sleep(c.delay)
	c.finished.Add(1)

	return &checker.Report{Name: filepath.Base(path), Path: path, Duplicates: []string{"late"}}, nil
}

func (*slowChecker) BytesRead() uint64 { return 0 }

func (*slowChecker) CacheHits() uint64 { return 0 }

type fixture struct {
	scanner *Scanner
	walker  *filesystem.Handler
	out     *bytes.Buffer
}

func newFixture(t *testing.T, osOps *flakyOS) *fixture {
	t.Helper()

	walker := filesystem.NewHandler(osOps)
	out := &bytes.Buffer{}

	scanner, err := NewScanner(walker, checker.NewHandler(osOps), queue.NewTaskManager(4), report.NewPrinter(out))
	require.NoError(t, err)
	walker.OnError = scanner.OnTraversalError

	return &fixture{scanner: scanner, walker: walker, out: out}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func outputLines(out *bytes.Buffer) []string {
	trimmed := strings.TrimSuffix(out.String(), "\n")
	if trimmed == "" {
		return nil
	}
	lines := strings.Split(trimmed, "\n")
	sort.Strings(lines)

	return lines
}

func lineFor(t *testing.T, lines []string, name string) string {
	t.Helper()

	for _, line := range lines {
		if strings.HasPrefix(line, "Duplicate in "+name+":") {
			return line
		}
	}
	t.Fatalf("no report for %s in %v", name, lines)

	return ""
}

// TestRun_Success_Properties runs a scan over a tree covering every
// detection property and verifies the reports.
func TestRun_Success_Properties(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"unique.txt":   "one\ntwo\nthree\n",
		"simple.txt":   "a\nb\na\n",
		"blank.txt":    "a\n\n\nb\n",
		"data.csv":     "a\na\n",
		"x/y/dup.txt":  "deep\ndeep\n",
		"multiple.txt": "a\nb\nb\nc\nc\nc\n",
	})

	f := newFixture(t, &flakyOS{})
	summary, err := f.scanner.Run(t.Context(), root)
	require.NoError(t, err)

	lines := outputLines(f.out)
	require.Len(t, lines, 3, "exactly three files contain duplicates")

	assert.Contains(t, lineFor(t, lines, "simple.txt"), "a")
	assert.Contains(t, lineFor(t, lines, "dup.txt"), "deep")

	multiple := lineFor(t, lines, "multiple.txt")
	assert.Contains(t, multiple, "b")
	assert.Contains(t, multiple, "c")

	out := f.out.String()
	assert.NotContains(t, out, "unique.txt")
	assert.NotContains(t, out, "blank.txt")
	assert.NotContains(t, out, "data.csv")
	assert.NotContains(t, out, root, "reports should name files by base name")

	assert.Equal(t, uint64(6), summary.Visited)
	assert.Equal(t, uint64(5), summary.Checked)
	assert.Equal(t, uint64(1), summary.Skipped)
	assert.Equal(t, uint64(3), summary.Reports)
	assert.Zero(t, summary.ReadErrors)
	assert.Zero(t, summary.TraversalErrors)
	assert.Positive(t, summary.BytesRead)
	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, root, summary.Root)
	assert.False(t, summary.FinishTime.Before(summary.StartTime))
}

// TestRun_Success_ReadErrorSkipped verifies that an unreadable file is
// counted and skipped without aborting the scan.
func TestRun_Success_ReadErrorSkipped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"locked.txt": "a\na\n",
		"open.txt":   "b\nb\n",
	})

	f := newFixture(t, &flakyOS{failFiles: map[string]struct{}{filepath.Join(root, "locked.txt"): {}}})
	summary, err := f.scanner.Run(t.Context(), root)
	require.NoError(t, err)

	lines := outputLines(f.out)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "open.txt")
	assert.Equal(t, uint64(1), summary.ReadErrors)
	assert.Equal(t, uint64(1), summary.Reports)
}

// TestRun_Success_TraversalErrorSkipped verifies that an unreadable
// subdirectory is counted and its siblings are still scanned.
func TestRun_Success_TraversalErrorSkipped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"bad/hidden.txt": "a\na\n",
		"good/dup.txt":   "b\nb\n",
	})

	f := newFixture(t, &flakyOS{failDirs: map[string]struct{}{filepath.Join(root, "bad"): {}}})
	summary, err := f.scanner.Run(t.Context(), root)
	require.NoError(t, err)

	lines := outputLines(f.out)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "dup.txt")
	assert.Equal(t, uint64(1), summary.TraversalErrors)
}

// TestRun_Fail_FailFast verifies that fail-fast turns a subtree error into a
// fatal scan error, while already dispatched checks are still joined.
func TestRun_Fail_FailFast(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/dup.txt":       "a\na\n",
		"b/hidden.txt":    "b\nb\n",
		"b/deeper/x.txt":  "x\n",
		"c/untouched.txt": "c\nc\n",
	})

	f := newFixture(t, &flakyOS{failDirs: map[string]struct{}{filepath.Join(root, "b"): {}}})
	f.walker.FailFast = true

	summary, err := f.scanner.Run(t.Context(), root)
	require.ErrorIs(t, err, errUnreadable)
	assert.True(t, filesystem.IsTraversalError(err))
	require.NotNil(t, summary)

	out := f.out.String()
	assert.Contains(t, out, "dup.txt", "checks dispatched before the failure should report")
	assert.NotContains(t, out, "untouched.txt", "the walk should halt at the failure")
}

// TestRun_Fail_RootMissing verifies that a missing root is fatal.
func TestRun_Fail_RootMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &flakyOS{})
	summary, err := f.scanner.Run(t.Context(), filepath.Join(t.TempDir(), "missing"))

	require.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, filesystem.IsTraversalError(err))
	require.NotNil(t, summary)
	assert.Zero(t, summary.Visited)
	assert.Empty(t, f.out.String())
}

// TestRun_Success_JoinsAllChecks verifies that Run does not return before
// every asynchronous check has reported.
func TestRun_Success_JoinsAllChecks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files[filepath.Join(name, name+".txt")] = "z\n"
	}
	writeTree(t, root, files)

	slow := &slowChecker{delay: 20 * time.Millisecond}
	out := &bytes.Buffer{}

	scanner, err := NewScanner(filesystem.NewHandler(&schema.OS{}), slow, queue.NewTaskManager(2), report.NewPrinter(out))
	require.NoError(t, err)

	summary, err := scanner.Run(t.Context(), root)
	require.NoError(t, err)

	assert.Equal(t, int32(8), slow.finished.Load())
	assert.Len(t, outputLines(out), 8)
	assert.Equal(t, uint64(8), summary.Reports)

	p := scanner.Progress()
	assert.Equal(t, 8, p.Tasks.FinishedTasks)
	assert.Zero(t, p.Tasks.InFlightTasks)
}

// TestRun_Fail_CtxCancel verifies that a canceled scan returns the context
// error.
func TestRun_Fail_CtxCancel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a\na\n"})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	f := newFixture(t, &flakyOS{})
	_, err := f.scanner.Run(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.out.String())
}

// TestNewScanner_Fail_NilDependency verifies that all dependencies are
// required.
func TestNewScanner_Fail_NilDependency(t *testing.T) {
	t.Parallel()

	_, err := NewScanner(nil, checker.NewHandler(&schema.OS{}), queue.NewTaskManager(1), report.NewPrinter(&bytes.Buffer{}))
	require.ErrorIs(t, err, ErrNilDependency)
}

// TestSummaryLogAttrs_Success verifies the structured summary output.
func TestSummaryLogAttrs_Success(t *testing.T) {
	t.Parallel()

	start := time.Now()
	s := &Summary{
		ID:         "id",
		Root:       "/r",
		StartTime:  start,
		FinishTime: start.Add(1500 * time.Millisecond),
		Visited:    12345,
		BytesRead:  2048,
		CacheHits:  3,
	}

	attrs := s.LogAttrs()
	require.Zero(t, len(attrs)%2, "attributes should be key/value pairs")

	values := map[any]any{}
	for i := 0; i < len(attrs); i += 2 {
		values[attrs[i]] = attrs[i+1]
	}

	assert.Equal(t, "12,345", values["visited"])
	assert.Equal(t, "2.0 KiB", values["read"])
	assert.Equal(t, uint64(3), values["cacheHits"])
	assert.Equal(t, "1.5s", values["took"])
	assert.Equal(t, 1500*time.Millisecond, s.Duration())
}
