package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewTaskManager_Success tests the factory function.
func TestNewTaskManager_Success(t *testing.T) {
	t.Parallel()

	tm := NewTaskManager(4)
	require.NotNil(t, tm, "NewTaskManager() should return a non-nil value")
	assert.Equal(t, 4, cap(tm.semaphore), "NewTaskManager() should size the semaphore by maxWorkers")

	p := tm.Progress()
	assert.False(t, p.HasStarted)
	assert.Zero(t, p.TotalTasks)
}

// TestNewTaskManager_Success_MinimumWorkers tests that invalid worker counts
// fall back to a single worker.
func TestNewTaskManager_Success_MinimumWorkers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, cap(NewTaskManager(0).semaphore))
	assert.Equal(t, 1, cap(NewTaskManager(-5).semaphore))
}

// TestTaskManagerGo_Fail_NilTask tests that nil tasks are rejected.
func TestTaskManagerGo_Fail_NilTask(t *testing.T) {
	t.Parallel()

	tm := NewTaskManager(1)
	err := tm.Go(t.Context(), nil)
	require.ErrorIs(t, err, ErrNilTask)
	assert.Zero(t, tm.Progress().TotalTasks)
}

// TestTaskManagerGo_Success_NonBlocking tests that dispatching returns before
// the dispatched tasks have finished.
func TestTaskManagerGo_Success_NonBlocking(t *testing.T) {
	t.Parallel()

	tm := NewTaskManager(1)
	release := make(chan struct{})

	var executed atomic.Int32
	for range 5 {
		require.NoError(t, tm.Go(t.Context(), func(context.Context) {
			<-release
			executed.Add(1)
		}))
	}

	assert.Zero(t, executed.Load(), "Go should not wait for tasks to finish")
	assert.Equal(t, 5, tm.Progress().TotalTasks)

	close(release)
	require.NoError(t, tm.Wait(t.Context()))
	assert.Equal(t, int32(5), executed.Load(), "Wait should join all dispatched tasks")
}

// TestTaskManagerWait_Success tests that all tasks are joined and progress is
// complete afterwards.
func TestTaskManagerWait_Success(t *testing.T) {
	t.Parallel()

	tm := NewTaskManager(3)
	require.NoError(t, tm.Wait(t.Context()), "Wait should not return an error without tasks")

	var counter atomic.Int32
	for _, d := range []time.Duration{50, 30, 10} {
		require.NoError(t, tm.Go(t.Context(), func(context.Context) {
			time.Sleep(d * time.Millisecond)
			counter.Add(1)
		}))
	}

	require.NoError(t, tm.Wait(t.Context()))
	assert.Equal(t, int32(3), counter.Load(), "All tasks should have executed")

	p := tm.Progress()
	assert.True(t, p.HasStarted)
	assert.True(t, p.HasFinished)
	assert.Equal(t, 3, p.TotalTasks)
	assert.Equal(t, 3, p.FinishedTasks)
	assert.Zero(t, p.InFlightTasks)
	assert.InDelta(t, 100.0, p.ProgressPct, 0.001)
	assert.False(t, p.FinishTime.Before(p.StartTime))
}

// TestTaskManagerGo_Success_WorkerLimit tests the worker limit is respected.
func TestTaskManagerGo_Success_WorkerLimit(t *testing.T) {
	t.Parallel()

	tm := NewTaskManager(2)
	maxWorkers := int32(2)

	var inFlight atomic.Int32
	var peak atomic.Int32

	for range 50 {
		require.NoError(t, tm.Go(t.Context(), func(context.Context) {
			current := inFlight.Add(1)
			defer inFlight.Add(-1)

			for {
				old := peak.Load()
				if current <= old || peak.CompareAndSwap(old, current) {
					break
				}
			}

			time.Sleep(2 * time.Millisecond)
		}))
	}

	require.NoError(t, tm.Wait(t.Context()))
	assert.LessOrEqual(t, peak.Load(), maxWorkers,
		"Number of concurrently executing tasks should not exceed maxWorkers")
	assert.Equal(t, 50, tm.Progress().FinishedTasks)
}

// TestTaskManagerWait_Fail_CtxCancel tests in-flight context cancellation,
// where tasks not yet started are skipped.
func TestTaskManagerWait_Fail_CtxCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	tm := NewTaskManager(1)

	started := make(chan struct{})
	var executed atomic.Int32

	require.NoError(t, tm.Go(ctx, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		executed.Add(1)
	}))

	for range 9 {
		require.NoError(t, tm.Go(ctx, func(context.Context) {
			executed.Add(1)
		}))
	}

	<-started
	cancel()

	err := tm.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled, "Wait should return an error when context is canceled")
	assert.Equal(t, int32(1), executed.Load(), "Tasks waiting for a worker should be skipped")

	p := tm.Progress()
	assert.Equal(t, 10, p.TotalTasks)
	assert.Equal(t, 1, p.FinishedTasks)
	assert.Equal(t, 9, p.SkippedTasks)
	assert.True(t, p.HasFinished)
}

// TestNewProgress_Table tests the progress computation.
func TestNewProgress_Table(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		dispatched  int
		started     int
		finished    int
		skipped     int
		expectedPct float64
		inFlight    int
	}{
		{"Success_Empty", 0, 0, 0, 0, 0, 0},
		{"Success_Half", 4, 3, 2, 0, 50, 1},
		{"Success_WithSkipped", 4, 2, 2, 2, 100, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := newProgress(tc.dispatched, tc.started, tc.finished, tc.skipped)
			assert.InDelta(t, tc.expectedPct, p.ProgressPct, 0.001)
			assert.Equal(t, tc.inFlight, p.InFlightTasks)
		})
	}
}
