// Package queue implements the joinable task dispatching used for file checks.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TaskManager dispatches tasks for asynchronous execution with an upper bound
// of concurrently running tasks. Dispatching never blocks the caller, so a
// producer (e.g. a directory walk) can continue while earlier tasks are still
// running. All dispatched tasks can be joined with [TaskManager.Wait].
//
// It is the responsibility of the task to ensure thread-safety for anything
// happening inside the task, with the [TaskManager] only guaranteeing
// thread-safety for itself.
type TaskManager struct {
	sync.RWMutex
	wg        sync.WaitGroup
	semaphore chan struct{}

	startTime  time.Time
	finishTime time.Time

	dispatched int
	started    int
	finished   int
	skipped    int
}

// NewTaskManager returns a pointer to a new [TaskManager] running at most
// maxWorkers tasks at the same time. Values below 1 are treated as 1.
func NewTaskManager(maxWorkers int) *TaskManager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	return &TaskManager{
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Go dispatches a task for asynchronous execution and returns immediately.
// The task receives the given context. Tasks which have not yet started when
// the context is canceled are skipped and never run.
func (t *TaskManager) Go(ctx context.Context, task func(ctx context.Context)) error {
	if task == nil {
		return fmt.Errorf("(queue-tasker) %w", ErrNilTask)
	}

	t.Lock()
	if t.dispatched == 0 {
		t.startTime = time.Now()
	}
	t.dispatched++
	t.finishTime = time.Time{}
	t.wg.Add(1)
	t.Unlock()

	go func() {
		defer t.wg.Done()

		select {
		case <-ctx.Done():
			t.markSkipped()

			return
		case t.semaphore <- struct{}{}:
		}
		defer func() { <-t.semaphore }()

		if ctx.Err() != nil {
			t.markSkipped()

			return
		}

		t.markStarted()
		defer t.markFinished()

		task(ctx)
	}()

	return nil
}

// Wait blocks until every dispatched task has either finished or been skipped.
// An error is only returned in case of a context cancellation, after all
// in-flight tasks have returned.
func (t *TaskManager) Wait(ctx context.Context) error {
	t.wg.Wait()

	if ctx.Err() != nil {
		return fmt.Errorf("(queue-tasker) %w", ctx.Err())
	}

	return nil
}

// Progress returns a snapshot of the [TaskManager]'s current [Progress].
func (t *TaskManager) Progress() Progress {
	t.RLock()
	defer t.RUnlock()

	p := newProgress(t.dispatched, t.started, t.finished, t.skipped)
	p.HasStarted = t.dispatched > 0
	p.HasFinished = !t.finishTime.IsZero()
	p.StartTime = t.startTime
	p.FinishTime = t.finishTime

	return p
}

func (t *TaskManager) markStarted() {
	t.Lock()
	defer t.Unlock()

	t.started++
}

func (t *TaskManager) markFinished() {
	t.Lock()
	defer t.Unlock()

	t.finished++
	t.checkFinished()
}

func (t *TaskManager) markSkipped() {
	t.Lock()
	defer t.Unlock()

	t.skipped++
	t.checkFinished()
}

// checkFinished records the finish time once no task remains outstanding.
// The caller must hold the lock.
func (t *TaskManager) checkFinished() {
	if t.finished+t.skipped == t.dispatched {
		t.finishTime = time.Now()
	}
}
