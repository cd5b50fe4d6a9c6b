package queue

import "time"

// Progress is a point-in-time snapshot of a [TaskManager].
type Progress struct {
	HasStarted  bool
	HasFinished bool
	StartTime   time.Time
	FinishTime  time.Time

	TotalTasks    int
	StartedTasks  int
	FinishedTasks int
	SkippedTasks  int
	InFlightTasks int

	ProgressPct float64
}

// newProgress computes a [Progress] from the raw task counters.
func newProgress(dispatched, started, finished, skipped int) Progress {
	p := Progress{
		TotalTasks:    dispatched,
		StartedTasks:  started,
		FinishedTasks: finished,
		SkippedTasks:  skipped,
		InFlightTasks: started - finished,
	}

	if dispatched > 0 {
		p.ProgressPct = float64(finished+skipped) / float64(dispatched) * 100 //nolint:mnd
	}

	return p
}
