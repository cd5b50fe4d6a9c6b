package queue

import "errors"

// ErrNilTask occurs when a nil function is passed to [TaskManager.Go].
var ErrNilTask = errors.New("task is nil")
