package ports

import "context"

// Task is a unit of fire-and-forget work.
type Task func(ctx context.Context) error

// TaskScheduler runs tasks in the background. Failures are logged, never retried.
type TaskScheduler interface {
	// Schedule queues the task and reports whether it was accepted.
	Schedule(name string, task Task) bool
}
