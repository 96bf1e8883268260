package infrastructure

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
)

const (
	// DefaultTaskBufferSize is the default number of queued tasks.
	DefaultTaskBufferSize = 100
	// DefaultTaskWorkers is the default number of tasks run concurrently.
	DefaultTaskWorkers = 4
	// taskTimeout bounds a single task's remote calls.
	taskTimeout = 30 * time.Second
)

// Compile-time check that TaskRunner implements ports.TaskScheduler.
var _ ports.TaskScheduler = (*TaskRunner)(nil)

type queuedTask struct {
	id   string
	name string
	run  ports.Task
}

// TaskRunner runs fire-and-forget tasks on a fixed pool of workers.
type TaskRunner struct {
	tasks chan queuedTask

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewTaskRunner creates a TaskRunner and starts its workers.
func NewTaskRunner(workers, bufferSize int) *TaskRunner {
	if workers <= 0 {
		workers = DefaultTaskWorkers
	}
	if bufferSize <= 0 {
		bufferSize = DefaultTaskBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	runner := &TaskRunner{
		tasks:  make(chan queuedTask, bufferSize),
		ctx:    ctx,
		cancel: cancel,
	}

	runner.wg.Add(workers)
	for range workers {
		go runner.work()
	}

	return runner
}

func (r *TaskRunner) work() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case task, ok := <-r.tasks:
			if !ok {
				return
			}
			r.run(task)
		}
	}
}

func (r *TaskRunner) run(task queuedTask) {
	ctx, cancel := context.WithTimeout(r.ctx, taskTimeout)
	defer cancel()

	if err := task.run(ctx); err != nil {
		slog.Error("task failed", "task_id", task.id, "task", task.name, "error", err)
		return
	}
	slog.Debug("task completed", "task_id", task.id, "task", task.name)
}

// Schedule queues a task.
// Non-blocking: if the buffer is full, the task is dropped with a warning.
func (r *TaskRunner) Schedule(name string, task ports.Task) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		slog.Warn("attempted to schedule on closed task runner", "task", name)
		return false
	}

	queued := queuedTask{id: uuid.NewString(), name: name, run: task}
	select {
	case r.tasks <- queued:
		slog.Debug("scheduled task", "task_id", queued.id, "task", name)
		return true
	default:
		slog.Warn("task buffer full, dropping task", "task", name)
		return false
	}
}

// Close stops accepting tasks, cancels running ones and waits for workers to exit.
func (r *TaskRunner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	close(r.tasks)
	r.wg.Wait()

	slog.Debug("task runner closed")
}
