package domain

import "context"

// ProgressManager creates progress trackers for long-running work
type ProgressManager interface {
	// StartTask starts tracking a task with total steps
	StartTask(description string, total int) TaskProgress

	// IsInteractive reports whether progress is drawn
	IsInteractive() bool

	// Close finishes every task
	Close()
}

// TaskProgress tracks a single task
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}

// ExecutableTask is a unit of work for a ParallelExecutor
type ExecutableTask interface {
	// Name identifies the task in errors
	Name() string

	// Execute runs the task
	Execute(ctx context.Context) (any, error)

	// IsEnabled reports whether the task should run at all
	IsEnabled() bool
}

// ParallelExecutor runs tasks concurrently
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
}
