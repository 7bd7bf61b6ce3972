package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/bcfg/domain"
	"github.com/ludo-technologies/bcfg/internal/config"
)

// DefaultTimeout bounds a run when the config does not set a timeout
const DefaultTimeout = time.Duration(config.DefaultTimeoutSeconds) * time.Second

// TaskError represents a single task failure
type TaskError struct {
	TaskName string
	Err      error
}

// Error implements the error interface
func (e TaskError) Error() string {
	return fmt.Sprintf("[%s] %v", e.TaskName, e.Err)
}

// Unwrap returns the underlying error
func (e TaskError) Unwrap() error {
	return e.Err
}

// AggregatedError collects all task failures
type AggregatedError struct {
	Errors []TaskError
}

// Error implements the error interface
func (e *AggregatedError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d tasks failed:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Unwrap returns every task error for errors.Is and errors.As
func (e *AggregatedError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, te := range e.Errors {
		errs[i] = te
	}
	return errs
}

// ParallelExecutorImpl implements domain.ParallelExecutor on an errgroup
type ParallelExecutorImpl struct {
	mu             sync.RWMutex
	maxConcurrency int
	timeout        time.Duration
	failFast       bool
	progress       domain.ProgressManager
	logger         zerolog.Logger
}

// NewParallelExecutor creates a parallel executor with one worker per CPU
func NewParallelExecutor() *ParallelExecutorImpl {
	return NewParallelExecutorFromConfig(&config.PerformanceConfig{})
}

// NewParallelExecutorFromConfig creates a parallel executor from configuration
func NewParallelExecutorFromConfig(cfg *config.PerformanceConfig) *ParallelExecutorImpl {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ParallelExecutorImpl{
		maxConcurrency: cfg.Workers(),
		timeout:        timeout,
		logger:         zerolog.Nop(),
	}
}

// WithProgress reports one step per finished task to pm
func (e *ParallelExecutorImpl) WithProgress(pm domain.ProgressManager) *ParallelExecutorImpl {
	e.progress = pm
	return e
}

// WithFailFast cancels the remaining tasks after the first failure
func (e *ParallelExecutorImpl) WithFailFast(v bool) *ParallelExecutorImpl {
	e.failFast = v
	return e
}

// WithLogger sets the logger for task failures
func (e *ParallelExecutorImpl) WithLogger(l zerolog.Logger) *ParallelExecutorImpl {
	e.logger = l
	return e
}

// Execute runs the enabled tasks with the configured concurrency and
// timeout. Without fail-fast every task runs and all failures are
// returned together as an *AggregatedError.
func (e *ParallelExecutorImpl) Execute(ctx context.Context, tasks []domain.ExecutableTask) error {
	enabledTasks := filterEnabledTasks(tasks)
	if len(enabledTasks) == 0 {
		return nil
	}

	e.mu.RLock()
	maxConcurrency, timeout, failFast := e.maxConcurrency, e.timeout, e.failFast
	e.mu.RUnlock()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if e.progress != nil {
		task = e.progress.StartTask("Building graphs", len(enabledTasks))
	}
	defer task.Complete()

	g, gCtx := errgroup.WithContext(timeoutCtx)
	g.SetLimit(maxConcurrency)

	var errMu sync.Mutex
	var taskErrors []TaskError

	for _, t := range enabledTasks {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			task.Describe(t.Name())
			_, err := t.Execute(gCtx)
			task.Increment(1)

			if err == nil {
				return nil
			}
			e.logger.Debug().Str("task", t.Name()).Err(err).Msg("task failed")
			errMu.Lock()
			taskErrors = append(taskErrors, TaskError{TaskName: t.Name(), Err: err})
			errMu.Unlock()

			// A non-nil return cancels gCtx for the tasks still queued
			if failFast {
				return err
			}
			return nil
		})
	}

	waitErr := g.Wait()

	if len(taskErrors) > 0 {
		return &AggregatedError{Errors: taskErrors}
	}
	// Only cancellation or timeout is left
	if waitErr != nil {
		return waitErr
	}
	return timeoutCtx.Err()
}

// SetMaxConcurrency sets the maximum number of concurrent tasks
func (e *ParallelExecutorImpl) SetMaxConcurrency(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n > 0 {
		e.maxConcurrency = n
	}
}

// SetTimeout sets the timeout for all tasks
func (e *ParallelExecutorImpl) SetTimeout(timeout time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timeout > 0 {
		e.timeout = timeout
	}
}

// filterEnabledTasks returns only tasks where IsEnabled() returns true
func filterEnabledTasks(tasks []domain.ExecutableTask) []domain.ExecutableTask {
	enabled := make([]domain.ExecutableTask, 0, len(tasks))
	for _, t := range tasks {
		if t.IsEnabled() {
			enabled = append(enabled, t)
		}
	}
	return enabled
}
