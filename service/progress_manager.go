package service

import (
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/ludo-technologies/bcfg/domain"
)

// ciEnvVars mark non-interactive build environments
var ciEnvVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "JENKINS_URL", "TF_BUILD"}

// IsInteractiveEnvironment reports whether stderr is a terminal outside CI
func IsInteractiveEnvironment() bool {
	for _, v := range ciEnvVars {
		if os.Getenv(v) != "" {
			return false
		}
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// ProgressManagerImpl implements ProgressManager with interactive progress bars
type ProgressManagerImpl struct {
	writer io.Writer
	mu     sync.Mutex
	tasks  []*progressbar.ProgressBar
}

// NewProgressManager creates a new progress manager based on environment
func NewProgressManager(enabled bool) domain.ProgressManager {
	if enabled && IsInteractiveEnvironment() {
		return newProgressManager(os.Stderr)
	}
	return &NoOpProgressManager{}
}

func newProgressManager(w io.Writer) *ProgressManagerImpl {
	return &ProgressManagerImpl{writer: w}
}

// StartTask creates a new progress task with a description and total count
func (pm *ProgressManagerImpl) StartTask(description string, total int) domain.TaskProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(pm.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(18),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	pm.mu.Lock()
	pm.tasks = append(pm.tasks, bar)
	pm.mu.Unlock()
	return &TaskProgressImpl{bar: bar}
}

// IsInteractive returns true if progress bars should be shown
func (pm *ProgressManagerImpl) IsInteractive() bool {
	return true
}

// Close finishes all tasks
func (pm *ProgressManagerImpl) Close() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for _, bar := range pm.tasks {
		_ = bar.Finish()
	}
	pm.tasks = nil
}

// TaskProgressImpl implements TaskProgress with a progressbar. Workers
// report concurrently, so updates are serialized.
type TaskProgressImpl struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// Increment adds n to the current progress
func (tp *TaskProgressImpl) Increment(n int) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	_ = tp.bar.Add(n)
}

// Describe updates the current item description
func (tp *TaskProgressImpl) Describe(description string) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.bar.Describe(description)
}

// Complete marks the task as finished
func (tp *TaskProgressImpl) Complete() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	_ = tp.bar.Finish()
}

// NoOpProgressManager implements ProgressManager with no-op methods
type NoOpProgressManager struct{}

// StartTask returns a no-op task progress
func (pm *NoOpProgressManager) StartTask(_ string, _ int) domain.TaskProgress {
	return &NoOpTaskProgress{}
}

// IsInteractive returns false for no-op manager
func (pm *NoOpProgressManager) IsInteractive() bool {
	return false
}

// Close is a no-op
func (pm *NoOpProgressManager) Close() {}

// NoOpTaskProgress implements TaskProgress with no-op methods
type NoOpTaskProgress struct{}

func (tp *NoOpTaskProgress) Increment(_ int) {}
func (tp *NoOpTaskProgress) Describe(_ string) {}
func (tp *NoOpTaskProgress) Complete() {}
