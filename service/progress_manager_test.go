package service

import (
	"bytes"
	"testing"

	"github.com/ludo-technologies/bcfg/domain"
)

func TestNewProgressManager_NonInteractive(t *testing.T) {
	pm := NewProgressManager(false)
	if pm.IsInteractive() {
		t.Error("expected non-interactive progress manager when disabled")
	}

	var _ domain.ProgressManager = pm
}

func TestIsInteractiveEnvironment_CI(t *testing.T) {
	t.Setenv("CI", "true")
	if IsInteractiveEnvironment() {
		t.Error("CI environments should not be interactive")
	}
}

func TestNoOpProgressManager(t *testing.T) {
	pm := &NoOpProgressManager{}

	if pm.IsInteractive() {
		t.Error("expected NoOpProgressManager.IsInteractive() to return false")
	}

	task := pm.StartTask("test", 100)
	if task == nil {
		t.Fatal("expected non-nil task from StartTask")
	}

	task.Increment(10)
	task.Describe("testing")
	task.Complete()
	pm.Close()
}

func TestProgressManagerImpl_WritesBar(t *testing.T) {
	var buf bytes.Buffer
	pm := newProgressManager(&buf)

	task := pm.StartTask("Building graphs", 2)
	task.Describe("Foo.run")
	task.Increment(1)
	task.Increment(1)
	task.Complete()
	pm.Close()

	if buf.Len() == 0 {
		t.Error("expected progress output")
	}
	if !pm.IsInteractive() {
		t.Error("ProgressManagerImpl should be interactive")
	}
}

func TestProgressManagerImpl_Interface(t *testing.T) {
	var _ domain.ProgressManager = &ProgressManagerImpl{}
	var _ domain.TaskProgress = &TaskProgressImpl{}
	var _ domain.TaskProgress = &NoOpTaskProgress{}
}
