package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/bcfg/domain"
	"github.com/ludo-technologies/bcfg/internal/config"
	"github.com/ludo-technologies/bcfg/internal/testutil"
)

func newTestBuildService() *BuildServiceImpl {
	cfg := config.DefaultConfig()
	cfg.Performance.MaxGoroutines = 2
	return NewBuildService(cfg, zerolog.Nop())
}

func TestBuildService_Build(t *testing.T) {
	dir := t.TempDir()
	choose := testutil.WriteFixture(t, dir, "choose.yaml", testutil.ChooseFixture)
	retry := testutil.WriteFixture(t, dir, "retry.yaml", testutil.RetryFixture)

	resp, err := newTestBuildService().Build(context.Background(), domain.BuildRequest{
		Paths:         []string{retry, choose},
		Verify:        true,
		CheckValidity: true,
		ShowElements:  true,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if resp.Summary.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, expected 2", resp.Summary.FilesProcessed)
	}
	if resp.Summary.MethodsBuilt != 3 || resp.Summary.MethodsFailed != 0 {
		t.Errorf("MethodsBuilt = %d, MethodsFailed = %d", resp.Summary.MethodsBuilt, resp.Summary.MethodsFailed)
	}
	if resp.HasViolations() {
		t.Errorf("fresh graphs should have no violations: %+v", resp.Methods)
	}

	// Ordered by file, then by position in the file
	var names []string
	for _, m := range resp.Methods {
		names = append(names, m.Method)
	}
	if strings.Join(names, ",") != "Foo.choose,Foo.nothing,Bar.retry" {
		t.Errorf("unexpected method order %v", names)
	}

	chooseGraph := resp.Methods[0]
	if chooseGraph.FilePath != choose {
		t.Errorf("FilePath = %s, expected %s", chooseGraph.FilePath, choose)
	}
	if chooseGraph.Metrics.Blocks != 5 || chooseGraph.Metrics.Edges != 5 || chooseGraph.Metrics.Elements != 3 {
		t.Errorf("unexpected metrics %+v", chooseGraph.Metrics)
	}
	if resp.Methods[2].Metrics.EHContexts != 1 {
		t.Errorf("retry should use one handler context, got %d", resp.Methods[2].Metrics.EHContexts)
	}

	total := 0
	for _, m := range resp.Methods {
		total += m.Metrics.Blocks
	}
	if resp.Summary.TotalBlocks != total {
		t.Errorf("TotalBlocks = %d, expected %d", resp.Summary.TotalBlocks, total)
	}
	if resp.GeneratedAt == "" || resp.Version == "" {
		t.Error("response metadata should be set")
	}
}

func TestBuildService_DecodeFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	broken := testutil.WriteFixture(t, dir, "broken.yaml", testutil.BrokenFixture)
	choose := testutil.WriteFixture(t, dir, "choose.yaml", testutil.ChooseFixture)

	resp, err := newTestBuildService().Build(context.Background(), domain.BuildRequest{
		Paths: []string{broken, choose},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if resp.Summary.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, expected 1", resp.Summary.FilesProcessed)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], broken) {
		t.Errorf("expected one decode error naming the file, got %v", resp.Errors)
	}
	if resp.Summary.MethodsBuilt != 2 {
		t.Errorf("MethodsBuilt = %d, expected 2", resp.Summary.MethodsBuilt)
	}
}

func TestBuildService_BuildFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	bad := testutil.WriteFixture(t, dir, "bad.yaml", testutil.MalformedFixture)
	choose := testutil.WriteFixture(t, dir, "choose.yaml", testutil.ChooseFixture)

	resp, err := newTestBuildService().Build(context.Background(), domain.BuildRequest{
		Paths: []string{bad, choose},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if resp.Summary.MethodsFailed != 1 {
		t.Errorf("MethodsFailed = %d, expected 1", resp.Summary.MethodsFailed)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], "Baz.bad") {
		t.Errorf("expected one error naming the method, got %v", resp.Errors)
	}
	if resp.Summary.MethodsBuilt != 2 {
		t.Errorf("MethodsBuilt = %d, expected 2", resp.Summary.MethodsBuilt)
	}
}

func TestBuildService_FailFast(t *testing.T) {
	dir := t.TempDir()

	t.Run("decode", func(t *testing.T) {
		broken := testutil.WriteFixture(t, dir, "broken.yaml", testutil.BrokenFixture)
		_, err := newTestBuildService().Build(context.Background(), domain.BuildRequest{
			Paths:    []string{broken},
			FailFast: true,
		})
		var de domain.DomainError
		if !errors.As(err, &de) || de.Code != domain.ErrCodeParseError {
			t.Errorf("expected a parse error, got %v", err)
		}
	})

	t.Run("build", func(t *testing.T) {
		bad := testutil.WriteFixture(t, dir, "bad.yaml", testutil.MalformedFixture)
		_, err := newTestBuildService().Build(context.Background(), domain.BuildRequest{
			Paths:    []string{bad},
			FailFast: true,
		})
		var de domain.DomainError
		if !errors.As(err, &de) || de.Code != domain.ErrCodeBuildError {
			t.Errorf("expected a build error, got %v", err)
		}
	})
}

func TestBuildService_EmptyFileWarns(t *testing.T) {
	empty := testutil.WriteFixture(t, t.TempDir(), "empty.yaml", "")

	resp, err := newTestBuildService().Build(context.Background(), domain.BuildRequest{
		Paths: []string{empty},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", resp.Warnings)
	}
	if len(resp.Methods) != 0 {
		t.Errorf("expected no methods, got %d", len(resp.Methods))
	}
}

func TestBuildService_Cancelled(t *testing.T) {
	choose := testutil.WriteFixture(t, t.TempDir(), "choose.yaml", testutil.ChooseFixture)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBuildService().Build(ctx, domain.BuildRequest{Paths: []string{choose}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestBuildService_Progress(t *testing.T) {
	choose := testutil.WriteFixture(t, t.TempDir(), "choose.yaml", testutil.ChooseFixture)

	var started int
	pm := &mockProgressManager{
		startTaskFunc: func(description string, total int) domain.TaskProgress {
			started = total
			return &NoOpTaskProgress{}
		},
	}
	s := NewBuildServiceWithProgress(nil, zerolog.Nop(), pm)

	if _, err := s.Build(context.Background(), domain.BuildRequest{Paths: []string{choose}}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if started != 2 {
		t.Errorf("expected a task with 2 steps, got %d", started)
	}
}
