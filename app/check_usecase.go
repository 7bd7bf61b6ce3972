package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ludo-technologies/bcfg/domain"
	"github.com/ludo-technologies/bcfg/internal/constants"
	"github.com/ludo-technologies/bcfg/internal/version"
)

// CheckUseCase builds every fixture with validity checking on and turns
// the outcome into a pass/fail result for CI
type CheckUseCase struct {
	build *BuildUseCase
}

// NewCheckUseCase creates a check use case on top of a build use case
func NewCheckUseCase(build *BuildUseCase) *CheckUseCase {
	return &CheckUseCase{build: build}
}

// Execute runs the check. A returned error means the check itself could not
// run; graph problems are reported through the result.
func (uc *CheckUseCase) Execute(ctx context.Context, req domain.BuildRequest) (*domain.CheckResult, error) {
	start := time.Now()

	req.CheckValidity = true
	req.FailFast = false
	req.OutputWriter = nil
	req.OutputPath = ""

	resp, err := uc.build.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	result := EvaluateBuild(resp)
	result.Duration = time.Since(start).Milliseconds()
	return result, nil
}

// EvaluateBuild converts a build response into a check result
func EvaluateBuild(resp *domain.BuildResponse) *domain.CheckResult {
	result := &domain.CheckResult{
		Passed:      true,
		Violations:  []domain.CheckViolation{},
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.GetVersion(),
	}
	if resp == nil {
		return result
	}

	result.Summary.FilesChecked = resp.Summary.FilesProcessed
	result.Summary.MethodsChecked = resp.Summary.MethodsBuilt + resp.Summary.MethodsFailed

	for _, msg := range resp.Errors {
		result.Summary.BuildErrors++
		result.AddViolation(domain.CheckViolation{
			Category: "build",
			Rule:     "no-build-error",
			Severity: "error",
			Message:  msg,
		})
	}

	for _, m := range resp.Methods {
		if len(m.Violations) == 0 {
			continue
		}
		result.Summary.InvalidGraphs++
		for _, v := range m.Violations {
			result.AddViolation(domain.CheckViolation{
				Category: "validity",
				Rule:     "valid-graph",
				Severity: "error",
				Message:  v,
				Location: fmt.Sprintf("%s#%s", m.FilePath, m.Method),
			})
		}
	}

	for _, w := range resp.Warnings {
		result.AddViolation(domain.CheckViolation{
			Category: "input",
			Rule:     "has-methods",
			Severity: "warning",
			Message:  w,
		})
	}

	result.ExitCode = constants.ExitOK
	if !result.Passed {
		result.ExitCode = constants.ExitViolations
	}
	return result
}
