package domain

// CheckResult represents the result of a check run
type CheckResult struct {
	Passed      bool             `json:"passed"`
	ExitCode    int              `json:"exit_code"`
	Violations  []CheckViolation `json:"violations"`
	Summary     CheckSummary     `json:"summary"`
	Duration    int64            `json:"duration_ms"`
	GeneratedAt string           `json:"generated_at"`
	Version     string           `json:"version"`
}

// CheckViolation represents a single failed check
type CheckViolation struct {
	Category string `json:"category"`           // build, validity
	Rule     string `json:"rule"`               // no-build-error, valid-graph
	Severity string `json:"severity"`           // error, warning
	Message  string `json:"message"`            // Human-readable description
	Location string `json:"location,omitempty"` // file#method if applicable
}

// CheckSummary provides aggregate statistics
type CheckSummary struct {
	FilesChecked    int `json:"files_checked"`
	MethodsChecked  int `json:"methods_checked"`
	TotalViolations int `json:"total_violations"`
	BuildErrors     int `json:"build_errors"`
	InvalidGraphs   int `json:"invalid_graphs"`
}

// AddViolation records v and marks the result failed
func (r *CheckResult) AddViolation(v CheckViolation) {
	r.Violations = append(r.Violations, v)
	r.Summary.TotalViolations++
	if v.Severity == "error" {
		r.Passed = false
	}
}
