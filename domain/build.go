package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatDOT  OutputFormat = "dot"
)

// EdgeRole says why a block flows into another
type EdgeRole string

const (
	EdgeNext      EdgeRole = "next"
	EdgeTrue      EdgeRole = "true"
	EdgeFalse     EdgeRole = "false"
	EdgeDefault   EdgeRole = "default"
	EdgeCase      EdgeRole = "case"
	EdgeUnhandled EdgeRole = "unhandled"
	EdgeCatch     EdgeRole = "catch"
)

// BuildRequest represents a request to build graphs from fixture files
type BuildRequest struct {
	// Input files or directories
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string // File to write instead of OutputWriter
	ShowElements bool
	RankDir      string

	// Build options
	Verify        bool
	CheckValidity bool
	FailFast      bool

	// Configuration
	ConfigPath string

	// Input selection
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// Edge is one outgoing edge of a block
type Edge struct {
	Target int      `json:"target" yaml:"target"`
	Role   EdgeRole `json:"role" yaml:"role"`
}

// BlockInfo describes one block of a built graph
type BlockInfo struct {
	ID           int      `json:"id" yaml:"id"`
	Kind         string   `json:"kind" yaml:"kind"`
	Elements     []string `json:"elements,omitempty" yaml:"elements,omitempty"`
	Successors   []Edge   `json:"successors,omitempty" yaml:"successors,omitempty"`
	Predecessors []int    `json:"predecessors,omitempty" yaml:"predecessors,omitempty"`
	CaughtTypes  []string `json:"caught_types,omitempty" yaml:"caught_types,omitempty"`
	Inverted     bool     `json:"inverted,omitempty" yaml:"inverted,omitempty"`
}

// GraphMetrics are aggregate counts for one graph
type GraphMetrics struct {
	Blocks     int            `json:"blocks" yaml:"blocks"`
	Elements   int            `json:"elements" yaml:"elements"`
	Edges      int            `json:"edges" yaml:"edges"`
	EHContexts int            `json:"eh_contexts" yaml:"eh_contexts"`
	ByKind     map[string]int `json:"by_kind" yaml:"by_kind"`
}

// MethodGraph is the result of building one method
type MethodGraph struct {
	Method     string       `json:"method" yaml:"method"`
	FilePath   string       `json:"file_path" yaml:"file_path"`
	Metrics    GraphMetrics `json:"metrics" yaml:"metrics"`
	Blocks     []BlockInfo  `json:"blocks" yaml:"blocks"`
	Violations []string     `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// BuildSummary represents aggregate statistics
type BuildSummary struct {
	FilesProcessed int `json:"files_processed" yaml:"files_processed"`
	MethodsBuilt   int `json:"methods_built" yaml:"methods_built"`
	MethodsFailed  int `json:"methods_failed" yaml:"methods_failed"`
	TotalBlocks    int `json:"total_blocks" yaml:"total_blocks"`
	TotalElements  int `json:"total_elements" yaml:"total_elements"`
	TotalEdges     int `json:"total_edges" yaml:"total_edges"`
	Violations     int `json:"violations" yaml:"violations"`
}

// BuildResponse represents the complete build result
type BuildResponse struct {
	Methods []MethodGraph `json:"methods" yaml:"methods"`
	Summary BuildSummary  `json:"summary" yaml:"summary"`

	// Warnings and issues
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Metadata
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Version     string `json:"version" yaml:"version"`
	DurationMs  int64  `json:"duration_ms" yaml:"duration_ms"`
}

// HasViolations reports whether any built graph failed a check
func (r *BuildResponse) HasViolations() bool {
	return r.Summary.Violations > 0
}

// BuildService defines the core logic of turning fixture files into graphs
type BuildService interface {
	// Build builds every method of every file in req.Paths
	Build(ctx context.Context, req BuildRequest) (*BuildResponse, error)
}

// FixtureReader collects and reads fixture files
type FixtureReader interface {
	// CollectFixtureFiles finds every fixture file under paths
	CollectFixtureFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// FileExists checks if a regular file exists
	FileExists(path string) (bool, error)
}

// OutputFormatter defines the interface for formatting build results
type OutputFormatter interface {
	// Format formats the response according to the specified format
	Format(response *BuildResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *BuildResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader defines the interface for loading configuration
type ConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*BuildRequest, error)

	// LoadDefaultConfig loads the default configuration
	LoadDefaultConfig() *BuildRequest

	// MergeConfig merges CLI flags with configuration file
	MergeConfig(base *BuildRequest, override *BuildRequest) *BuildRequest
}
