package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/bcfg/domain"
)

// BuildUseCase orchestrates the build workflow: collect fixture files,
// build their graphs and write the report
type BuildUseCase struct {
	service    domain.BuildService
	formatter  domain.OutputFormatter
	fileHelper *FileHelper
	outputDir  string
}

// NewBuildUseCase creates a new build use case
func NewBuildUseCase(service domain.BuildService, formatter domain.OutputFormatter) *BuildUseCase {
	return &BuildUseCase{
		service:    service,
		formatter:  formatter,
		fileHelper: NewFileHelper(),
	}
}

// Execute performs the complete build workflow
func (uc *BuildUseCase) Execute(ctx context.Context, req domain.BuildRequest) (*domain.BuildResponse, error) {
	// Validate input
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	// Resolve file paths
	files, err := ResolveFilePaths(
		uc.fileHelper,
		req.Paths,
		req.Recursive,
		req.IncludePatterns,
		req.ExcludePatterns,
	)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect files", err)
	}

	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no fixture files found in the specified paths", nil)
	}

	// Update request with collected files
	req.Paths = files

	response, err := uc.service.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := uc.writeOutput(response, req); err != nil {
		return nil, err
	}
	return response, nil
}

// BuildFile builds a single fixture file
func (uc *BuildUseCase) BuildFile(ctx context.Context, filePath string, req domain.BuildRequest) (*domain.BuildResponse, error) {
	if !uc.fileHelper.IsFixtureFile(filePath) {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("not a fixture file: %s", filePath), nil)
	}

	exists, err := uc.fileHelper.FileExists(filePath)
	if err != nil {
		return nil, domain.NewFileNotFoundError(filePath, err)
	}
	if !exists {
		return nil, domain.NewFileNotFoundError(filePath, fmt.Errorf("file does not exist"))
	}

	req.Paths = []string{filePath}
	return uc.Execute(ctx, req)
}

// writeOutput writes the formatted response to OutputPath, or to
// OutputWriter when no path is set
func (uc *BuildUseCase) writeOutput(response *domain.BuildResponse, req domain.BuildRequest) error {
	if uc.formatter == nil {
		return nil
	}

	var writer io.Writer = req.OutputWriter
	if req.OutputPath != "" {
		path := req.OutputPath
		if uc.outputDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(uc.outputDir, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return domain.NewOutputError("failed to create output directory", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return domain.NewOutputError("failed to create output file", err)
		}
		defer f.Close()
		writer = f
	}
	if writer == nil {
		return nil
	}

	if err := uc.formatter.Write(response, req.OutputFormat, writer); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}
	return nil
}

// validateRequest validates the build request
func (uc *BuildUseCase) validateRequest(req domain.BuildRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}

	switch req.OutputFormat {
	case domain.OutputFormatText, domain.OutputFormatJSON, domain.OutputFormatYAML, domain.OutputFormatDOT, "":
	default:
		return fmt.Errorf("unsupported output format: %s", req.OutputFormat)
	}

	if len(req.IncludePatterns) == 0 {
		return fmt.Errorf("include patterns cannot be empty")
	}

	return nil
}

// BuildUseCaseBuilder provides a builder pattern for creating BuildUseCase
type BuildUseCaseBuilder struct {
	service    domain.BuildService
	formatter  domain.OutputFormatter
	fileHelper *FileHelper
	outputDir  string
}

// NewBuildUseCaseBuilder creates a new builder
func NewBuildUseCaseBuilder() *BuildUseCaseBuilder {
	return &BuildUseCaseBuilder{}
}

// WithService sets the build service
func (b *BuildUseCaseBuilder) WithService(service domain.BuildService) *BuildUseCaseBuilder {
	b.service = service
	return b
}

// WithFormatter sets the output formatter
func (b *BuildUseCaseBuilder) WithFormatter(formatter domain.OutputFormatter) *BuildUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithFileHelper sets the file helper
func (b *BuildUseCaseBuilder) WithFileHelper(fileHelper *FileHelper) *BuildUseCaseBuilder {
	b.fileHelper = fileHelper
	return b
}

// WithOutputDirectory sets the directory for relative output paths
func (b *BuildUseCaseBuilder) WithOutputDirectory(dir string) *BuildUseCaseBuilder {
	b.outputDir = dir
	return b
}

// Build creates the BuildUseCase with the configured dependencies
func (b *BuildUseCaseBuilder) Build() (*BuildUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("build service is required")
	}

	uc := &BuildUseCase{
		service:    b.service,
		formatter:  b.formatter,
		fileHelper: b.fileHelper,
		outputDir:  b.outputDir,
	}

	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}

	return uc, nil
}
