package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/ludo-technologies/bcfg/domain"
	"github.com/ludo-technologies/bcfg/internal/config"
	"github.com/ludo-technologies/bcfg/internal/ir"
	"github.com/ludo-technologies/bcfg/internal/ir/builder"
	"github.com/ludo-technologies/bcfg/internal/legacy"
	"github.com/ludo-technologies/bcfg/internal/version"
)

// BuildServiceImpl implements the BuildService interface
type BuildServiceImpl struct {
	config   *config.Config
	progress domain.ProgressManager
	logger   zerolog.Logger
}

// NewBuildService creates a new build service
func NewBuildService(cfg *config.Config, logger zerolog.Logger) *BuildServiceImpl {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &BuildServiceImpl{
		config: cfg,
		logger: logger,
	}
}

// NewBuildServiceWithProgress creates a new build service with progress reporting
func NewBuildServiceWithProgress(cfg *config.Config, logger zerolog.Logger, pm domain.ProgressManager) *BuildServiceImpl {
	s := NewBuildService(cfg, logger)
	s.progress = pm
	return s
}

// methodTask builds one method as a unit of the parallel executor
type methodTask struct {
	key     string
	file    string
	method  *legacy.Method
	builder *builder.Builder
	req     *domain.BuildRequest
	results cmap.ConcurrentMap[string, *domain.MethodGraph]
}

func (t *methodTask) Name() string { return t.method.QualifiedName() }
func (t *methodTask) IsEnabled() bool { return true }

func (t *methodTask) Execute(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := t.builder.Build(t.method)
	if err != nil {
		return nil, err
	}

	mg := DescribeGraph(g, t.file, t.req.ShowElements)
	if t.req.CheckValidity {
		mg.Violations = graphViolations(g)
	}
	t.results.Set(t.key, &mg)
	return &mg, nil
}

// graphViolations lists every validity and edge symmetry problem of g
func graphViolations(g *ir.Graph) []string {
	var out []string
	for _, b := range g.AllBlocksUnordered() {
		if b.Kind() == ir.KindEntry {
			continue
		}
		if err := b.CheckValidity(); err != nil {
			out = append(out, err.Error())
		}
	}
	if err := g.CheckEdgeSymmetry(); err != nil {
		out = append(out, err.Error())
	}
	return out
}

// Build decodes every fixture file in req.Paths and builds one graph per
// method. Files that fail to decode and methods that fail to build are
// reported in the response; with FailFast the first failure is returned
// as an error instead.
func (s *BuildServiceImpl) Build(ctx context.Context, req domain.BuildRequest) (*domain.BuildResponse, error) {
	start := time.Now()
	resp := &domain.BuildResponse{}

	b := builder.New(
		builder.WithLogger(s.logger),
		builder.WithVerify(req.Verify),
	)
	results := cmap.New[*domain.MethodGraph]()

	var tasks []domain.ExecutableTask
	for _, path := range req.Paths {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("build cancelled: %w", ctx.Err())
		default:
		}

		methods, err := legacy.DecodeFile(path)
		if err != nil {
			if req.FailFast {
				return nil, domain.NewParseError(path, err)
			}
			s.logger.Warn().Str("file", path).Err(err).Msg("failed to decode fixture")
			resp.Errors = append(resp.Errors, fmt.Sprintf("[%s] Failed to decode: %v", path, err))
			continue
		}
		resp.Summary.FilesProcessed++

		if len(methods) == 0 {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("[%s] No methods found", path))
			continue
		}
		for i, m := range methods {
			tasks = append(tasks, &methodTask{
				key:     resultKey(path, i),
				file:    path,
				method:  m,
				builder: b,
				req:     &req,
				results: results,
			})
		}
	}

	executor := NewParallelExecutorFromConfig(&s.config.Performance).
		WithFailFast(req.FailFast).
		WithLogger(s.logger)
	if s.progress != nil {
		executor.WithProgress(s.progress)
	}

	if err := executor.Execute(ctx, tasks); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("build cancelled: %w", ctx.Err())
		}
		var agg *AggregatedError
		if !errors.As(err, &agg) {
			return nil, fmt.Errorf("build cancelled: %w", err)
		}
		if req.FailFast {
			return nil, domain.NewBuildError("build failed", agg.Errors[0].Err)
		}
		for _, te := range agg.Errors {
			resp.Errors = append(resp.Errors, te.Error())
		}
		resp.Summary.MethodsFailed = len(agg.Errors)
	}

	keys := results.Keys()
	sort.Strings(keys)
	for _, k := range keys {
		mg, _ := results.Get(k)
		resp.Methods = append(resp.Methods, *mg)
	}

	s.summarize(resp)
	resp.GeneratedAt = time.Now().Format(time.RFC3339)
	resp.Version = version.GetVersion()
	resp.DurationMs = time.Since(start).Milliseconds()

	s.logger.Info().
		Int("files", resp.Summary.FilesProcessed).
		Int("methods", resp.Summary.MethodsBuilt).
		Int("failed", resp.Summary.MethodsFailed).
		Int64("duration_ms", resp.DurationMs).
		Msg("build finished")
	return resp, nil
}

// resultKey orders results by file and then by position within the file
func resultKey(path string, index int) string {
	return fmt.Sprintf("%s\x00%06d", path, index)
}

// summarize fills the totals of resp from its methods
func (s *BuildServiceImpl) summarize(resp *domain.BuildResponse) {
	sum := &resp.Summary
	sum.MethodsBuilt = len(resp.Methods)
	for _, m := range resp.Methods {
		sum.TotalBlocks += m.Metrics.Blocks
		sum.TotalElements += m.Metrics.Elements
		sum.TotalEdges += m.Metrics.Edges
		sum.Violations += len(m.Violations)
	}
}
