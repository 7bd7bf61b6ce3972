package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/bcfg/app"
	"github.com/ludo-technologies/bcfg/domain"
	"github.com/ludo-technologies/bcfg/internal/config"
	"github.com/ludo-technologies/bcfg/internal/logging"
	"github.com/ludo-technologies/bcfg/service"
)

var (
	buildFormat       string
	buildJSON         bool
	buildOutputPath   string
	buildConfigPath   string
	buildShowElements bool
	buildVerify       bool
	buildCheck        bool
	buildRecursive    bool
	buildRankDir      string
	buildNoLegend     bool
	buildVerbose      bool
	buildFailFast     bool
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [path...]",
		Short: "Build control flow graphs from fixture files",
		Long: `Build the basic-block control flow graph of every method in the given
fixture files and print them.

Examples:
  bcfg build fixtures/
  bcfg build --show-elements Foo.yaml
  bcfg build --format dot -o cfg.dot fixtures/
  bcfg build --json --fail-fast fixtures/`,
		RunE: runBuild,
	}

	cmd.Flags().StringVarP(&buildFormat, "format", "f", "",
		"Output format: text, json, yaml, dot (default from config)")
	cmd.Flags().BoolVar(&buildJSON, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().StringVarP(&buildOutputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().StringVarP(&buildConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVar(&buildShowElements, "show-elements", false,
		"Include the elements of every block")
	cmd.Flags().BoolVar(&buildVerify, "verify", true,
		"Verify every graph after building it")
	cmd.Flags().BoolVar(&buildCheck, "check-validity", true,
		"Report per-block validity violations")
	cmd.Flags().BoolVarP(&buildRecursive, "recursive", "r", true,
		"Descend into directories")
	cmd.Flags().StringVar(&buildRankDir, "rank-dir", "",
		"DOT layout direction: TB, LR, BT, RL")
	cmd.Flags().BoolVar(&buildNoLegend, "no-legend", false,
		"Omit the legend from DOT output")
	cmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false,
		"Enable debug logging")
	cmd.Flags().BoolVar(&buildFailFast, "fail-fast", false,
		"Stop at the first file or method that cannot be built")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no paths specified")
	}

	override := &domain.BuildRequest{
		OutputFormat: domain.OutputFormat(buildFormat),
		OutputPath:   buildOutputPath,
		RankDir:      buildRankDir,
	}
	if buildJSON {
		override.OutputFormat = domain.OutputFormatJSON
	}

	cfg, req, err := loadBuildRequest(cmd, buildConfigPath, args, override)
	if err != nil {
		return err
	}
	req.OutputWriter = cmd.OutOrStdout()

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr(), buildVerbose)
	if err != nil {
		return domain.NewConfigError("invalid logging configuration", err)
	}

	// Progress bars only when stdout is not a machine-readable stream
	pm := service.NewProgressManager(req.OutputFormat == domain.OutputFormatText || req.OutputPath != "")
	defer pm.Close()

	uc, err := newBuildUseCase(cfg, req, logger, pm)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	if _, err := uc.Execute(ctx, *req); err != nil {
		return err
	}

	if req.OutputPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", req.OutputPath)
	}
	return nil
}

// loadBuildRequest resolves the configuration for the first path and lays
// the command line over it. Boolean flags win only when given explicitly.
func loadBuildRequest(cmd *cobra.Command, configPath string, paths []string, override *domain.BuildRequest) (*config.Config, *domain.BuildRequest, error) {
	cfg, err := config.LoadConfigWithTarget(configPath, paths[0])
	if err != nil {
		return nil, nil, domain.NewConfigError("failed to load configuration", err)
	}

	loader := service.NewConfigurationLoaderWithTarget(paths[0])
	override.Paths = paths
	override.ConfigPath = configPath
	req := loader.MergeConfig(service.ConvertToBuildRequest(cfg), override)

	applyBoolFlag(cmd, "show-elements", &req.ShowElements)
	applyBoolFlag(cmd, "verify", &req.Verify)
	applyBoolFlag(cmd, "check-validity", &req.CheckValidity)
	applyBoolFlag(cmd, "recursive", &req.Recursive)
	applyBoolFlag(cmd, "fail-fast", &req.FailFast)

	if err := loader.ValidateConfig(req); err != nil {
		return nil, nil, domain.NewInvalidInputError("invalid options", err)
	}
	return cfg, req, nil
}

// applyBoolFlag copies a boolean flag into dst when it was set on the
// command line
func applyBoolFlag(cmd *cobra.Command, name string, dst *bool) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return
	}
	if v, err := cmd.Flags().GetBool(name); err == nil {
		*dst = v
	}
}

// newBuildUseCase wires the build service, formatter and use case
func newBuildUseCase(cfg *config.Config, req *domain.BuildRequest, logger zerolog.Logger, pm domain.ProgressManager) (*app.BuildUseCase, error) {
	svc := service.NewBuildServiceWithProgress(cfg, logger, pm)

	dotConfig := service.DefaultDOTFormatterConfig()
	dotConfig.ShowElements = req.ShowElements
	dotConfig.ShowLegend = !buildNoLegend
	if req.RankDir != "" {
		dotConfig.RankDir = req.RankDir
	}
	formatter := service.NewOutputFormatterWithDOT(dotConfig)

	return app.NewBuildUseCaseBuilder().
		WithService(svc).
		WithFormatter(formatter).
		WithOutputDirectory(cfg.Output.Directory).
		Build()
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
