package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/bcfg/app"
	"github.com/ludo-technologies/bcfg/domain"
	"github.com/ludo-technologies/bcfg/internal/constants"
	"github.com/ludo-technologies/bcfg/internal/logging"
	"github.com/ludo-technologies/bcfg/service"
)

// CheckExitError is a custom error type for check command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

var (
	checkVerbose    bool
	checkJSON       bool
	checkConfigPath string
	checkRecursive  bool
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Build and check graphs for CI/CD pipelines",
		Long: `Build every method of the given fixture files and check each graph for
structural violations.

Exit codes:
  0 - All graphs are valid
  1 - A method failed to build or a graph is invalid
  2 - Check error (file not found, bad configuration, etc.)

Examples:
  # Basic check with defaults
  bcfg check fixtures/

  # JSON output for machine parsing
  bcfg check --json fixtures/`,
		RunE:          runCheck,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	cmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false,
		"Show detailed output")
	cmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output results as JSON")
	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVarP(&checkRecursive, "recursive", "r", true,
		"Descend into directories")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &CheckExitError{Code: constants.ExitError, Message: "no paths specified"}
	}

	cfg, req, err := loadBuildRequest(cmd, checkConfigPath, args, &domain.BuildRequest{})
	if err != nil {
		return &CheckExitError{Code: constants.ExitError, Message: err.Error()}
	}

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr(), false)
	if err != nil {
		return &CheckExitError{Code: constants.ExitError, Message: fmt.Sprintf("invalid logging configuration: %v", err)}
	}

	// Create progress manager (auto-disabled for JSON output or non-TTY/CI)
	pm := service.NewProgressManager(!checkJSON)
	defer pm.Close()

	build, err := app.NewBuildUseCaseBuilder().
		WithService(service.NewBuildServiceWithProgress(cfg, logger, pm)).
		Build()
	if err != nil {
		return &CheckExitError{Code: constants.ExitError, Message: err.Error()}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	result, err := app.NewCheckUseCase(build).Execute(ctx, *req)
	if err != nil {
		return &CheckExitError{Code: constants.ExitError, Message: err.Error()}
	}

	return outputCheckResult(cmd.OutOrStdout(), result)
}

func outputCheckResult(w io.Writer, result *domain.CheckResult) error {
	if checkJSON {
		return outputCheckJSON(w, result)
	}
	return outputCheckText(w, result)
}

func outputCheckText(w io.Writer, result *domain.CheckResult) error {
	if result.Passed {
		fmt.Fprintln(w, "PASS: All graphs are valid")
		if checkVerbose {
			fmt.Fprintf(w, "  Files checked: %d\n", result.Summary.FilesChecked)
			fmt.Fprintf(w, "  Methods checked: %d\n", result.Summary.MethodsChecked)
			fmt.Fprintf(w, "  Duration: %dms\n", result.Duration)
		}
		printWarnings(w, result)
		return nil
	}

	fmt.Fprintln(w, "FAIL: Graph check failed")
	fmt.Fprintf(w, "  Violations: %d\n", result.Summary.TotalViolations)

	for _, v := range result.Violations {
		if v.Severity != "error" {
			continue
		}
		fmt.Fprintf(w, "  [ERROR] %s: %s\n", v.Category, v.Message)
		if checkVerbose && v.Location != "" {
			fmt.Fprintf(w, "         at %s\n", v.Location)
		}
	}
	printWarnings(w, result)

	if checkVerbose {
		fmt.Fprintf(w, "\nSummary:\n")
		fmt.Fprintf(w, "  Files: %d\n", result.Summary.FilesChecked)
		fmt.Fprintf(w, "  Methods: %d\n", result.Summary.MethodsChecked)
		fmt.Fprintf(w, "  Build errors: %d\n", result.Summary.BuildErrors)
		fmt.Fprintf(w, "  Invalid graphs: %d\n", result.Summary.InvalidGraphs)
		fmt.Fprintf(w, "  Duration: %dms\n", result.Duration)
	}

	return &CheckExitError{Code: result.ExitCode, Message: ""}
}

func printWarnings(w io.Writer, result *domain.CheckResult) {
	if !checkVerbose {
		return
	}
	for _, v := range result.Violations {
		if v.Severity == "warning" {
			fmt.Fprintf(w, "  [WARN] %s: %s\n", v.Category, v.Message)
		}
	}
}

func outputCheckJSON(w io.Writer, result *domain.CheckResult) error {
	if err := service.WriteJSON(w, result); err != nil {
		return &CheckExitError{Code: constants.ExitError, Message: fmt.Sprintf("failed to encode JSON: %v", err)}
	}

	if !result.Passed {
		return &CheckExitError{Code: result.ExitCode, Message: ""}
	}
	return nil
}
