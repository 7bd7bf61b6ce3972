package service

import (
	"fmt"

	"github.com/ludo-technologies/bcfg/domain"
	"github.com/ludo-technologies/bcfg/internal/config"
)

// ConfigurationLoaderImpl implements the ConfigurationLoader interface
type ConfigurationLoaderImpl struct {
	// targetPath anchors the upward search for a config file
	targetPath string
}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// NewConfigurationLoaderWithTarget creates a loader that discovers config
// files starting at targetPath
func NewConfigurationLoaderWithTarget(targetPath string) *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{targetPath: targetPath}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.BuildRequest, error) {
	cfg, err := config.LoadConfigWithTarget(path, c.targetPath)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}

	req := ConvertToBuildRequest(cfg)
	req.ConfigPath = path
	return req, nil
}

// LoadDefaultConfig loads the discovered configuration, falling back to
// the built-in defaults
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.BuildRequest {
	cfg, err := config.LoadConfigWithTarget("", c.targetPath)
	if err == nil {
		return ConvertToBuildRequest(cfg)
	}

	// Fall back to hardcoded default configuration
	return ConvertToBuildRequest(config.DefaultConfig())
}

// MergeConfig merges CLI flags with configuration file. Boolean options
// only ever switch on through the override; switching them off is done
// by the caller, which knows whether a flag was given.
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.BuildRequest, override *domain.BuildRequest) *domain.BuildRequest {
	// Start with base configuration
	merged := *base

	// Always override paths as they come from command arguments
	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}

	// Output configuration
	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.OutputPath != "" {
		merged.OutputPath = override.OutputPath
	}
	if override.RankDir != "" {
		merged.RankDir = override.RankDir
	}
	if override.ShowElements {
		merged.ShowElements = true
	}

	// Build options
	if override.Verify {
		merged.Verify = true
	}
	if override.CheckValidity {
		merged.CheckValidity = true
	}
	if override.FailFast {
		merged.FailFast = true
	}

	// Input selection
	if len(override.IncludePatterns) > 0 {
		merged.IncludePatterns = override.IncludePatterns
	}
	if len(override.ExcludePatterns) > 0 {
		merged.ExcludePatterns = override.ExcludePatterns
	}

	// Config path is always from override if provided
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}

// ConvertToBuildRequest converts a Config to a BuildRequest
func ConvertToBuildRequest(cfg *config.Config) *domain.BuildRequest {
	return &domain.BuildRequest{
		// Paths are set by the caller, not from config
		Paths: []string{},

		// Output settings
		OutputFormat: domain.OutputFormat(cfg.Output.Format),
		ShowElements: cfg.Output.ShowElements,
		RankDir:      cfg.Output.RankDir,

		// Build settings
		Verify:        cfg.Build.Verify,
		CheckValidity: cfg.Build.CheckValidity,
		FailFast:      cfg.Build.FailFast,

		// Input settings
		Recursive:       cfg.Input.Recursive,
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
	}
}

// ValidateConfig validates a build request
func (c *ConfigurationLoaderImpl) ValidateConfig(req *domain.BuildRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}

	if !config.ValidFormats[string(req.OutputFormat)] {
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml, dot)",
			req.OutputFormat)
	}

	if req.RankDir != "" && !config.ValidRankDirs[req.RankDir] {
		return fmt.Errorf("invalid rank direction: %s (must be one of: TB, LR, BT, RL)", req.RankDir)
	}

	if len(req.IncludePatterns) == 0 {
		return fmt.Errorf("include patterns cannot be empty")
	}

	return nil
}
