package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/bcfg/internal/constants"
)

// Default build settings
const (
	// DefaultOutputFormat is used when neither the config file nor a flag picks one
	DefaultOutputFormat = constants.OutputFormatText

	// DefaultRankDir is the Graphviz layout direction for DOT output
	DefaultRankDir = "TB"

	// DefaultLogLevel keeps the tool quiet unless something goes wrong
	DefaultLogLevel = "warn"

	// DefaultTimeoutSeconds bounds a whole build run
	DefaultTimeoutSeconds = 300
)

// Config represents the main configuration structure
type Config struct {
	// Build controls graph construction and checking
	Build BuildConfig `json:"build" mapstructure:"build" yaml:"build"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Input selects the fixture files to read
	Input InputConfig `json:"input" mapstructure:"input" yaml:"input"`

	// Performance bounds parallelism and run time
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`

	// Logging configures the diagnostic logger
	Logging LoggingConfig `json:"logging" mapstructure:"logging" yaml:"logging"`
}

// BuildConfig holds configuration for building graphs
type BuildConfig struct {
	// Verify runs the full graph verification after every build
	Verify bool `json:"verify" mapstructure:"verify" yaml:"verify"`

	// CheckValidity reports per-block validity violations in the output
	CheckValidity bool `json:"check_validity" mapstructure:"check_validity" yaml:"check_validity"`

	// FailFast stops at the first method that cannot be built
	FailFast bool `json:"fail_fast" mapstructure:"fail_fast" yaml:"fail_fast"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, dot
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// Directory is where reports are written when an output path is relative (empty = working directory)
	Directory string `json:"directory" mapstructure:"directory" yaml:"directory"`

	// ShowElements includes every block's elements in the output
	ShowElements bool `json:"show_elements" mapstructure:"show_elements" yaml:"show_elements"`

	// RankDir is the DOT layout direction: TB, LR, BT, RL
	RankDir string `json:"rank_dir" mapstructure:"rank_dir" yaml:"rank_dir"`
}

// InputConfig holds configuration for collecting fixture files
type InputConfig struct {
	// IncludePatterns specifies file patterns to include, in .gitignore syntax
	IncludePatterns []string `json:"include_patterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies file patterns to exclude, in .gitignore syntax
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether to descend into directories
	Recursive bool `json:"recursive" mapstructure:"recursive" yaml:"recursive"`
}

// PerformanceConfig holds configuration for parallel builds
type PerformanceConfig struct {
	// MaxGoroutines is the number of methods built at once (0 = number of CPUs)
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds a whole run (0 = default)
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// LoggingConfig holds configuration for diagnostic logging
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error, disabled
	Level string `json:"level" mapstructure:"level" yaml:"level"`
}

// Workers returns the effective number of parallel builds.
func (p *PerformanceConfig) Workers() int {
	if p.MaxGoroutines > 0 {
		return p.MaxGoroutines
	}
	return runtime.NumCPU()
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Verify:        true,
			CheckValidity: true,
			FailFast:      false,
		},
		Output: OutputConfig{
			Format:       DefaultOutputFormat,
			ShowElements: false,
			RankDir:      DefaultRankDir,
		},
		Input: InputConfig{
			IncludePatterns: []string{"**/*.yaml", "**/*.yml"},
			ExcludePatterns: []string{
				// Version control
				".git/",
				// Dependencies and build outputs
				"vendor/",
				"testdata/golden/",
				// Tool configuration is YAML too
				constants.ConfigFileName,
				"bcfg.yml",
				".bcfg.yaml",
				".bcfg.yml",
			},
			Recursive: true,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  0,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context.
// Without an explicit path the file is discovered starting at targetPath.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// A fresh viper instance per load keeps concurrent loads independent
	v := viper.New()
	config := DefaultConfig()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// configCandidates are the file names searched for, in order of preference
var configCandidates = []string{
	constants.ConfigFileName,
	"bcfg.yml",
	".bcfg.yaml",
	".bcfg.yml",
	"bcfg.json",
	".bcfg.json",
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string) string {
	for _, candidate := range configCandidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for configuration files from targetPath upward,
// then in the working directory, the XDG config directory and the home
// directory, and finally in $BCFG_CONFIG.
func findDefaultConfig(targetPath string) string {
	if targetPath != "" {
		if absPath, err := filepath.Abs(targetPath); err == nil {
			if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			// Stop at the filesystem or volume root
			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir); config != "" {
					return config
				}
				parent := filepath.Dir(dir)
				if parent == dir || dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory("."); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName)); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		if config := searchConfigInDirectory(filepath.Join(home, ".config", constants.ToolName)); config != "" {
			return config
		}
		if config := searchConfigInDirectory(home); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// ValidFormats lists the accepted output formats
var ValidFormats = map[string]bool{
	constants.OutputFormatText: true,
	constants.OutputFormatJSON: true,
	constants.OutputFormatYAML: true,
	constants.OutputFormatDOT:  true,
}

// ValidRankDirs lists the Graphviz rank directions
var ValidRankDirs = map[string]bool{
	"TB": true,
	"LR": true,
	"BT": true,
	"RL": true,
}

var validLogLevels = map[string]bool{
	"trace":    true,
	"debug":    true,
	"info":     true,
	"warn":     true,
	"error":    true,
	"disabled": true,
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if !ValidFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, dot", c.Output.Format)
	}

	if !ValidRankDirs[c.Output.RankDir] {
		return fmt.Errorf("invalid output.rank_dir '%s', must be one of: TB, LR, BT, RL", c.Output.RankDir)
	}

	if len(c.Input.IncludePatterns) == 0 {
		return fmt.Errorf("input.include_patterns cannot be empty")
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines must be >= 0, got %d", c.Performance.MaxGoroutines)
	}

	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level '%s', must be one of: trace, debug, info, warn, error, disabled", c.Logging.Level)
	}

	return nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("build", config.Build)
	v.Set("output", config.Output)
	v.Set("input", config.Input)
	v.Set("performance", config.Performance)
	v.Set("logging", config.Logging)

	return v.WriteConfig()
}
