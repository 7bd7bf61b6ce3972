package config

import (
	"strconv"
	"strings"
)

// Profile is a named starting point for a generated config file
type Profile string

const (
	ProfileStandard Profile = "standard"
	ProfileStrict   Profile = "strict"
	ProfileDebug    Profile = "debug"
)

// ProfilePreset holds the values a profile changes
type ProfilePreset struct {
	Verify        bool
	CheckValidity bool
	FailFast      bool
	ShowElements  bool
	LogLevel      string
}

// GetProfilePresets returns presets for every profile
func GetProfilePresets() map[Profile]ProfilePreset {
	return map[Profile]ProfilePreset{
		ProfileStandard: {
			Verify:        true,
			CheckValidity: true,
			LogLevel:      DefaultLogLevel,
		},
		ProfileStrict: {
			Verify:        true,
			CheckValidity: true,
			FailFast:      true,
			LogLevel:      "error",
		},
		ProfileDebug: {
			Verify:        true,
			CheckValidity: true,
			ShowElements:  true,
			LogLevel:      "debug",
		},
	}
}

// GetFullConfigTemplate returns the documented config template as YAML
func GetFullConfigTemplate(profile Profile, format string) string {
	preset, ok := GetProfilePresets()[profile]
	if !ok {
		preset = GetProfilePresets()[ProfileStandard]
	}
	if !ValidFormats[format] {
		format = DefaultOutputFormat
	}
	defaults := DefaultConfig()

	return `# bcfg configuration
# Profile: ` + string(profile) + `

# ============================================================================
# BUILD
# ============================================================================
build:
  # Verify every graph after construction: edge symmetry, entry and exit
  # shape, and the validity of every block
  verify: ` + strconv.FormatBool(preset.Verify) + `

  # Report per-block validity violations in the output
  check_validity: ` + strconv.FormatBool(preset.CheckValidity) + `

  # Stop at the first method that cannot be built
  fail_fast: ` + strconv.FormatBool(preset.FailFast) + `

# ============================================================================
# OUTPUT
# ============================================================================
output:
  # Output format: text, json, yaml, dot
  format: ` + format + `

  # Directory for report files (empty = working directory)
  directory: ""

  # Include the elements of every block
  show_elements: ` + strconv.FormatBool(preset.ShowElements) + `

  # Graphviz layout direction for dot output: TB, LR, BT, RL
  rank_dir: ` + DefaultRankDir + `

# ============================================================================
# INPUT
# ============================================================================
input:
  # Fixture files to read (.gitignore syntax)
  include_patterns:
` + formatYAMLList(defaults.Input.IncludePatterns) + `

  # Files and directories to skip (.gitignore syntax); a .bcfgignore file
  # in an input directory adds to this list
  exclude_patterns:
` + formatYAMLList(defaults.Input.ExcludePatterns) + `

  # Descend into directories
  recursive: true

# ============================================================================
# PERFORMANCE
# ============================================================================
performance:
  # Methods built at once (0 = number of CPUs)
  max_goroutines: 0

  # Upper bound for a whole run in seconds
  timeout_seconds: ` + strconv.Itoa(DefaultTimeoutSeconds) + `

# ============================================================================
# LOGGING
# ============================================================================
logging:
  # trace, debug, info, warn, error, disabled
  level: ` + preset.LogLevel + `
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# bcfg configuration (minimal)

build:
  verify: true

output:
  format: text

input:
  include_patterns:
    - "**/*.yaml"
    - "**/*.yml"
`
}

// formatYAMLList formats a string slice as an indented YAML sequence
func formatYAMLList(items []string) string {
	if len(items) == 0 {
		return "    []"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = `    - "` + item + `"`
	}
	return strings.Join(lines, "\n")
}
