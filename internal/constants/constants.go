package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "bcfg"

	// ConfigFileName is the default config file name
	ConfigFileName = "bcfg.yaml"

	// IgnoreFileName lists input paths to skip, in .gitignore syntax
	IgnoreFileName = ".bcfgignore"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "BCFG"
)

// Output format constants
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
	OutputFormatDOT  = "dot"
)

// Exit codes of the check command
const (
	ExitOK         = 0
	ExitViolations = 1
	ExitError      = 2
)
