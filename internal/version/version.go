package version

import (
	"fmt"
	"runtime"
)

// Build information, set via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
	BuiltBy = "source"
)

// Info is the build information in a form the output formatters can encode.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:   GetVersion(),
		Commit:    Commit,
		Date:      Date,
		BuiltBy:   BuiltBy,
		GoVersion: runtime.Version(),
	}
}

// GetVersion returns the current version
func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// GetFullVersion returns the version with commit, date and toolchain
func GetFullVersion() string {
	i := Get()
	return fmt.Sprintf("%s (commit: %s, built: %s, by: %s, %s)",
		i.Version, i.Commit, i.Date, i.BuiltBy, i.GoVersion)
}
