// Package logging builds the diagnostic logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/bcfg/internal/config"
)

// New returns a console logger writing to w at the configured level.
// Verbose forces debug output regardless of the config.
func New(cfg config.LoggingConfig, w io.Writer, verbose bool) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel maps a config level name to a zerolog level. An empty name
// means warn.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
