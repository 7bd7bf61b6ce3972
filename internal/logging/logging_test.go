package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/bcfg/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    zerolog.Level
		wantErr bool
	}{
		{name: "", want: zerolog.WarnLevel},
		{name: "debug", want: zerolog.DebugLevel},
		{name: "error", want: zerolog.ErrorLevel},
		{name: "disabled", want: zerolog.Disabled},
		{name: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn"}, &buf, false)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug().Msg("hidden")
	logger.Warn().Str("method", "Foo.run").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug event should be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "Foo.run") {
		t.Errorf("warn event missing, got %q", out)
	}
}

func TestNew_VerboseLowersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "error"}, &buf, true)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug().Msg("details")
	if !strings.Contains(buf.String(), "details") {
		t.Errorf("verbose logger should emit debug events, got %q", buf.String())
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{}, false); err == nil {
		t.Error("New should reject an unknown level")
	}
}
