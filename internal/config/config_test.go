package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig should not return nil")
	}

	if !config.Build.Verify {
		t.Error("Verify should be enabled by default")
	}
	if !config.Build.CheckValidity {
		t.Error("CheckValidity should be enabled by default")
	}
	if config.Build.FailFast {
		t.Error("FailFast should be disabled by default")
	}

	if config.Output.Format != DefaultOutputFormat {
		t.Errorf("Expected Format '%s', got '%s'", DefaultOutputFormat, config.Output.Format)
	}
	if config.Output.RankDir != DefaultRankDir {
		t.Errorf("Expected RankDir '%s', got '%s'", DefaultRankDir, config.Output.RankDir)
	}

	if !config.Input.Recursive {
		t.Error("Recursive should be true by default")
	}
	if len(config.Input.IncludePatterns) == 0 {
		t.Error("IncludePatterns should not be empty")
	}
	if len(config.Input.ExcludePatterns) == 0 {
		t.Error("ExcludePatterns should not be empty")
	}

	if config.Performance.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("Expected TimeoutSeconds %d, got %d", DefaultTimeoutSeconds, config.Performance.TimeoutSeconds)
	}
	if config.Logging.Level != DefaultLogLevel {
		t.Errorf("Expected log level '%s', got '%s'", DefaultLogLevel, config.Logging.Level)
	}
}

func TestLoadDefaultConfig_MatchesDefaultConfig(t *testing.T) {
	embedded, err := LoadDefaultConfig()
	if err != nil {
		t.Fatalf("LoadDefaultConfig() error = %v", err)
	}
	if !reflect.DeepEqual(embedded, DefaultConfig()) {
		t.Errorf("embedded defaults = %+v, expected %+v", embedded, DefaultConfig())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "json format", mutate: func(c *Config) { c.Output.Format = "json" }},
		{name: "dot format", mutate: func(c *Config) { c.Output.Format = "dot" }},
		{name: "unknown format", mutate: func(c *Config) { c.Output.Format = "xml" }, wantErr: "output.format"},
		{name: "unknown rank dir", mutate: func(c *Config) { c.Output.RankDir = "UP" }, wantErr: "output.rank_dir"},
		{name: "no include patterns", mutate: func(c *Config) { c.Input.IncludePatterns = nil }, wantErr: "include_patterns"},
		{name: "negative goroutines", mutate: func(c *Config) { c.Performance.MaxGoroutines = -1 }, wantErr: "max_goroutines"},
		{name: "negative timeout", mutate: func(c *Config) { c.Performance.TimeoutSeconds = -5 }, wantErr: "timeout_seconds"},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "disabled logging", mutate: func(c *Config) { c.Logging.Level = "disabled" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, expected nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, expected it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestPerformanceConfig_Workers(t *testing.T) {
	p := PerformanceConfig{MaxGoroutines: 3}
	if p.Workers() != 3 {
		t.Errorf("Workers() = %d, expected 3", p.Workers())
	}

	p.MaxGoroutines = 0
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d, expected at least 1", p.Workers())
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	config, err := loadConfigFromFile("")
	if err != nil {
		t.Fatalf("loadConfigFromFile(\"\") error = %v", err)
	}
	if !reflect.DeepEqual(config, DefaultConfig()) {
		t.Error("empty path should yield the default config")
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bcfg.yaml")
	content := `
build:
  fail_fast: true
output:
  format: dot
  rank_dir: LR
performance:
  max_goroutines: 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !config.Build.FailFast {
		t.Error("FailFast should be read from file")
	}
	if !config.Build.Verify {
		t.Error("Verify should keep its default when the file omits it")
	}
	if config.Output.Format != "dot" {
		t.Errorf("Format = %s, expected dot", config.Output.Format)
	}
	if config.Output.RankDir != "LR" {
		t.Errorf("RankDir = %s, expected LR", config.Output.RankDir)
	}
	if config.Performance.MaxGoroutines != 2 {
		t.Errorf("MaxGoroutines = %d, expected 2", config.Performance.MaxGoroutines)
	}
	if len(config.Input.IncludePatterns) == 0 {
		t.Error("IncludePatterns should keep its default")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bcfg.yaml")
	if err := os.WriteFile(path, []byte("output:\n  format: xml\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig should reject an unknown format")
	}
}

func TestLoadConfig_NonExistent(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/bcfg.yaml"); err == nil {
		t.Error("LoadConfig should return error for nonexistent file")
	}
}

func TestLoadConfigWithTarget_DiscoversUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create dirs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "bcfg.yaml"), []byte("output:\n  format: json\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	fixture := filepath.Join(nested, "m.yaml")
	if err := os.WriteFile(fixture, []byte("class: A\n"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	config, err := LoadConfigWithTarget("", fixture)
	if err != nil {
		t.Fatalf("LoadConfigWithTarget() error = %v", err)
	}
	if config.Output.Format != "json" {
		t.Errorf("Format = %s, expected json from the discovered file", config.Output.Format)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")

	config := DefaultConfig()
	config.Output.Format = "yaml"
	config.Build.FailFast = true
	config.Logging.Level = "debug"

	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Output.Format != "yaml" || !loaded.Build.FailFast || loaded.Logging.Level != "debug" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestTemplates_Load(t *testing.T) {
	templates := map[string]string{
		"minimal":  GetMinimalConfigTemplate(),
		"standard": GetFullConfigTemplate(ProfileStandard, "text"),
		"strict":   GetFullConfigTemplate(ProfileStrict, "json"),
		"debug":    GetFullConfigTemplate(ProfileDebug, "dot"),
		"fallback": GetFullConfigTemplate(Profile("unknown"), "xml"),
	}

	for name, content := range templates {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bcfg.yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write template: %v", err)
			}
			if _, err := LoadConfig(path); err != nil {
				t.Errorf("template %s does not load: %v", name, err)
			}
		})
	}
}

func TestGetFullConfigTemplate_Profiles(t *testing.T) {
	strict := GetFullConfigTemplate(ProfileStrict, "json")
	if !strings.Contains(strict, "fail_fast: true") {
		t.Error("strict profile should enable fail_fast")
	}
	if !strings.Contains(strict, "format: json") {
		t.Error("template should use the requested format")
	}

	debug := GetFullConfigTemplate(ProfileDebug, "text")
	if !strings.Contains(debug, "show_elements: true") || !strings.Contains(debug, "level: debug") {
		t.Error("debug profile should show elements and log at debug level")
	}
}
