package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/bcfg/internal/config"
	"github.com/ludo-technologies/bcfg/internal/constants"
)

func TestInitCommand_BasicConfigCreation(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), constants.ConfigFileName)

	if _, err := runCommand(initCmd(), "--config", configPath); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	for _, section := range []string{"build:", "output:", "input:", "performance:", "logging:", "include_patterns:"} {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing expected section: %s", section)
		}
	}

	// The generated file must load as a valid configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("generated config should load: %v", err)
	}
	if cfg.Output.Format != config.DefaultOutputFormat {
		t.Errorf("Format = %s, expected %s", cfg.Output.Format, config.DefaultOutputFormat)
	}
}

func TestInitCommand_ForceOverwrite(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), constants.ConfigFileName)
	if err := os.WriteFile(configPath, []byte("existing: true\n"), 0644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	// Without force the existing file is kept
	if _, err := runCommand(initCmd(), "--config", configPath); err == nil {
		t.Fatal("Expected error when file exists without --force")
	}
	content, _ := os.ReadFile(configPath)
	if string(content) != "existing: true\n" {
		t.Error("existing file should not be modified")
	}

	if _, err := runCommand(initCmd(), "--config", configPath, "--force"); err != nil {
		t.Fatalf("init with --force failed: %v", err)
	}
	content, _ = os.ReadFile(configPath)
	if !strings.Contains(string(content), "# bcfg configuration") {
		t.Error("file should be overwritten with --force")
	}
}

func TestInitCommand_MinimalConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), constants.ConfigFileName)

	if _, err := runCommand(initCmd(), "--config", configPath, "--minimal"); err != nil {
		t.Fatalf("init --minimal failed: %v", err)
	}

	content, _ := os.ReadFile(configPath)
	if !strings.Contains(string(content), "(minimal)") {
		t.Error("minimal template expected")
	}
	if strings.Contains(string(content), "performance:") {
		t.Error("minimal template should only hold essential options")
	}
}

func TestInitCommand_Profile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), constants.ConfigFileName)

	if _, err := runCommand(initCmd(), "--config", configPath, "--profile", "strict"); err != nil {
		t.Fatalf("init --profile failed: %v", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("generated config should load: %v", err)
	}
	if !cfg.Build.FailFast || cfg.Logging.Level != "error" {
		t.Errorf("strict profile not applied: %+v", cfg)
	}
}

func TestInitCommand_UnknownProfile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), constants.ConfigFileName)

	if _, err := runCommand(initCmd(), "--config", configPath, "--profile", "lenient"); err == nil {
		t.Error("Expected error for an unknown profile")
	}
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("no file should be written for an unknown profile")
	}
}

func TestInitCommand_InvalidDirectory(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "missing", constants.ConfigFileName)

	_, err := runCommand(initCmd(), "--config", configPath)
	if err == nil || !strings.Contains(err.Error(), "directory does not exist") {
		t.Errorf("Expected missing directory error, got %v", err)
	}
}

func TestInitCmd_FlagsExist(t *testing.T) {
	cmd := initCmd()

	expectedFlags := []string{"config", "force", "minimal", "profile", "interactive"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}

	shortFlags := map[string]string{
		"c": "config",
		"f": "force",
		"i": "interactive",
	}

	for short, long := range shortFlags {
		flag := cmd.Flags().ShorthandLookup(short)
		if flag == nil || flag.Name != long {
			t.Errorf("Missing short flag -%s for --%s", short, long)
		}
	}
}

func TestInitCmd_DefaultConfigPath(t *testing.T) {
	configFlag := initCmd().Flags().Lookup("config")
	if configFlag == nil {
		t.Fatal("config flag not found")
	}
	if configFlag.DefValue != constants.ConfigFileName {
		t.Errorf("Expected default config path to be '%s', got '%s'", constants.ConfigFileName, configFlag.DefValue)
	}
}
