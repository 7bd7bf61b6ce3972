package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/bcfg/internal/config"
	"github.com/ludo-technologies/bcfg/internal/constants"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a bcfg configuration file",
		Long: `Generate a documented bcfg configuration file with sensible defaults.

By default, creates bcfg.yaml in the current directory with full
documentation. Use --interactive for a guided setup wizard.

Examples:
  # Create bcfg.yaml in current directory
  bcfg init

  # Custom output path
  bcfg init --config custom.yaml

  # Overwrite existing file
  bcfg init --force

  # Start from the strict profile
  bcfg init --profile strict

  # Generate smaller config with essential options only
  bcfg init --minimal

  # Interactive setup wizard
  bcfg init --interactive
  bcfg init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName,
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate minimal config with essential options only")
	cmd.Flags().String("profile", string(config.ProfileStandard),
		"Starting profile: standard, strict, debug")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	// Get flag values from command
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	profileName, _ := cmd.Flags().GetString("profile")
	interactive, _ := cmd.Flags().GetBool("interactive")

	profile := config.Profile(profileName)
	if _, ok := config.GetProfilePresets()[profile]; !ok {
		return fmt.Errorf("unknown profile %q (must be one of: standard, strict, debug)", profileName)
	}
	format := config.DefaultOutputFormat

	// Run interactive setup if requested
	if interactive {
		var err error
		profile, format, configPath, err = runInteractiveSetup(configPath)
		if err != nil {
			return err
		}
	}

	// Check if file exists
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	// Check if parent directory exists
	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	// Generate config content
	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate()
	} else {
		content = config.GetFullConfigTemplate(profile, format)
	}

	// Write to file
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Print success message with absolute path if possible, otherwise use relative path
	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", displayPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nRun 'bcfg build .' to build your fixtures.")

	return nil
}

func runInteractiveSetup(defaultConfigPath string) (config.Profile, string, string, error) {
	fmt.Println()
	fmt.Println("bcfg Configuration Setup")
	fmt.Println("========================")
	fmt.Println()

	// Profile selection
	profiles := []struct {
		Label       string
		Description string
		Value       config.Profile
	}{
		{"Standard (recommended)", "Verify graphs and report violations", config.ProfileStandard},
		{"Strict", "Stop at the first method that fails, quiet logs", config.ProfileStrict},
		{"Debug", "Show block elements and debug logs", config.ProfileDebug},
	}

	profileTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
		Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	profilePrompt := promptui.Select{
		Label:     "Which profile should the configuration start from?",
		Items:     profiles,
		Templates: profileTemplates,
	}

	profileIdx, _, err := profilePrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("profile selection cancelled: %w", err)
	}
	selectedProfile := profiles[profileIdx].Value

	fmt.Println()

	// Output format selection
	formats := []string{
		constants.OutputFormatText,
		constants.OutputFormatJSON,
		constants.OutputFormatYAML,
		constants.OutputFormatDOT,
	}

	formatPrompt := promptui.Select{
		Label: "Default output format",
		Items: formats,
	}

	_, selectedFormat, err := formatPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("format selection cancelled: %w", err)
	}

	fmt.Println()

	// Output path prompt
	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaultConfigPath,
	}

	outputPath, err := outputPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("output path input cancelled: %w", err)
	}

	// Use default if empty
	if outputPath == "" {
		outputPath = defaultConfigPath
	}

	fmt.Println()
	fmt.Printf("Creating %s... ", outputPath)

	return selectedProfile, selectedFormat, outputPath, nil
}
