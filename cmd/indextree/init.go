package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/indextree/internal/config"
	"github.com/nao1215/indextree/internal/templates"
	"github.com/spf13/cobra"
)

//go:embed templates/indextree.yaml
var configTemplate embed.FS

// configTemplateName is the embedded configuration template.
const configTemplateName = "templates/indextree.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file and optionally export the templates",
		Long: `Init creates a commented .indextree configuration file in the current
directory.

With --templates it also writes the embedded folder, file and layout
templates into a directory, ready to be edited and passed back with
--template-dir.

Examples:
  # Create .indextree in current directory
  indextree init

  # Create config file at a specific path
  indextree init -o myconfig.yaml

  # Export the default templates into ./templates
  indextree init --templates templates

  # Force overwrite existing files
  indextree init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().String("templates", "",
		"Also export the default templates into this directory")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	templateDir, err := cmd.Flags().GetString("templates")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(configTemplateName)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Host entries may carry Authorization headers.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)

	if templateDir != "" {
		written, err := templates.WriteDefaults(templateDir, force)
		if err != nil {
			return fmt.Errorf("failed to export templates: %w", err)
		}
		for _, path := range written {
			fmt.Fprintf(out, "Created template: %s\n", path)
		}
		fmt.Fprintf(out, "\nUse them with --template-dir %s\n", templateDir)
	}

	fmt.Fprintln(out, "\nEdit the configuration file to set per-host options such as:")
	fmt.Fprintln(out, "  - Authorization headers for protected listings")
	fmt.Fprintln(out, "  - Maximum depth and cycle policy")
	fmt.Fprintln(out, "  - SOCKS5 proxy, timeout and retries")

	return nil
}
