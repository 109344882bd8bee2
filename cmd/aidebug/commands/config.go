package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage aidebug configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, including values from
config file, environment variables, and defaults.

Examples:
  # Show config in YAML format
  aidebug config show

  # Show config as JSON
  aidebug config show --json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowJSON bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output as JSON")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if configShowJSON {
		return printJSON(out, cfg)
	}

	if !quiet {
		if used := loader.ConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "# Config file: %s\n\n", used)
		} else {
			fmt.Fprintf(out, "# No config file found, using defaults\n\n")
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = out.Write(data)
	return err
}
