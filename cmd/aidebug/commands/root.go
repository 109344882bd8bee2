// Package commands contains all CLI commands for aidebug.
//
// This package uses the Cobra library for CLI management.
// Each command is defined in its own file and registered in init().
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devchat-app/aidebug/internal/config"
	"github.com/devchat-app/aidebug/internal/logger"
)

var (
	// cfgFile holds the path to the config file (from --config flag)
	cfgFile string

	// quiet suppresses informational output on stderr
	quiet bool

	// cfg is the effective configuration, loaded before any command runs
	cfg *config.Config

	// loader is kept so commands can report which file was used
	loader *config.Loader
)

// errIssuesFound signals that the run finished but found error-severity issues.
var errIssuesFound = errors.New("error-severity issues found")

// flagKeys maps command flags onto configuration keys. Only flags the
// running command defines are bound, and only explicitly set flags win.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"rules-dir":    "rules.rules_dir",
	"format":       "output.format",
	"output":       "output.file",
	"show-fixed":   "output.include_fixed",
	"min-severity": "output.min_severity",
	"concurrency":  "analysis.max_concurrency",
	"addr":         "server.addr",
	"latency":      "server.simulated_latency",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aidebug",
	Short: "Pattern-based code debugging assistant",
	Long: `aidebug inspects code snippets for syntax slips, likely bugs and style
issues, suggests improvements and produces an automatically fixed version.

Examples:
  # Analyze files and directories
  aidebug analyze src/ tools/build.py

  # Analyze a snippet from stdin
  echo 'var x = 1;' | aidebug analyze -l javascript

  # Serve the HTTP API for the chat front-end
  aidebug serve --addr :8089

  # Show current configuration
  aidebug config show`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the root command and prints any error worth showing.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errIssuesFound) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// ExitCode maps a command error to the process exit status: 1 when
// error-severity issues were found, 2 for any other failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errIssuesFound):
		return 1
	default:
		return 2
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .aidebug.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("rules-dir", "", "directory of YAML language entries")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")
}

// initializeConfig loads defaults, file, environment and flags in that order
// of precedence, then applies the log level.
func initializeConfig(cmd *cobra.Command) error {
	loader = config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := loader.BindFlag(key, f); err != nil {
				return err
			}
		}
	}

	loaded, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = loaded

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(level)
	if quiet && level < logger.LevelWarn {
		logger.SetLevel(logger.LevelWarn)
	}
	return nil
}

// info prints a status line on stderr unless --quiet is set.
func info(cmd *cobra.Command, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
