package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/report"
	"github.com/devchat-app/aidebug/internal/watcher"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...|-]",
	Short: "Analyze code for issues and produce fixes",
	Long: `Analyze source files, directories or a snippet on stdin.

Directories are walked for files of every catalog language. Hidden
directories and analysis.ignore_dirs are skipped. The exit status is 1
when any error-severity issue is found.

Examples:
  # Analyze a project directory
  aidebug analyze src/

  # Analyze stdin as Python
  cat script.py | aidebug analyze -l python

  # Only warnings and errors, as SARIF
  aidebug analyze src/ --min-severity warning -f sarif -o report.sarif

  # Re-analyze whenever files change
  aidebug analyze src/ --watch`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("language", "l", "", "Force the language for every input")
	analyzeCmd.Flags().StringP("format", "f", "", "Output format (console, markdown, json, sarif)")
	analyzeCmd.Flags().StringP("output", "o", "", "Write report to file")
	analyzeCmd.Flags().String("min-severity", "", "Minimum severity to report (info, warning, error)")
	analyzeCmd.Flags().Bool("show-fixed", false, "Include the fixed code in the report")

	analyzeCmd.Flags().Int("concurrency", 0, "Max concurrent analyses (0=auto)")
	analyzeCmd.Flags().Bool("no-cache", false, "Disable caching")
	analyzeCmd.Flags().BoolP("watch", "w", false, "Watch the given paths and re-analyze on change")

	addProfileFlags(analyzeCmd)
}

// runAnalyze gathers inputs from args and stdin, renders one report and
// optionally keeps watching.
func runAnalyze(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	language, _ := cmd.Flags().GetString("language")

	paths, useStdin := splitArgs(args)
	if len(paths) == 0 && !useStdin {
		if !stdinIsPiped(cmd.InOrStdin()) {
			return errors.New("no input: pass files or pipe code on stdin")
		}
		useStdin = true
	}
	if watch && len(paths) == 0 {
		return errors.New("--watch needs at least one file or directory")
	}

	stopProfiler, err := startProfiler(cmd)
	if err != nil {
		return err
	}
	defer stopProfiler()

	a, err := newApp(cfg, appOptions{noCache: noCache})
	if err != nil {
		return err
	}
	defer a.Close()

	if language != "" && !a.catalog.Has(language) {
		info(cmd, "Unknown language %q, using %s", language, a.catalog.DefaultLanguage())
	}

	reporter, err := newReporter(cfg.Output.Format, cfg.Output.File)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inputs := a.runner.LoadFiles(paths, language)
	if useStdin {
		code, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		inputs = append(inputs, analyzer.Input{Code: string(code), Language: language})
	}

	result, err := runAndRender(ctx, cmd, a.runner, reporter, inputs)
	if err != nil {
		return err
	}

	if watch {
		return watchAndRender(ctx, cmd, a, reporter, paths, language)
	}
	if result.HasErrors() {
		return errIssuesFound
	}
	return nil
}

// splitArgs separates file arguments from the "-" stdin marker.
func splitArgs(args []string) (paths []string, stdin bool) {
	for _, arg := range args {
		if arg == "-" {
			stdin = true
			continue
		}
		paths = append(paths, arg)
	}
	return paths, stdin
}

// newReporter picks the configured format, falling back to the output
// file extension when the format was left at its default.
func newReporter(format, outputPath string) (report.Reporter, error) {
	if outputPath != "" && (format == "" || format == "console") {
		if detected := detectFormatFromPath(outputPath); detected != "" {
			format = detected
		}
	}
	return report.NewReporter(format, report.Options{
		Color:        cfg.Output.Color && outputPath == "" && !color.NoColor,
		IncludeFixed: cfg.Output.IncludeFixed,
		Version:      Version,
	})
}

// runAndRender analyzes one batch and writes the filtered report.
func runAndRender(ctx context.Context, cmd *cobra.Command, runner *analyzer.Runner, reporter report.Reporter, inputs []analyzer.Input) (*analyzer.BatchResult, error) {
	result, err := runner.Run(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	result = result.Filter(cfg.MinSeverity())

	output, err := reporter.Generate(result)
	if err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}
	if err := writeOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), output, cfg.Output.File); err != nil {
		return nil, err
	}
	return result, nil
}

// watchAndRender re-analyzes changed files until ctx is cancelled.
func watchAndRender(ctx context.Context, cmd *cobra.Command, a *app, reporter report.Reporter, paths []string, language string) error {
	fw, err := watcher.NewFileWatcher(watcher.Config{
		Filter:  a.catalog.Supports,
		SkipDir: a.runner.SkipDir,
	})
	if err != nil {
		return err
	}
	defer fw.Close()

	err = fw.Watch(paths, func(changed []string) error {
		info(cmd, "\n%d file(s) changed, re-analyzing...", len(changed))
		_, err := runAndRender(ctx, cmd, a.runner, reporter, a.runner.LoadFiles(changed, language))
		return err
	})
	if err != nil {
		return err
	}

	info(cmd, "Watching %d director(ies). Press Ctrl+C to stop.", len(fw.WatchedDirs()))
	<-ctx.Done()
	return nil
}
