package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devchat-app/aidebug/internal/analyzer"
)

// fixCmd represents the fix command
var fixCmd = &cobra.Command{
	Use:   "fix [files...]",
	Short: "Analyze files and write the fixed code back",
	Long: `Analyze files and replace their content with the generated fixed code.

Files without issues are left untouched. Fixes are textual substitutions,
so review the result before committing it.

Examples:
  # Show what would change without writing
  aidebug fix src/app.js --dry-run

  # Fix a directory, keeping the originals as .orig files
  aidebug fix src/ --backup`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)

	fixCmd.Flags().StringP("language", "l", "", "Force the language for every file")
	fixCmd.Flags().Bool("dry-run", false, "Print the fixed code instead of writing it")
	fixCmd.Flags().Bool("backup", false, "Keep the original content in <file>.orig")
	fixCmd.Flags().Bool("no-cache", false, "Disable caching")
}

// fixable is one file whose report carries fixed code.
type fixable struct {
	path     string
	original string
	fixed    string
	issues   int
}

// runFix implements the fix command logic
func runFix(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	backup, _ := cmd.Flags().GetBool("backup")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	language, _ := cmd.Flags().GetString("language")

	a, err := newApp(cfg, appOptions{noCache: noCache})
	if err != nil {
		return err
	}
	defer a.Close()

	inputs := a.runner.LoadFiles(args, language)
	result, err := a.runner.Run(cmd.Context(), inputs)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fixes, failed := collectFixes(inputs, result)
	for _, f := range failed {
		info(cmd, "Skipping %s: %s", f.File, f.Error)
	}
	if len(fixes) == 0 {
		info(cmd, "No fixable issues found.")
		return nil
	}

	if dryRun {
		showDryRun(cmd, fixes)
		return nil
	}

	var errs []error
	for _, f := range fixes {
		if err := applyFix(f, backup); err != nil {
			errs = append(errs, err)
			continue
		}
		info(cmd, "Fixed %s (%d issues)", f.path, f.issues)
	}
	return errors.Join(errs...)
}

// collectFixes pairs each input with its result. Results keep input order.
func collectFixes(inputs []analyzer.Input, result *analyzer.BatchResult) (fixes []fixable, failed []analyzer.FileResult) {
	for i, fr := range result.Files {
		if fr.Err != nil {
			failed = append(failed, fr)
			continue
		}
		if fr.Report == nil || fr.Report.FixedCode == nil {
			continue
		}
		if *fr.Report.FixedCode == inputs[i].Code {
			continue
		}
		fixes = append(fixes, fixable{
			path:     inputs[i].Name,
			original: inputs[i].Code,
			fixed:    *fr.Report.FixedCode,
			issues:   len(fr.Report.Issues),
		})
	}
	return fixes, failed
}

func showDryRun(cmd *cobra.Command, fixes []fixable) {
	out := cmd.OutOrStdout()
	for _, f := range fixes {
		fmt.Fprintf(out, "=== %s (%d issues)\n", f.path, f.issues)
		fmt.Fprintln(out, strings.TrimRight(f.fixed, "\n"))
		fmt.Fprintln(out)
	}
}

// applyFix rewrites a file in place, keeping its permissions.
func applyFix(f fixable, backup bool) error {
	fi, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}
	if backup {
		if err := os.WriteFile(f.path+".orig", []byte(f.original), fi.Mode().Perm()); err != nil {
			return fmt.Errorf("writing backup for %s: %w", f.path, err)
		}
	}
	if err := os.WriteFile(f.path, []byte(f.fixed), fi.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}
