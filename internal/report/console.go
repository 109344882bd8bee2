package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/model"
)

// ConsoleReporter renders a human-readable, optionally colored report.
type ConsoleReporter struct {
	opts Options
}

func (r *ConsoleReporter) Format() string { return "console" }

func (r *ConsoleReporter) Generate(result *analyzer.BatchResult) (string, error) {
	return generate(r, result)
}

// paint returns a sprint function for attrs. Colors are forced on or off per
// reporter so the output.color setting wins over terminal detection.
func (r *ConsoleReporter) paint(attrs ...color.Attribute) func(a ...interface{}) string {
	c := color.New(attrs...)
	if r.opts.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func (r *ConsoleReporter) severityDisplay(severity model.Severity) string {
	switch severity {
	case model.SeverityError:
		return r.paint(color.FgRed, color.Bold)("ERROR")
	case model.SeverityWarning:
		return r.paint(color.FgYellow)("WARN ")
	default:
		return r.paint(color.FgBlue)("INFO ")
	}
}

func (r *ConsoleReporter) Write(result *analyzer.BatchResult, w io.Writer) error {
	bold := r.paint(color.Bold)
	cyan := r.paint(color.FgCyan)
	faint := r.paint(color.Faint)
	red := r.paint(color.FgRed)
	green := r.paint(color.FgGreen)

	for _, file := range result.Files {
		header := file.File
		if file.Language != "" {
			header += " (" + file.Language + ")"
		}
		if file.Cached {
			header += " " + faint("[cached]")
		}
		fmt.Fprintln(w, bold(header))

		if file.Error != "" {
			fmt.Fprintf(w, "  %s %s\n\n", red("error:"), file.Error)
			continue
		}
		if file.Report == nil {
			fmt.Fprintln(w)
			continue
		}

		if len(file.Report.Issues) == 0 {
			fmt.Fprintf(w, "  %s\n", green("No issues found"))
		}
		for _, issue := range file.Report.Issues {
			fmt.Fprintf(w, "  %s %s %s\n", r.severityDisplay(issue.Severity), issue.Title, faint("("+issue.Location+")"))
			fmt.Fprintf(w, "        %s\n", issue.Description)
		}

		if len(file.Report.Suggestions) > 0 {
			fmt.Fprintf(w, "  %s\n", cyan("Suggestions:"))
			for _, s := range file.Report.Suggestions {
				fmt.Fprintf(w, "    - %s: %s\n", s.Title, s.Description)
			}
		}

		if fixed := r.opts.fixedCode(file.Report); fixed != "" {
			fmt.Fprintf(w, "  %s\n", cyan("Fixed code:"))
			for _, line := range strings.Split(fixed, "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
		fmt.Fprintln(w)
	}

	summary := fmt.Sprintf("%d inputs, %d issues (%d errors, %d warnings, %d info)",
		len(result.Files), result.TotalIssues,
		result.BySeverity[model.SeverityError],
		result.BySeverity[model.SeverityWarning],
		result.BySeverity[model.SeverityInfo])
	if result.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", result.Failed)
	}
	summary += fmt.Sprintf(" in %s", result.Duration)

	switch {
	case result.HasErrors():
		fmt.Fprintln(w, red(summary))
	case result.TotalIssues > 0:
		fmt.Fprintln(w, r.paint(color.FgYellow)(summary))
	default:
		fmt.Fprintln(w, green(summary))
	}
	return nil
}
