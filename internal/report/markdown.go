package report

import (
	"fmt"
	"io"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/model"
)

// MarkdownReporter generates Markdown reports.
type MarkdownReporter struct {
	opts Options
}

func (r *MarkdownReporter) Format() string { return "markdown" }

func (r *MarkdownReporter) Generate(result *analyzer.BatchResult) (string, error) {
	return generate(r, result)
}

func (r *MarkdownReporter) Write(result *analyzer.BatchResult, w io.Writer) error {
	fmt.Fprintf(w, "# Code Analysis Report\n\n")

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "- **Inputs Analyzed:** %d\n", len(result.Files))
	fmt.Fprintf(w, "- **Total Issues:** %d\n", result.TotalIssues)
	fmt.Fprintf(w, "- **Errors / Warnings / Info:** %d / %d / %d\n",
		result.BySeverity[model.SeverityError],
		result.BySeverity[model.SeverityWarning],
		result.BySeverity[model.SeverityInfo])
	if result.Failed > 0 {
		fmt.Fprintf(w, "- **Failed:** %d\n", result.Failed)
	}
	fmt.Fprintf(w, "- **Duration:** %s\n\n", result.Duration)

	for _, file := range result.Files {
		if file.Error != "" {
			fmt.Fprintf(w, "## %s\n\n", file.File)
			fmt.Fprintf(w, "Error: %s\n\n", file.Error)
			continue
		}
		if file.Report == nil {
			continue
		}

		fmt.Fprintf(w, "## %s (%s)\n\n", file.File, file.Language)
		if file.Cached {
			fmt.Fprintf(w, "_Cached result_\n\n")
		}

		if len(file.Report.Issues) == 0 {
			fmt.Fprintf(w, "No issues found.\n\n")
		}
		for _, issue := range file.Report.Issues {
			r.writeIssue(w, issue)
		}

		if len(file.Report.Suggestions) > 0 {
			fmt.Fprintf(w, "### Suggestions\n\n")
			for _, s := range file.Report.Suggestions {
				fmt.Fprintf(w, "- **%s:** %s\n", s.Title, s.Description)
				if s.Example != "" {
					fmt.Fprintf(w, "  `%s`\n", s.Example)
				}
			}
			fmt.Fprintf(w, "\n")
		}

		if fixed := r.opts.fixedCode(file.Report); fixed != "" {
			fmt.Fprintf(w, "### Fixed Code\n\n```%s\n%s\n```\n\n", file.Language, fixed)
		}
	}

	return nil
}

func (r *MarkdownReporter) writeIssue(w io.Writer, issue model.Issue) {
	fmt.Fprintf(w, "#### %s %s\n\n", severityTag(issue.Severity), issue.Title)
	fmt.Fprintf(w, "%s\n\n", issue.Description)
	fmt.Fprintf(w, "**Location:** %s\n\n", issue.Location)
	fmt.Fprintf(w, "---\n\n")
}

func severityTag(severity model.Severity) string {
	switch severity {
	case model.SeverityError:
		return "[ERROR]"
	case model.SeverityWarning:
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}
