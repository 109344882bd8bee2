package report

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/model"
)

// Reporter defines the interface for rendering batch results.
type Reporter interface {
	// Generate renders the result to a string.
	Generate(result *analyzer.BatchResult) (string, error)

	// Write renders the result to a writer.
	Write(result *analyzer.BatchResult, w io.Writer) error

	// Format returns the format name.
	Format() string
}

// Options control what every reporter includes.
type Options struct {
	Color        bool
	IncludeFixed bool
	// Version is stamped into SARIF tool metadata.
	Version string
}

// NewReporter creates a reporter for the given format.
func NewReporter(format string, opts Options) (Reporter, error) {
	switch strings.ToLower(format) {
	case "console", "text", "":
		return &ConsoleReporter{opts: opts}, nil
	case "markdown", "md":
		return &MarkdownReporter{opts: opts}, nil
	case "json":
		return &JSONReporter{Indent: true, opts: opts}, nil
	case "sarif":
		return &SARIFReporter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// AvailableFormats returns the list of supported formats.
func AvailableFormats() []string {
	return []string{"console", "markdown", "json", "sarif"}
}

func generate(r Reporter, result *analyzer.BatchResult) (string, error) {
	var sb strings.Builder
	if err := r.Write(result, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// fixedCode returns the fix to print, or "" when fixes are hidden or absent.
func (o Options) fixedCode(r *model.Report) string {
	if !o.IncludeFixed || r == nil || r.FixedCode == nil {
		return ""
	}
	return *r.FixedCode
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns an issue title into a stable rule identifier,
// e.g. "Loose equality" -> "loose-equality".
func Slug(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// lineNumber extracts N from a "Line N" location; 0 when there is none.
func lineNumber(location string) int {
	rest, ok := strings.CutPrefix(location, "Line ")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0
	}
	return n
}
