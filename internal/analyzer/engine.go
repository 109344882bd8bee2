// Package analyzer turns a code snippet into a report of issues,
// suggestions and an automatically fixed version of the code.
package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devchat-app/aidebug/internal/catalog"
	"github.com/devchat-app/aidebug/internal/logger"
	"github.com/devchat-app/aidebug/internal/model"
	"github.com/devchat-app/aidebug/internal/pattern"
)

// ErrAnalysisFailed is returned for any internal failure during analysis.
// The cause is logged rather than returned.
var ErrAnalysisFailed = errors.New("analysis failed")

// Issue titles raised by the engine itself rather than by catalog rules.
const (
	TitleEmptyCode       = "Empty code snippet"
	TitleMissingComments = "Missing comments"
	TitleSparseComments  = "Sparse comments"
)

// Engine analyzes snippets against a rule catalog. It holds no mutable
// state besides the compiled-pattern cache and is safe for concurrent use.
type Engine struct {
	catalog  *catalog.Catalog
	compiler *pattern.Compiler
	log      *logger.Logger
}

// NewEngine creates an engine. A nil compiler gets one with the default timeout.
func NewEngine(cat *catalog.Catalog, compiler *pattern.Compiler) *Engine {
	if compiler == nil {
		compiler = pattern.NewCompiler(0)
	}
	return &Engine{
		catalog:  cat,
		compiler: compiler,
		log:      logger.Default().WithPrefix("ENGINE"),
	}
}

// Catalog returns the catalog the engine reads rules from.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Analyze inspects code using the rules for language. Unknown languages
// fall back to the catalog default. The result is deterministic for a
// given catalog and input.
func (e *Engine) Analyze(code, language string) (report *model.Report, err error) {
	key, entry := e.catalog.Resolve(language)

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Analysis panicked (lang=%s, size=%d bytes): %v", key, len(code), r)
			report, err = nil, ErrAnalysisFailed
		}
	}()

	if strings.TrimSpace(code) == "" {
		report = model.NewReport(key)
		report.Issues = append(report.Issues, model.Issue{
			Severity:    model.SeverityInfo,
			Title:       TitleEmptyCode,
			Description: "There is no code to analyze.",
			Location:    "N/A",
		})
		return report, nil
	}

	report, err = e.analyze(code, key, entry)
	if err != nil {
		e.log.Error("Analysis failed (lang=%s, size=%d bytes): %v", key, len(code), err)
		return nil, ErrAnalysisFailed
	}
	return report, nil
}

func (e *Engine) analyze(code, key string, entry *catalog.Entry) (*model.Report, error) {
	report := model.NewReport(key)
	lines := strings.Split(code, "\n")

	issues, err := e.detectIssues(code, lines, entry)
	if err != nil {
		return nil, fmt.Errorf("detecting issues: %w", err)
	}
	report.Issues = append(report.Issues, issues...)

	suggestions, err := e.suggest(code, lines, entry)
	if err != nil {
		return nil, fmt.Errorf("collecting suggestions: %w", err)
	}
	report.Suggestions = append(report.Suggestions, suggestions...)

	if len(report.Issues) > 0 {
		fixed, err := e.fix(code, report.Issues, entry)
		if err != nil {
			return nil, fmt.Errorf("synthesizing fix: %w", err)
		}
		report.FixedCode = &fixed
	}

	e.log.Debug("Analyzed %d lines (lang=%s): %d issues, %d suggestions",
		len(lines), key, len(report.Issues), len(report.Suggestions))

	return report, nil
}
