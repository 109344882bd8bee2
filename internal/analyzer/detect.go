package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/devchat-app/aidebug/internal/catalog"
	"github.com/devchat-app/aidebug/internal/model"
)

const (
	locationUnknown    = "Unknown"
	locationThroughout = "Throughout code"

	// Comment density is only judged above this many lines.
	minLinesForDensity = 5
)

func (e *Engine) detectIssues(code string, lines []string, entry *catalog.Entry) ([]model.Issue, error) {
	groups := []struct {
		severity model.Severity
		rules    []catalog.Rule
	}{
		{model.SeverityError, entry.SyntaxErrors},
		{model.SeverityWarning, entry.PotentialBugs},
		{model.SeverityInfo, entry.StyleIssues},
	}

	var issues []model.Issue
	for _, g := range groups {
		for _, rule := range g.rules {
			p, err := e.compiler.Compile(rule.Pattern)
			if err != nil {
				return nil, err
			}
			offset, found, err := p.Index(code)
			if err != nil {
				return nil, err
			}
			if !found {
				continue
			}
			issues = append(issues, model.Issue{
				Severity:    g.severity,
				Title:       rule.Title,
				Description: rule.Description,
				Location:    locate(lines, offset),
			})
		}
	}

	density, err := e.commentDensity(lines, entry)
	if err != nil {
		return nil, err
	}
	if density != nil {
		issues = append(issues, *density)
	}

	return issues, nil
}

// commentDensity returns at most one issue about missing or sparse comments.
func (e *Engine) commentDensity(lines []string, entry *catalog.Entry) (*model.Issue, error) {
	if len(lines) <= minLinesForDensity {
		return nil, nil
	}

	comments, err := e.countCommentLines(lines, entry)
	if err != nil {
		return nil, err
	}

	switch {
	case comments == 0:
		return &model.Issue{
			Severity:    model.SeverityInfo,
			Title:       TitleMissingComments,
			Description: "Adding comments to your code will make it more maintainable.",
			Location:    locationThroughout,
		}, nil
	case float64(comments) < float64(len(lines))/10:
		return &model.Issue{
			Severity:    model.SeverityInfo,
			Title:       TitleSparseComments,
			Description: "Consider adding more comments to explain complex logic.",
			Location:    locationThroughout,
		}, nil
	default:
		return nil, nil
	}
}

func (e *Engine) countCommentLines(lines []string, entry *catalog.Entry) (int, error) {
	count := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, expr := range entry.CommentPatterns {
			p, err := e.compiler.Compile(expr)
			if err != nil {
				return 0, err
			}
			ok, err := p.Match(trimmed)
			if err != nil {
				return 0, err
			}
			if ok {
				count++
				break
			}
		}
	}
	return count, nil
}

// locate converts a rune offset into a "Line N" label.
func locate(lines []string, offset int) string {
	total := 0
	for i, line := range lines {
		total += utf8.RuneCountInString(line) + 1
		if total > offset {
			return fmt.Sprintf("Line %d", i+1)
		}
	}
	return locationUnknown
}
