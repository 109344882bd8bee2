// Package model holds the value types produced by an analysis.
package model

import "strings"

// Severity indicates how serious an issue is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rank orders severities from least (info) to most (error) serious.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// ParseSeverity converts a string to a Severity. Unknown values map to info.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, true
	case "warning", "warn":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	default:
		return SeverityInfo, false
	}
}

// Issue is a detected problem in a code snippet.
type Issue struct {
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
}

// Suggestion is a non-blocking improvement tip.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// Report is the result of analyzing one snippet.
// The JSON shape is the contract with the chat front-end.
type Report struct {
	Language    string       `json:"language"`
	Issues      []Issue      `json:"issues"`
	Suggestions []Suggestion `json:"suggestions"`
	FixedCode   *string      `json:"fixedCode"`
}

// NewReport returns an empty report for the given language.
func NewReport(language string) *Report {
	return &Report{
		Language:    language,
		Issues:      make([]Issue, 0),
		Suggestions: make([]Suggestion, 0),
	}
}

// HasIssue reports whether an issue with the exact title was raised.
func (r *Report) HasIssue(title string) bool {
	for _, issue := range r.Issues {
		if issue.Title == title {
			return true
		}
	}
	return false
}

// CountBySeverity tallies issues per severity.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}

// MaxSeverity returns the most serious severity present, or "" when there are no issues.
func (r *Report) MaxSeverity() Severity {
	var max Severity
	for _, issue := range r.Issues {
		if max == "" || issue.Severity.Rank() > max.Rank() {
			max = issue.Severity
		}
	}
	return max
}

// Filter returns a copy of the report keeping only issues at or above minSeverity.
// Suggestions and fixed code are kept as-is.
func (r *Report) Filter(minSeverity Severity) *Report {
	out := *r
	out.Issues = make([]Issue, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Severity.Rank() >= minSeverity.Rank() {
			out.Issues = append(out.Issues, issue)
		}
	}
	return &out
}
