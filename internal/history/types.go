// Package history stores analysis results in SQLite so past runs can be
// listed, searched by issue title and summarized.
package history

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("history record not found")

// SourceSnippet marks analyses of code that did not come from a file.
const SourceSnippet = "snippet"

// Record is one stored analysis.
type Record struct {
	ID         string        `json:"id"`
	Source     string        `json:"source"`
	Language   string        `json:"language"`
	CodeHash   string        `json:"code_hash"`
	IssueCount int           `json:"issue_count"`
	Errors     int           `json:"errors"`
	Warnings   int           `json:"warnings"`
	Infos      int           `json:"infos"`
	Fixed      bool          `json:"fixed"`
	CreatedAt  time.Time     `json:"created_at"`
	Issues     []IssueRecord `json:"issues,omitempty"`
}

// IssueRecord is one issue of a stored analysis.
type IssueRecord struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Location string `json:"location"`
}

// Query filters List results. Zero values mean "any".
type Query struct {
	// Text is an FTS5 query matched against issue titles.
	Text string
	// Source filters by file path; '*' acts as a wildcard.
	Source   string
	Language string
	// Severity keeps analyses with at least one issue of this severity.
	Severity string
	Since    time.Time
	Limit    int
	Offset   int
}

// ListResult is a page of records plus the total number of matches.
type ListResult struct {
	Records    []Record `json:"records"`
	TotalCount int64    `json:"total_count"`
}

// Stats contains aggregate statistics over all stored analyses.
type Stats struct {
	TotalAnalyses int64            `json:"total_analyses"`
	TotalIssues   int64            `json:"total_issues"`
	FixedAnalyses int64            `json:"fixed_analyses"`
	BySeverity    map[string]int64 `json:"by_severity"`
	ByLanguage    map[string]int64 `json:"by_language"`
	TopIssues     []TitleCount     `json:"top_issues"`
}

// TitleCount is how often an issue title was raised.
type TitleCount struct {
	Title string `json:"title"`
	Count int64  `json:"count"`
}
