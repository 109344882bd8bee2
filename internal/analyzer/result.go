package analyzer

import (
	"time"

	"github.com/devchat-app/aidebug/internal/model"
)

// FileResult is the outcome for one input of a batch.
type FileResult struct {
	File     string        `json:"file"`
	Language string        `json:"language"`
	Report   *model.Report `json:"report,omitempty"`
	Error    string        `json:"error,omitempty"`
	Cached   bool          `json:"cached"`
	Duration time.Duration `json:"duration"`

	Err error `json:"-"`
}

// BatchResult aggregates a batch run. Files keep input order.
type BatchResult struct {
	TotalIssues int                    `json:"total_issues"`
	BySeverity  map[model.Severity]int `json:"by_severity"`
	Failed      int                    `json:"failed"`
	Duration    time.Duration          `json:"duration"`
	Files       []FileResult           `json:"files"`
}

func newBatchResult(n int) *BatchResult {
	return &BatchResult{
		BySeverity: make(map[model.Severity]int, 3),
		Files:      make([]FileResult, n),
	}
}

func (b *BatchResult) tally() {
	b.TotalIssues, b.Failed = 0, 0
	for k := range b.BySeverity {
		delete(b.BySeverity, k)
	}
	for _, f := range b.Files {
		if f.Err != nil {
			b.Failed++
			continue
		}
		if f.Report == nil {
			continue
		}
		b.TotalIssues += len(f.Report.Issues)
		for sev, n := range f.Report.CountBySeverity() {
			b.BySeverity[sev] += n
		}
	}
}

// HasErrors reports whether any file raised an error-severity issue.
func (b *BatchResult) HasErrors() bool {
	return b.BySeverity[model.SeverityError] > 0
}

// Filter returns a copy keeping only issues at or above minSeverity.
func (b *BatchResult) Filter(minSeverity model.Severity) *BatchResult {
	out := &BatchResult{
		BySeverity: make(map[model.Severity]int, 3),
		Duration:   b.Duration,
		Files:      make([]FileResult, len(b.Files)),
	}
	for i, f := range b.Files {
		if f.Report != nil {
			f.Report = f.Report.Filter(minSeverity)
		}
		out.Files[i] = f
	}
	out.tally()
	return out
}
