package report

import (
	"encoding/json"
	"io"

	"github.com/devchat-app/aidebug/internal/analyzer"
)

// JSONReporter generates JSON reports.
type JSONReporter struct {
	Indent bool
	opts   Options
}

func (r *JSONReporter) Format() string { return "json" }

func (r *JSONReporter) Generate(result *analyzer.BatchResult) (string, error) {
	return generate(r, result)
}

func (r *JSONReporter) Write(result *analyzer.BatchResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if r.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(r.prepare(result))
}

// prepare drops fixed code from a shallow copy when fixes are hidden.
func (r *JSONReporter) prepare(result *analyzer.BatchResult) *analyzer.BatchResult {
	if r.opts.IncludeFixed {
		return result
	}
	out := *result
	out.Files = make([]analyzer.FileResult, len(result.Files))
	for i, f := range result.Files {
		if f.Report != nil {
			rep := *f.Report
			rep.FixedCode = nil
			f.Report = &rep
		}
		out.Files[i] = f
	}
	return &out
}
