package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/model"
)

func sampleResult() *analyzer.BatchResult {
	fixed := "let x = 5;\nif (x === null) {}"
	return &analyzer.BatchResult{
		TotalIssues: 3,
		BySeverity: map[model.Severity]int{
			model.SeverityError:   1,
			model.SeverityWarning: 1,
			model.SeverityInfo:    1,
		},
		Failed:   1,
		Duration: 15 * time.Millisecond,
		Files: []analyzer.FileResult{
			{
				File:     "app.js",
				Language: "javascript",
				Report: &model.Report{
					Language: "javascript",
					Issues: []model.Issue{
						{Severity: model.SeverityError, Title: "Missing semicolon", Description: "Statement might be missing a semicolon.", Location: "Line 1"},
						{Severity: model.SeverityWarning, Title: "Loose equality", Description: "Use === instead of ==.", Location: "Line 2"},
						{Severity: model.SeverityInfo, Title: "Using var", Description: "Prefer let or const.", Location: "Unknown"},
					},
					Suggestions: []model.Suggestion{
						{Title: "Use const and let", Description: "Prefer block scoped declarations.", Example: "const x = 1;"},
					},
					FixedCode: &fixed,
				},
			},
			{
				File:     "clean.py",
				Language: "python",
				Cached:   true,
				Report:   model.NewReport("python"),
			},
			{
				File:  "missing.js",
				Error: "open missing.js: no such file or directory",
			},
		},
	}
}

func TestNewReporter(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"console", "console", false},
		{"", "console", false},
		{"markdown", "markdown", false},
		{"md", "markdown", false},
		{"JSON", "json", false},
		{"sarif", "sarif", false},
		{"html", "", true},
	}

	for _, tt := range tests {
		r, err := NewReporter(tt.format, Options{})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewReporter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			continue
		}
		if err == nil && r.Format() != tt.want {
			t.Errorf("NewReporter(%q).Format() = %q, want %q", tt.format, r.Format(), tt.want)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Missing semicolon", "missing-semicolon"},
		{"Bare except", "bare-except"},
		{"Using 'any' type", "using-any-type"},
		{"  Empty code snippet ", "empty-code-snippet"},
	}
	for _, tt := range tests {
		if got := Slug(tt.title); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestLineNumber(t *testing.T) {
	tests := []struct {
		location string
		want     int
	}{
		{"Line 1", 1},
		{"Line 42", 42},
		{"Unknown", 0},
		{"N/A", 0},
		{"Throughout code", 0},
		{"Line x", 0},
	}
	for _, tt := range tests {
		if got := lineNumber(tt.location); got != tt.want {
			t.Errorf("lineNumber(%q) = %d, want %d", tt.location, got, tt.want)
		}
	}
}

func TestConsoleReporter(t *testing.T) {
	r, _ := NewReporter("console", Options{Color: false, IncludeFixed: true})
	out, err := r.Generate(sampleResult())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	wants := []string{
		"app.js (javascript)",
		"ERROR Missing semicolon (Line 1)",
		"WARN  Loose equality (Line 2)",
		"INFO  Using var (Unknown)",
		"Suggestions:",
		"- Use const and let: Prefer block scoped declarations.",
		"Fixed code:",
		"    if (x === null) {}",
		"clean.py (python) [cached]",
		"No issues found",
		"error: open missing.js",
		"3 inputs, 3 issues (1 errors, 1 warnings, 1 info), 1 failed in 15ms",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("console output contains ANSI escapes with color disabled")
	}
}

func TestConsoleReporterColor(t *testing.T) {
	r, _ := NewReporter("console", Options{Color: true})
	out, _ := r.Generate(sampleResult())
	if !strings.Contains(out, "\x1b[") {
		t.Error("console output has no ANSI escapes with color enabled")
	}
	if strings.Contains(out, "Fixed code:") {
		t.Error("fixed code printed without IncludeFixed")
	}
}

func TestMarkdownReporter(t *testing.T) {
	r, _ := NewReporter("markdown", Options{IncludeFixed: true})
	out, err := r.Generate(sampleResult())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	wants := []string{
		"# Code Analysis Report",
		"- **Total Issues:** 3",
		"- **Errors / Warnings / Info:** 1 / 1 / 1",
		"- **Failed:** 1",
		"## app.js (javascript)",
		"#### [ERROR] Missing semicolon",
		"**Location:** Line 2",
		"### Suggestions",
		"  `const x = 1;`",
		"```javascript\nlet x = 5;",
		"_Cached result_",
		"Error: open missing.js",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestJSONReporterHidesFixedCode(t *testing.T) {
	tests := []struct {
		name         string
		includeFixed bool
		wantFixed    bool
	}{
		{"hidden", false, false},
		{"included", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sampleResult()
			r, _ := NewReporter("json", Options{IncludeFixed: tt.includeFixed})
			out, err := r.Generate(result)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}

			var decoded analyzer.BatchResult
			if err := json.Unmarshal([]byte(out), &decoded); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
			if decoded.TotalIssues != 3 {
				t.Errorf("TotalIssues = %d, want 3", decoded.TotalIssues)
			}
			gotFixed := decoded.Files[0].Report.FixedCode != nil
			if gotFixed != tt.wantFixed {
				t.Errorf("fixedCode present = %v, want %v", gotFixed, tt.wantFixed)
			}
			if result.Files[0].Report.FixedCode == nil {
				t.Error("Generate() mutated the input result")
			}
		})
	}
}

func TestSARIFReporter(t *testing.T) {
	r, _ := NewReporter("sarif", Options{Version: "1.2.3"})
	out, err := r.Generate(sampleResult())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var doc sarifReport
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Version != "2.1.0" {
		t.Errorf("version = %q, want 2.1.0", doc.Version)
	}
	run := doc.Runs[0]
	if run.Tool.Driver.Name != "aidebug" || run.Tool.Driver.Version != "1.2.3" {
		t.Errorf("driver = %+v", run.Tool.Driver)
	}
	if len(run.Tool.Driver.Rules) != 3 {
		t.Errorf("rules = %d, want 3", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(run.Results))
	}

	wantLevels := []string{"error", "warning", "note"}
	for i, res := range run.Results {
		if res.Level != wantLevels[i] {
			t.Errorf("results[%d].Level = %q, want %q", i, res.Level, wantLevels[i])
		}
		if res.Locations[0].PhysicalLocation.ArtifactLocation.URI != "app.js" {
			t.Errorf("results[%d] uri = %q", i, res.Locations[0].PhysicalLocation.ArtifactLocation.URI)
		}
		if len(res.Fixes) != 0 {
			t.Errorf("results[%d] has fixes without IncludeFixed", i)
		}
	}
	if run.Results[0].RuleID != "missing-semicolon" {
		t.Errorf("ruleId = %q, want missing-semicolon", run.Results[0].RuleID)
	}
	if region := run.Results[1].Locations[0].PhysicalLocation.Region; region == nil || region.StartLine != 2 {
		t.Errorf("results[1] region = %+v, want startLine 2", region)
	}
	if run.Results[2].Locations[0].PhysicalLocation.Region != nil {
		t.Error("results[2] has a region for an unknown location")
	}
}

func TestSARIFRulesDeduplicated(t *testing.T) {
	result := &analyzer.BatchResult{
		BySeverity: map[model.Severity]int{},
		Files: []analyzer.FileResult{
			{File: "a.js", Report: &model.Report{Issues: []model.Issue{{Severity: model.SeverityWarning, Title: "Loose equality", Location: "Line 1"}}}},
			{File: "b.js", Report: &model.Report{Issues: []model.Issue{{Severity: model.SeverityWarning, Title: "Loose equality", Location: "Line 3"}}}},
		},
	}
	doc := (&SARIFReporter{}).buildReport(result)
	if len(doc.Runs[0].Tool.Driver.Rules) != 1 {
		t.Errorf("rules = %d, want 1", len(doc.Runs[0].Tool.Driver.Rules))
	}
	if len(doc.Runs[0].Results) != 2 {
		t.Errorf("results = %d, want 2", len(doc.Runs[0].Results))
	}
	if doc.Runs[0].Tool.Driver.Version != "dev" {
		t.Errorf("version = %q, want dev", doc.Runs[0].Tool.Driver.Version)
	}
}
