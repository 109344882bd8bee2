package report

import (
	"encoding/json"
	"io"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/model"
)

// SARIFReporter generates SARIF 2.1.0 reports.
type SARIFReporter struct {
	opts Options
}

func (r *SARIFReporter) Format() string { return "sarif" }

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// sarifFix carries the whole fixed snippet as a description; the engine
// rewrites the snippet as a unit, so there are no per-region replacements.
type sarifFix struct {
	Description sarifMessage `json:"description"`
}

func (r *SARIFReporter) Generate(result *analyzer.BatchResult) (string, error) {
	return generate(r, result)
}

func (r *SARIFReporter) Write(result *analyzer.BatchResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r.buildReport(result))
}

func (r *SARIFReporter) buildReport(result *analyzer.BatchResult) *sarifReport {
	version := r.opts.Version
	if version == "" {
		version = "dev"
	}

	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "aidebug", Version: version}},
		Results: []sarifResult{},
	}
	seen := make(map[string]bool)

	for _, file := range result.Files {
		if file.Report == nil {
			continue
		}
		fixed := r.opts.fixedCode(file.Report)

		for _, issue := range file.Report.Issues {
			id := Slug(issue.Title)
			if !seen[id] {
				seen[id] = true
				run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
					ID:               id,
					Name:             issue.Title,
					ShortDescription: sarifMessage{Text: issue.Description},
				})
			}

			res := sarifResult{
				RuleID:  id,
				Level:   r.mapLevel(issue.Severity),
				Message: sarifMessage{Text: issue.Title + ": " + issue.Description},
			}

			loc := sarifLocation{}
			loc.PhysicalLocation.ArtifactLocation.URI = file.File
			if line := lineNumber(issue.Location); line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: line}
			}
			res.Locations = append(res.Locations, loc)

			if fixed != "" {
				res.Fixes = []sarifFix{{Description: sarifMessage{Text: fixed}}}
			}

			run.Results = append(run.Results, res)
		}
	}

	return &sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
}

func (r *SARIFReporter) mapLevel(severity model.Severity) string {
	switch severity {
	case model.SeverityError:
		return "error"
	case model.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
