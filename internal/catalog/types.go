package catalog

// Rule pairs a detection pattern with the issue it raises.
type Rule struct {
	Pattern     string `yaml:"pattern" json:"pattern"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Tip is an advisory suggestion.
type Tip struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Example     string `yaml:"example" json:"example"`
}

// ReadabilityTip is a Tip offered only when DetectPattern matches.
type ReadabilityTip struct {
	DetectPattern string `yaml:"detect_pattern" json:"detectPattern"`
	Title         string `yaml:"title" json:"title"`
	Description   string `yaml:"description" json:"description"`
	Example       string `yaml:"example" json:"example"`
}

// Fix rewrites code for the issue whose title equals IssueTitle.
type Fix struct {
	IssueTitle  string `yaml:"issue_title" json:"issueTitle"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" json:"replacement"`
}

// Entry holds every rule for one language. List order is significant:
// issues, suggestions and fixes are produced in declaration order.
type Entry struct {
	Language   string   `yaml:"language" json:"language"`
	Name       string   `yaml:"name" json:"name"`
	Extensions []string `yaml:"extensions" json:"extensions"`

	SyntaxErrors  []Rule `yaml:"syntax_errors" json:"syntaxErrors"`
	PotentialBugs []Rule `yaml:"potential_bugs" json:"potentialBugs"`
	StyleIssues   []Rule `yaml:"style_issues" json:"styleIssues"`

	CommentPatterns        []string `yaml:"comment_patterns" json:"commentPatterns"`
	FunctionDefinition     string   `yaml:"function_definition" json:"functionDefinition"`
	FunctionNameExtraction string   `yaml:"function_name_extraction" json:"functionNameExtraction"`

	BestPractices   []Tip            `yaml:"best_practices" json:"bestPractices"`
	PerformanceTips []Tip            `yaml:"performance_tips" json:"performanceTips"`
	ReadabilityTips []ReadabilityTip `yaml:"readability_tips" json:"readabilityTips"`

	Fixes []Fix `yaml:"fixes" json:"fixes"`
}

// FixFor returns the first fix registered for an issue title.
func (e *Entry) FixFor(title string) (Fix, bool) {
	for _, f := range e.Fixes {
		if f.IssueTitle == title {
			return f, true
		}
	}
	return Fix{}, false
}

// CommentPrefix is the marker used when synthesizing comments.
func (e *Entry) CommentPrefix() string {
	if len(e.CommentPatterns) == 0 {
		return ""
	}
	return e.CommentPatterns[0]
}

// Patterns lists every expression in the entry, in declaration order.
func (e *Entry) Patterns() []string {
	var out []string
	for _, group := range [][]Rule{e.SyntaxErrors, e.PotentialBugs, e.StyleIssues} {
		for _, r := range group {
			out = append(out, r.Pattern)
		}
	}
	out = append(out, e.CommentPatterns...)
	if e.FunctionDefinition != "" {
		out = append(out, e.FunctionDefinition)
	}
	if e.FunctionNameExtraction != "" {
		out = append(out, e.FunctionNameExtraction)
	}
	for _, t := range e.ReadabilityTips {
		out = append(out, t.DetectPattern)
	}
	for _, f := range e.Fixes {
		out = append(out, f.Pattern)
	}
	return out
}
