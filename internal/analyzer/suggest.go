package analyzer

import (
	"unicode/utf8"

	"github.com/devchat-app/aidebug/internal/catalog"
	"github.com/devchat-app/aidebug/internal/model"
)

// Snippets beyond either bound are complex enough for performance tips.
const (
	complexCharThreshold = 200
	complexLineThreshold = 20
)

func isComplex(code string, lines []string) bool {
	return utf8.RuneCountInString(code) > complexCharThreshold || len(lines) > complexLineThreshold
}

func (e *Engine) suggest(code string, lines []string, entry *catalog.Entry) ([]model.Suggestion, error) {
	var out []model.Suggestion

	for _, tip := range entry.BestPractices {
		out = append(out, suggestion(tip))
	}

	if isComplex(code, lines) {
		for _, tip := range entry.PerformanceTips {
			out = append(out, suggestion(tip))
		}
	}

	for _, tip := range entry.ReadabilityTips {
		p, err := e.compiler.Compile(tip.DetectPattern)
		if err != nil {
			return nil, err
		}
		ok, err := p.Match(code)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, model.Suggestion{
				Title:       tip.Title,
				Description: tip.Description,
				Example:     tip.Example,
			})
		}
	}

	return out, nil
}

func suggestion(t catalog.Tip) model.Suggestion {
	return model.Suggestion{Title: t.Title, Description: t.Description, Example: t.Example}
}
