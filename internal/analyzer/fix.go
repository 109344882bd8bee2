package analyzer

import (
	"strings"

	"github.com/devchat-app/aidebug/internal/catalog"
	"github.com/devchat-app/aidebug/internal/model"
)

// Snippets longer than this get per-function placeholder comments.
const minLinesForFunctionComments = 15

// fix applies catalog fixes in issue order, then adds placeholder
// comments when the snippet has none. A title raised twice applies its
// fix twice.
func (e *Engine) fix(code string, issues []model.Issue, entry *catalog.Entry) (string, error) {
	fixed := code
	missingComments := false

	for _, issue := range issues {
		if issue.Title == TitleMissingComments {
			missingComments = true
		}
		f, ok := entry.FixFor(issue.Title)
		if !ok {
			continue
		}
		p, err := e.compiler.Compile(f.Pattern)
		if err != nil {
			return "", err
		}
		fixed, err = p.ReplaceAll(fixed, f.Replacement)
		if err != nil {
			return "", err
		}
	}

	if !missingComments {
		return fixed, nil
	}

	prefix := entry.CommentPrefix()
	lines := strings.Split(fixed, "\n")
	if len(lines) > minLinesForFunctionComments {
		annotated, err := e.annotateFunctions(lines, entry)
		if err != nil {
			return "", err
		}
		lines = annotated
	}

	return prefix + " Main code implementation\n" + strings.Join(lines, "\n"), nil
}

// annotateFunctions inserts a placeholder comment above each function
// signature. Nesting is not tracked: the in-function flag clears on the
// first line containing '{', which is usually the signature itself.
func (e *Engine) annotateFunctions(lines []string, entry *catalog.Entry) ([]string, error) {
	if entry.FunctionDefinition == "" {
		return lines, nil
	}

	def, err := e.compiler.Compile(entry.FunctionDefinition)
	if err != nil {
		return nil, err
	}
	prefix := entry.CommentPrefix()

	out := make([]string, 0, len(lines)+4)
	inFunction := false
	for _, line := range lines {
		if !inFunction {
			ok, err := def.Match(line)
			if err != nil {
				return nil, err
			}
			if ok {
				inFunction = true
				name, err := e.functionName(line, entry)
				if err != nil {
					return nil, err
				}
				out = append(out, prefix+" "+name+": Add description here")
			}
		}

		out = append(out, line)

		if inFunction && strings.Contains(line, "{") {
			inFunction = false
		}
	}
	return out, nil
}

func (e *Engine) functionName(line string, entry *catalog.Entry) (string, error) {
	if entry.FunctionNameExtraction == "" {
		return "function", nil
	}
	p, err := e.compiler.Compile(entry.FunctionNameExtraction)
	if err != nil {
		return "", err
	}
	name, ok, err := p.FirstGroup(line)
	if err != nil {
		return "", err
	}
	if !ok {
		return "function", nil
	}
	return name, nil
}
