// Package pattern compiles rule patterns written in JavaScript regular
// expression syntax.
//
// Catalog patterns rely on backreferences (e.g. `\1\s+\2`) and `$n`
// replacement groups, which the standard library's RE2 engine does not
// support, so expressions are compiled with regexp2 in ECMAScript mode.
// Offsets returned by this package are rune offsets.
package pattern

import (
	"fmt"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single match or replace call.
const DefaultMatchTimeout = 2 * time.Second

// Error reports a pattern that failed to compile or evaluate.
type Error struct {
	Pattern string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pattern %q: %s: %v", e.Pattern, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Compiler compiles and caches patterns. It is safe for concurrent use.
type Compiler struct {
	timeout time.Duration
	cache   sync.Map // source -> *Pattern
}

// NewCompiler creates a compiler whose patterns give up after timeout.
// A non-positive timeout selects DefaultMatchTimeout.
func NewCompiler(timeout time.Duration) *Compiler {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	return &Compiler{timeout: timeout}
}

// Compile returns the compiled pattern for expr, reusing a cached one when possible.
func (c *Compiler) Compile(expr string) (*Pattern, error) {
	if cached, ok := c.cache.Load(expr); ok {
		return cached.(*Pattern), nil
	}

	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err != nil {
		return nil, &Error{Pattern: expr, Op: "compile", Err: err}
	}
	re.MatchTimeout = c.timeout

	p := &Pattern{source: expr, re: re}
	actual, _ := c.cache.LoadOrStore(expr, p)
	return actual.(*Pattern), nil
}

// Pattern is a compiled expression.
type Pattern struct {
	source string
	re     *regexp2.Regexp
}

// Source returns the expression text.
func (p *Pattern) Source() string { return p.source }

// Match reports whether the pattern matches anywhere in s.
func (p *Pattern) Match(s string) (bool, error) {
	ok, err := p.re.MatchString(s)
	if err != nil {
		return false, &Error{Pattern: p.source, Op: "match", Err: err}
	}
	return ok, nil
}

// Index returns the rune offset of the first match in s.
func (p *Pattern) Index(s string) (int, bool, error) {
	m, err := p.re.FindStringMatch(s)
	if err != nil {
		return 0, false, &Error{Pattern: p.source, Op: "find", Err: err}
	}
	if m == nil {
		return 0, false, nil
	}
	return m.Index, true, nil
}

// FirstGroup returns the first non-empty capture group of the first match in s.
func (p *Pattern) FirstGroup(s string) (string, bool, error) {
	m, err := p.re.FindStringMatch(s)
	if err != nil {
		return "", false, &Error{Pattern: p.source, Op: "find", Err: err}
	}
	if m == nil {
		return "", false, nil
	}
	groups := m.Groups()
	for i := 1; i < len(groups); i++ {
		if len(groups[i].Captures) == 0 {
			continue
		}
		if v := groups[i].String(); v != "" {
			return v, true, nil
		}
	}
	return "", false, nil
}

// ReplaceAll replaces every match in s. The replacement may reference
// capture groups as $1, $2, ...
func (p *Pattern) ReplaceAll(s, replacement string) (string, error) {
	out, err := p.re.Replace(s, replacement, -1, -1)
	if err != nil {
		return "", &Error{Pattern: p.source, Op: "replace", Err: err}
	}
	return out, nil
}
