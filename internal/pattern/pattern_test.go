package pattern

import (
	"errors"
	"sync"
	"testing"
)

func TestCompileCachesPatterns(t *testing.T) {
	c := NewCompiler(0)

	p1, err := c.Compile(`var\s+`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	p2, err := c.Compile(`var\s+`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if p1 != p2 {
		t.Error("Compile() returned different instances for the same source")
	}
	if p1.Source() != `var\s+` {
		t.Errorf("Source() = %q, want %q", p1.Source(), `var\s+`)
	}
}

func TestCompileInvalid(t *testing.T) {
	c := NewCompiler(0)

	_, err := c.Compile(`(unclosed`)
	if err == nil {
		t.Fatal("Compile() error = nil, want error")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if perr.Op != "compile" {
		t.Errorf("Op = %q, want compile", perr.Op)
	}
}

func TestBackreferences(t *testing.T) {
	c := NewCompiler(0)
	p, err := c.Compile(`(var|let|const)\s+([\w$]+).*\n.*\1\s+\2`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	tests := []struct {
		input string
		want  bool
	}{
		{"let a = 1;\nlet a = 2;", true},
		{"let a = 1;\nlet b = 2;", false},
		{"const x = 1;", false},
	}

	for _, tt := range tests {
		got, err := p.Match(tt.input)
		if err != nil {
			t.Fatalf("Match(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIndexIsRuneOffset(t *testing.T) {
	c := NewCompiler(0)
	p, _ := c.Compile(`console`)

	idx, ok, err := p.Index("é\nconsole.log(1)")
	if err != nil || !ok {
		t.Fatalf("Index() = %d, %v, %v", idx, ok, err)
	}
	if idx != 2 {
		t.Errorf("Index() = %d, want 2", idx)
	}

	_, ok, _ = p.Index("nothing here")
	if ok {
		t.Error("Index() found a match in text without one")
	}
}

func TestFirstGroup(t *testing.T) {
	c := NewCompiler(0)
	p, _ := c.Compile(`function\s+([\w$]+)|([\w$]+)\s*=`)

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"function compute(a, b) {", "compute", true},
		{"const handler = function (e) {", "handler", true},
		{"return 1;", "", false},
	}

	for _, tt := range tests {
		got, ok, err := p.FirstGroup(tt.input)
		if err != nil {
			t.Fatalf("FirstGroup(%q) error = %v", tt.input, err)
		}
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FirstGroup(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestReplaceAll(t *testing.T) {
	c := NewCompiler(0)

	tests := []struct {
		pattern     string
		replacement string
		input       string
		want        string
	}{
		{`var\s+([\w$]+)`, "let $1", "var a = 1; var b = 2;", "let a = 1; let b = 2;"},
		{`(console\.log\([^)]*\));`, "// $1;", "console.log(x);", "// console.log(x);"},
		{`(==)\s*(null|undefined)`, "=== $2", "x == null", "x === null"},
		{`parseInt\(([^,)]*)\)`, "parseInt($1, 10)", "parseInt(s)", "parseInt(s, 10)"},
		{`except:`, "except Exception:", "except:\n    pass", "except Exception:\n    pass"},
	}

	for _, tt := range tests {
		p, err := c.Compile(tt.pattern)
		if err != nil {
			t.Fatalf("Compile(%q) error = %v", tt.pattern, err)
		}
		got, err := p.ReplaceAll(tt.input, tt.replacement)
		if err != nil {
			t.Fatalf("ReplaceAll() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("ReplaceAll(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestConcurrentCompile(t *testing.T) {
	c := NewCompiler(0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Compile(`\w+\s*\{[^}]*$`)
			if err != nil {
				t.Errorf("Compile() error = %v", err)
				return
			}
			if _, err := p.Match("if (x) {"); err != nil {
				t.Errorf("Match() error = %v", err)
			}
		}()
	}
	wg.Wait()
}
