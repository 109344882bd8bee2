package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/history"
)

// sandbox runs the test in an empty working directory with its own HOME,
// so config discovery, cache and history never touch the real ones.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("AIDEBUG_OUTPUT_COLOR", "false")
	return dir
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithStderr(t, stdin, args...)
	return out, err
}

func executeWithStderr(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeBatch(t *testing.T, out string) *analyzer.BatchResult {
	t.Helper()
	var res analyzer.BatchResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decoding batch result: %v\n%s", err, out)
	}
	return &res
}

func titles(fr analyzer.FileResult) []string {
	var out []string
	for _, issue := range fr.Report.Issues {
		out = append(out, issue.Title)
	}
	return out
}

func TestAnalyzeStdin(t *testing.T) {
	sandbox(t)

	out, err := execute(t, "var x = 1;\nconsole.log(x);", "analyze", "-l", "javascript", "-f", "json", "--show-fixed")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	res := decodeBatch(t, out)
	if len(res.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(res.Files))
	}
	fr := res.Files[0]
	if fr.File != history.SourceSnippet {
		t.Errorf("File = %q, want %q", fr.File, history.SourceSnippet)
	}
	got := strings.Join(titles(fr), ",")
	if got != "Console statement in code,Use of var keyword" && got != "Use of var keyword,Console statement in code" {
		t.Errorf("issues = %s, want var and console issues", got)
	}
	if fr.Report.FixedCode == nil || *fr.Report.FixedCode != "let x = 1;\n// console.log(x);" {
		t.Errorf("FixedCode = %v, want %q", fr.Report.FixedCode, "let x = 1;\n// console.log(x);")
	}
}

func TestAnalyzeHidesFixedCodeByDefault(t *testing.T) {
	sandbox(t)

	out, err := execute(t, "var x = 1;", "analyze", "-", "-f", "json")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	res := decodeBatch(t, out)
	if res.Files[0].Report.FixedCode != nil {
		t.Errorf("FixedCode = %q, want nil without --show-fixed", *res.Files[0].Report.FixedCode)
	}
}

func TestAnalyzeErrorSeverityExitCode(t *testing.T) {
	sandbox(t)

	_, err := execute(t, "const x;", "analyze", "-l", "javascript", "-f", "json")
	if !errors.Is(err, errIssuesFound) {
		t.Fatalf("analyze error = %v, want errIssuesFound", err)
	}
	if got := ExitCode(err); got != 1 {
		t.Errorf("ExitCode() = %d, want 1", got)
	}
}

func TestAnalyzeFilesMinSeverity(t *testing.T) {
	dir := sandbox(t)
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(filepath.Join(src, "node_modules"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"src/app.js":                "var x = 1;\nconsole.log(x);",
		"src/tool.py":               "print('hi')",
		"src/notes.txt":             "not code",
		"src/node_modules/lib/a.js": "var y = 2;",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := execute(t, "", "analyze", "src", "-f", "json", "--min-severity", "warning")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	res := decodeBatch(t, out)

	var names []string
	for _, f := range res.Files {
		names = append(names, filepath.ToSlash(f.File))
	}
	if got := strings.Join(names, ","); got != "src/app.js,src/tool.py" {
		t.Errorf("files = %s, want src/app.js,src/tool.py", got)
	}
	for _, issue := range res.Files[0].Report.Issues {
		if issue.Severity == "info" {
			t.Errorf("info issue %q survived --min-severity warning", issue.Title)
		}
	}
}

func TestAnalyzeOutputFile(t *testing.T) {
	dir := sandbox(t)
	target := filepath.Join(dir, "reports", "out.sarif")

	out, err := execute(t, "var x = 1;", "analyze", "-o", target)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want empty when writing to a file", out)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), `"version": "2.1.0"`) {
		t.Errorf("report is not SARIF:\n%s", data)
	}
}

func TestAnalyzeWatchNeedsPaths(t *testing.T) {
	sandbox(t)

	if _, err := execute(t, "var x;", "analyze", "--watch"); err == nil {
		t.Error("analyze --watch on stdin error = nil, want error")
	}
}

func TestFixDryRun(t *testing.T) {
	dir := sandbox(t)
	path := filepath.Join(dir, "app.js")
	orig := "var x = 1;\nconsole.log(x);"
	if err := os.WriteFile(path, []byte(orig), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "fix", path, "--dry-run")
	if err != nil {
		t.Fatalf("fix error = %v", err)
	}
	if !strings.Contains(out, "=== "+path+" (2 issues)") || !strings.Contains(out, "let x = 1;\n// console.log(x);") {
		t.Errorf("dry run output = %q", out)
	}

	data, _ := os.ReadFile(path)
	if string(data) != orig {
		t.Errorf("file changed by dry run: %q", data)
	}
}

func TestFixWritesBackup(t *testing.T) {
	dir := sandbox(t)
	path := filepath.Join(dir, "app.js")
	orig := "var x = 1;\nconsole.log(x);"
	if err := os.WriteFile(path, []byte(orig), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "", "fix", path, "--backup"); err != nil {
		t.Fatalf("fix error = %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{path, "let x = 1;\n// console.log(x);"},
		{path + ".orig", orig},
	}
	for _, tt := range tests {
		data, err := os.ReadFile(tt.path)
		if err != nil {
			t.Fatalf("reading %s: %v", tt.path, err)
		}
		if string(data) != tt.want {
			t.Errorf("%s = %q, want %q", filepath.Base(tt.path), data, tt.want)
		}
	}
}

func TestLanguagesJSON(t *testing.T) {
	sandbox(t)

	out, err := execute(t, "", "languages", "--json", "--check")
	if err != nil {
		t.Fatalf("languages error = %v", err)
	}

	var got []languageSummary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding languages: %v", err)
	}

	var keys []string
	for _, l := range got {
		keys = append(keys, l.Key)
		if l.Rules == 0 {
			t.Errorf("%s has no rules", l.Key)
		}
		if l.Default != (l.Key == "javascript") {
			t.Errorf("%s Default = %v", l.Key, l.Default)
		}
	}
	if strings.Join(keys, ",") != "javascript,python,typescript" {
		t.Errorf("keys = %v, want [javascript python typescript]", keys)
	}
}

func TestLanguagesTable(t *testing.T) {
	sandbox(t)

	out, err := execute(t, "", "languages")
	if err != nil {
		t.Fatalf("languages error = %v", err)
	}
	for _, want := range []string{"KEY", "javascript *", "Python", ".py"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInitCommand(t *testing.T) {
	dir := sandbox(t)

	if _, err := execute(t, "", "init"); err != nil {
		t.Fatalf("init error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".aidebug.yaml")); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if _, err := execute(t, "", "init"); err == nil {
		t.Error("second init error = nil, want error without --force")
	}
	if _, err := execute(t, "", "init", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	dir := sandbox(t)
	yml := "output:\n  format: markdown\nserver:\n  addr: \":9999\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".aidebug.yaml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "config", "show", "--json")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	var got struct {
		Output struct {
			Format string `json:"format"`
		} `json:"output"`
		Server struct {
			Addr string `json:"addr"`
		} `json:"server"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding config: %v\n%s", err, out)
	}
	if got.Output.Format != "markdown" || got.Server.Addr != ":9999" {
		t.Errorf("config = %+v, want markdown and :9999", got)
	}

	out, err = execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "# Config file:") || !strings.Contains(out, "format: markdown") {
		t.Errorf("yaml output = %s", out)
	}
}

func TestConfigFlagOverridesFile(t *testing.T) {
	dir := sandbox(t)
	if err := os.WriteFile(filepath.Join(dir, ".aidebug.yaml"), []byte("output:\n  format: markdown\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "var x = 1;", "analyze", "-f", "json")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("output is not JSON:\n%s", out)
	}

	out, err = execute(t, "var x = 1;", "analyze")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	if !strings.Contains(out, "# Code Analysis Report") {
		t.Errorf("output is not markdown:\n%s", out)
	}
}

func TestHistoryCommand(t *testing.T) {
	sandbox(t)

	if _, err := execute(t, "var x = 1;\nconsole.log(x);", "analyze", "-f", "json"); err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	out, err := execute(t, "", "history", "--json")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	var list history.ListResult
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if list.TotalCount != 1 || len(list.Records) != 1 {
		t.Fatalf("history = %+v, want one record", list)
	}
	if rec := list.Records[0]; rec.Source != history.SourceSnippet || rec.IssueCount != 2 {
		t.Errorf("record = %+v, want snippet with 2 issues", rec)
	}

	out, err = execute(t, "", "history", "--language", "python")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "No analyses found.") {
		t.Errorf("filtered output = %q", out)
	}

	out, err = execute(t, "", "history", "--stats")
	if err != nil {
		t.Fatalf("history --stats error = %v", err)
	}
	if !strings.Contains(out, "Analyses:       1") || !strings.Contains(out, "javascript") {
		t.Errorf("stats output = %s", out)
	}
}

func TestHistoryDisabled(t *testing.T) {
	sandbox(t)
	t.Setenv("AIDEBUG_HISTORY_ENABLED", "false")

	if _, err := execute(t, "", "history"); err == nil {
		t.Error("history error = nil, want error when disabled")
	}
}

func TestInvalidLogLevel(t *testing.T) {
	sandbox(t)

	if _, err := execute(t, "", "version", "--log-level", "loud"); err == nil {
		t.Error("error = nil, want invalid log level error")
	}
}

func TestLogsGoToCommandStderr(t *testing.T) {
	sandbox(t)

	_, stderr, _ := executeWithStderr(t, "", "analyze", "--log-level", "debug", "-f", "json", "missing.js")
	for _, want := range []string{"Input failed", "file=missing.js", "Analyzed 1 inputs"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}

	_, stderr, _ = executeWithStderr(t, "", "analyze", "--log-level", "error", "-f", "json", "missing.js")
	if strings.Contains(stderr, "Input failed") {
		t.Errorf("debug line written at error level:\n%s", stderr)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errIssuesFound, 1},
		{errors.New("boom"), 2},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestSplitArgs(t *testing.T) {
	paths, stdin := splitArgs([]string{"a.js", "-", "src"})
	if !stdin || strings.Join(paths, ",") != "a.js,src" {
		t.Errorf("splitArgs() = %v, %v", paths, stdin)
	}
	paths, stdin = splitArgs(nil)
	if stdin || len(paths) != 0 {
		t.Errorf("splitArgs(nil) = %v, %v", paths, stdin)
	}
}

func TestDetectFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"report.json", "json"},
		{"out/report.SARIF", "sarif"},
		{"report.md", "markdown"},
		{"report.markdown", "markdown"},
		{"report.txt", "console"},
		{"report", ""},
	}
	for _, tt := range tests {
		if got := detectFormatFromPath(tt.path); got != tt.want {
			t.Errorf("detectFormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
