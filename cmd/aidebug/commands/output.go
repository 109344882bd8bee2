package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// writeOutput writes the report to a file, or to w when outputPath is empty.
func writeOutput(w, status io.Writer, content, outputPath string) error {
	if outputPath == "" {
		_, err := io.WriteString(w, content)
		return err
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	if !quiet {
		fmt.Fprintf(status, "Report written to: %s\n", outputPath)
	}
	return nil
}

// detectFormatFromPath infers the output format from file extension.
func detectFormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".sarif":
		return "sarif"
	case ".md", ".markdown":
		return "markdown"
	case ".txt", ".log":
		return "console"
	default:
		return ""
	}
}

// stdinIsPiped reports whether stdin is a pipe or file rather than a terminal.
func stdinIsPiped(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return in != nil
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}
