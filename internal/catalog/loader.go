package catalog

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var embeddedEntries embed.FS

// Loader builds a Catalog from the embedded defaults and an optional
// directory of custom language files.
type Loader struct {
	rulesDir        string
	defaultLanguage string
}

// NewLoader creates a loader. An empty defaultLanguage selects DefaultLanguage.
func NewLoader(rulesDir, defaultLanguage string) *Loader {
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	return &Loader{rulesDir: rulesDir, defaultLanguage: defaultLanguage}
}

// Load reads all entries. Custom files replace embedded entries that
// declare the same language key.
func (l *Loader) Load() (*Catalog, error) {
	entries, err := l.loadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("loading embedded catalog: %w", err)
	}

	if l.rulesDir != "" {
		custom, err := l.loadFromDir(l.rulesDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading custom rules: %w", err)
		}
		entries = append(entries, custom...)
	}

	return New(entries, l.defaultLanguage)
}

func (l *Loader) loadEmbedded() ([]*Entry, error) {
	files, err := embeddedEntries.ReadDir("defaults")
	if err != nil {
		return nil, err
	}

	var entries []*Entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := embeddedEntries.ReadFile("defaults/" + f.Name())
		if err != nil {
			return nil, err
		}
		entry, err := parseEntryYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Name(), err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *Loader) loadFromDir(dir string) ([]*Entry, error) {
	var entries []*Entry

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		entry, err := parseEntryYAML(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		entries = append(entries, entry)
		return nil
	})

	return entries, err
}

func parseEntryYAML(data []byte) (*Entry, error) {
	var entry Entry
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	entry.Language = strings.ToLower(strings.TrimSpace(entry.Language))
	if entry.Language == "" {
		return nil, fmt.Errorf("missing language key")
	}
	if len(entry.CommentPatterns) == 0 {
		return nil, fmt.Errorf("language %s: at least one comment pattern is required", entry.Language)
	}
	if len(entry.Extensions) == 0 {
		return nil, fmt.Errorf("language %s: at least one extension is required", entry.Language)
	}
	return &entry, nil
}
