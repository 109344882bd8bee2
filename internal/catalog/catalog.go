// Package catalog holds the per-language rule data driving the analyzer.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/devchat-app/aidebug/internal/pattern"
)

// DefaultLanguage is used when a requested language is unknown.
const DefaultLanguage = "javascript"

// Catalog maps language keys to entries. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	entries         map[string]*Entry
	extensions      map[string]string
	defaultLanguage string
	fingerprint     string
}

// New builds a catalog. Later entries replace earlier ones with the same key.
func New(entries []*Entry, defaultLanguage string) (*Catalog, error) {
	c := &Catalog{
		entries:         make(map[string]*Entry, len(entries)),
		extensions:      make(map[string]string),
		defaultLanguage: strings.ToLower(defaultLanguage),
	}

	for _, e := range entries {
		c.entries[e.Language] = e
	}
	if _, ok := c.entries[c.defaultLanguage]; !ok {
		return nil, fmt.Errorf("default language %q is not in the catalog", defaultLanguage)
	}

	// Sorted so that an extension claimed twice resolves the same way every run.
	for _, key := range c.Languages() {
		for _, ext := range c.entries[key].Extensions {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			if _, taken := c.extensions[ext]; !taken {
				c.extensions[ext] = key
			}
		}
	}

	fp, err := c.computeFingerprint()
	if err != nil {
		return nil, err
	}
	c.fingerprint = fp

	return c, nil
}

// computeFingerprint hashes the default key and every entry in key order.
func (c *Catalog) computeFingerprint() (string, error) {
	h := sha256.New()
	h.Write([]byte(c.defaultLanguage))
	for _, key := range c.Languages() {
		data, err := yaml.Marshal(c.entries[key])
		if err != nil {
			return "", fmt.Errorf("hashing language %s: %w", key, err)
		}
		h.Write([]byte{0})
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fingerprint identifies the rule content. Two catalogs built from the
// same entries share a fingerprint.
func (c *Catalog) Fingerprint() string { return c.fingerprint }

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded entries only.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = NewLoader("", DefaultLanguage).Load()
	})
	return defaultCatalog, defaultErr
}

// Resolve returns the catalog key and entry for a language. Lookup is
// case-insensitive but not whitespace-tolerant; unknown or empty keys
// resolve to the default language.
func (c *Catalog) Resolve(language string) (string, *Entry) {
	key := strings.ToLower(language)
	if e, ok := c.entries[key]; ok {
		return key, e
	}
	return c.defaultLanguage, c.entries[c.defaultLanguage]
}

// Lookup returns the entry for a language, falling back to the default.
func (c *Catalog) Lookup(language string) *Entry {
	_, e := c.Resolve(language)
	return e
}

// Has reports whether language is a known key.
func (c *Catalog) Has(language string) bool {
	_, ok := c.entries[strings.ToLower(language)]
	return ok
}

// DefaultLanguage returns the fallback key.
func (c *Catalog) DefaultLanguage() string { return c.defaultLanguage }

// Languages lists catalog keys in sorted order.
func (c *Catalog) Languages() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LanguageForPath infers a language from a file extension.
func (c *Catalog) LanguageForPath(path string) string {
	if key, ok := c.extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return key
	}
	return c.defaultLanguage
}

// Supports reports whether the file extension belongs to a known language.
func (c *Catalog) Supports(path string) bool {
	_, ok := c.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Validate compiles every pattern and returns the first failure.
func (c *Catalog) Validate(compiler *pattern.Compiler) error {
	for _, key := range c.Languages() {
		for _, expr := range c.entries[key].Patterns() {
			if _, err := compiler.Compile(expr); err != nil {
				return fmt.Errorf("language %s: %w", key, err)
			}
		}
	}
	return nil
}
