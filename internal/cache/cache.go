// Package cache stores analysis reports keyed by language and code.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/devchat-app/aidebug/internal/model"
)

// Cache defines the interface for caching analysis reports.
type Cache interface {
	// Get retrieves a cached report.
	Get(key string) (*model.Report, bool, error)

	// Set stores a report.
	Set(key string, report *model.Report) error

	// Clear removes all cached entries.
	Clear() error

	// Close releases cache resources.
	Close() error

	// Stats returns usage counters.
	Stats() Stats
}

// Stats contains cache usage counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// HitRate returns hits as a percentage of lookups (0-100).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// ComputeKey derives the cache key for an analysis of code in a resolved
// language under the catalog identified by fingerprint.
func ComputeKey(fingerprint, language, code string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(code))
	return hex.EncodeToString(h.Sum(nil))
}

// Options selects and sizes a cache backend.
type Options struct {
	Backend    string // "memory" or "badger"
	Dir        string // badger directory; empty keeps data in memory
	MaxEntries int
	TTL        time.Duration
}

// New opens the configured backend.
func New(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", "memory":
		return NewLRUCache(opts.MaxEntries, opts.TTL), nil
	case "badger":
		return NewBadgerCache(opts.Dir, opts.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", opts.Backend)
	}
}
