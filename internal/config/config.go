// Package config handles all configuration management for aidebug.
//
// Configuration is loaded from multiple sources in order of precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (AIDEBUG_*)
// 3. Configuration file (.aidebug.yaml)
// 4. Default values (lowest priority)
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/devchat-app/aidebug/internal/logger"
	"github.com/devchat-app/aidebug/internal/model"
)

// Config is the main configuration structure for aidebug.
type Config struct {
	// Analysis configures the engine and the batch runner
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis" json:"analysis"`

	// Rules configures the language catalog
	Rules RulesConfig `mapstructure:"rules" yaml:"rules" json:"rules"`

	// Output configures output formatting
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Cache configures report caching
	Cache CacheConfig `mapstructure:"cache" yaml:"cache" json:"cache"`

	// History configures the analysis history store
	History HistoryConfig `mapstructure:"history" yaml:"history" json:"history"`

	// Server configures the HTTP API
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	Log LogConfig `mapstructure:"log" yaml:"log" json:"log"`
}

// AnalysisConfig configures analysis behavior.
type AnalysisConfig struct {
	// DefaultLanguage is used when a snippet's language is unknown
	DefaultLanguage string `mapstructure:"default_language" yaml:"default_language" json:"default_language"`

	// MaxConcurrency is the maximum parallel analyses (0 = GOMAXPROCS)
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency" json:"max_concurrency"`

	// MaxFileSizeKB skips larger files in batch runs (0 = unlimited)
	MaxFileSizeKB int `mapstructure:"max_file_size_kb" yaml:"max_file_size_kb" json:"max_file_size_kb"`

	// MatchTimeout bounds a single pattern evaluation
	MatchTimeout time.Duration `mapstructure:"match_timeout" yaml:"match_timeout" json:"match_timeout"`

	// IgnoreDirs are directory name globs skipped when walking directories
	IgnoreDirs []string `mapstructure:"ignore_dirs" yaml:"ignore_dirs" json:"ignore_dirs"`
}

// RulesConfig configures the rule catalog.
type RulesConfig struct {
	// RulesDir holds YAML language entries merged over the built-in ones
	RulesDir string `mapstructure:"rules_dir" yaml:"rules_dir" json:"rules_dir"`
}

// OutputConfig configures output formatting.
type OutputConfig struct {
	// Format is the output format: "console", "markdown", "json", "sarif"
	Format string `mapstructure:"format" yaml:"format" json:"format"`

	// File is the output file path (empty = stdout)
	File string `mapstructure:"file" yaml:"file" json:"file"`

	// Color enables colored output (for terminal)
	Color bool `mapstructure:"color" yaml:"color" json:"color"`

	// IncludeFixed prints the generated fixed code
	IncludeFixed bool `mapstructure:"include_fixed" yaml:"include_fixed" json:"include_fixed"`

	// MinSeverity is the minimum severity to report: "info", "warning", "error"
	MinSeverity string `mapstructure:"min_severity" yaml:"min_severity" json:"min_severity"`
}

// CacheConfig configures caching behavior.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Backend is "memory" or "badger"
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`

	// Dir is the badger directory
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`

	// TTL is the cache entry time-to-live (0 = never expire)
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`

	// MaxEntries bounds the memory backend
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries" json:"max_entries"`
}

// HistoryConfig configures the SQLite history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`

	// AllowedOrigins lists CORS origins; "*" allows any
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins" json:"allowed_origins"`

	// SimulatedLatency delays each analyze response, as the chat UI expects
	SimulatedLatency time.Duration `mapstructure:"simulated_latency" yaml:"simulated_latency" json:"simulated_latency"`

	MaxBodyKB    int           `mapstructure:"max_body_kb" yaml:"max_body_kb" json:"max_body_kb"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level" json:"level"`
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Analysis.DefaultLanguage) == "" {
		return &ValidationError{Field: "analysis.default_language", Message: "default language is required"}
	}
	if c.Analysis.MaxConcurrency < 0 {
		return &ValidationError{Field: "analysis.max_concurrency", Message: "must be >= 0"}
	}
	if c.Analysis.MaxFileSizeKB < 0 {
		return &ValidationError{Field: "analysis.max_file_size_kb", Message: "must be >= 0"}
	}
	if c.Analysis.MatchTimeout < 0 {
		return &ValidationError{Field: "analysis.match_timeout", Message: "must not be negative"}
	}

	validFormats := map[string]bool{"console": true, "markdown": true, "json": true, "sarif": true}
	if !validFormats[c.Output.Format] {
		return &ValidationError{Field: "output.format", Message: "invalid format, must be one of: console, markdown, json, sarif"}
	}
	if _, ok := model.ParseSeverity(c.Output.MinSeverity); !ok {
		return &ValidationError{Field: "output.min_severity", Message: "invalid severity, must be one of: info, warning, error"}
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "memory":
			if c.Cache.MaxEntries < 0 {
				return &ValidationError{Field: "cache.max_entries", Message: "must be >= 0"}
			}
		case "badger":
			if c.Cache.Dir == "" {
				return &ValidationError{Field: "cache.dir", Message: "cache directory is required for the badger backend"}
			}
		default:
			return &ValidationError{Field: "cache.backend", Message: "invalid backend, must be one of: memory, badger"}
		}
	}

	if c.History.Enabled && c.History.Path == "" {
		return &ValidationError{Field: "history.path", Message: "history path is required when history is enabled"}
	}

	if c.Server.Addr == "" {
		return &ValidationError{Field: "server.addr", Message: "listen address is required"}
	}
	if c.Server.MaxBodyKB <= 0 {
		return &ValidationError{Field: "server.max_body_kb", Message: "must be > 0"}
	}
	if c.Server.SimulatedLatency < 0 {
		return &ValidationError{Field: "server.simulated_latency", Message: "must not be negative"}
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Field: "log.level", Message: err.Error()}
	}

	return nil
}

// MinSeverity returns the parsed output.min_severity.
func (c *Config) MinSeverity() model.Severity {
	sev, _ := model.ParseSeverity(c.Output.MinSeverity)
	return sev
}

// MaxFileSize returns analysis.max_file_size_kb in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Analysis.MaxFileSizeKB) * 1024
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}
