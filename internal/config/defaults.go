package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/devchat-app/aidebug/internal/catalog"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()

	return &Config{
		Analysis: defaultAnalysisConfig(),
		Output:   defaultOutputConfig(),
		Cache:    defaultCacheConfig(dataDir),
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "history.db"),
		},
		Server: defaultServerConfig(),
		Log:    LogConfig{Level: "info"},
	}
}

// defaultDataDir returns the directory for the cache and history database.
func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".cache", "aidebug")
}

func defaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		DefaultLanguage: catalog.DefaultLanguage,
		MaxConcurrency:  0,
		MaxFileSizeKB:   512,
		MatchTimeout:    2 * time.Second,
		IgnoreDirs:      DefaultIgnoreDirs(),
	}
}

func defaultOutputConfig() OutputConfig {
	return OutputConfig{
		Format:       "console",
		Color:        true,
		IncludeFixed: false,
		MinSeverity:  "info",
	}
}

func defaultCacheConfig(dataDir string) CacheConfig {
	return CacheConfig{
		Enabled:    true,
		Backend:    "memory",
		Dir:        filepath.Join(dataDir, "cache"),
		TTL:        24 * time.Hour,
		MaxEntries: 1000,
	}
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:             ":8089",
		AllowedOrigins:   []string{"http://localhost:3000"},
		SimulatedLatency: 0,
		MaxBodyKB:        256,
		ReadTimeout:      15 * time.Second,
		WriteTimeout:     30 * time.Second,
	}
}

// DefaultIgnoreDirs returns directory names that never hold code worth analyzing.
func DefaultIgnoreDirs() []string {
	return []string{
		// Dependencies
		"node_modules",
		"vendor",
		"bower_components",

		// Build output
		"dist",
		"build",
		"out",
		"coverage",

		// Python
		"__pycache__",
		"venv",
		"*.egg-info",
	}
}
