package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configName     = ".aidebug"
	configFileName = ".aidebug.yaml"
	envPrefix      = "AIDEBUG"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")

	// Search paths in order of priority
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	v.AddConfigPath("/etc/aidebug")

	// AIDEBUG_SERVER_ADDR -> server.addr
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetConfigFile sets a specific config file to use.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
	l.v.SetConfigFile(path)
}

// BindFlag binds a config key to a command-line flag. The flag wins over
// file and environment only when it was set explicitly.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("binding %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load loads the configuration from all sources.
// Priority (highest to lowest):
// 1. Flags bound with BindFlag
// 2. Environment variables (AIDEBUG_*)
// 3. Config file (explicit, or .aidebug.yaml from the search paths)
// 4. Default values
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setDefaults(cfg)

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Environment lists are comma separated and may carry spaces.
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)
	cfg.Analysis.IgnoreDirs = splitList(cfg.Analysis.IgnoreDirs)
	cfg.Rules.RulesDir = expandHome(cfg.Rules.RulesDir)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.History.Path = expandHome(cfg.History.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can find it on Unmarshal.
func (l *Loader) setDefaults(cfg *Config) {
	l.v.SetDefault("analysis.default_language", cfg.Analysis.DefaultLanguage)
	l.v.SetDefault("analysis.max_concurrency", cfg.Analysis.MaxConcurrency)
	l.v.SetDefault("analysis.max_file_size_kb", cfg.Analysis.MaxFileSizeKB)
	l.v.SetDefault("analysis.match_timeout", cfg.Analysis.MatchTimeout)
	l.v.SetDefault("analysis.ignore_dirs", cfg.Analysis.IgnoreDirs)

	l.v.SetDefault("rules.rules_dir", cfg.Rules.RulesDir)

	l.v.SetDefault("output.format", cfg.Output.Format)
	l.v.SetDefault("output.file", cfg.Output.File)
	l.v.SetDefault("output.color", cfg.Output.Color)
	l.v.SetDefault("output.include_fixed", cfg.Output.IncludeFixed)
	l.v.SetDefault("output.min_severity", cfg.Output.MinSeverity)

	l.v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	l.v.SetDefault("cache.backend", cfg.Cache.Backend)
	l.v.SetDefault("cache.dir", cfg.Cache.Dir)
	l.v.SetDefault("cache.ttl", cfg.Cache.TTL)
	l.v.SetDefault("cache.max_entries", cfg.Cache.MaxEntries)

	l.v.SetDefault("history.enabled", cfg.History.Enabled)
	l.v.SetDefault("history.path", cfg.History.Path)

	l.v.SetDefault("server.addr", cfg.Server.Addr)
	l.v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
	l.v.SetDefault("server.simulated_latency", cfg.Server.SimulatedLatency)
	l.v.SetDefault("server.max_body_kb", cfg.Server.MaxBodyKB)
	l.v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	l.v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)

	l.v.SetDefault("log.level", cfg.Log.Level)
}

// ConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	return NewLoader().Load()
}

// FindConfigFile searches for a config file and returns its path.
// Returns empty string if no config file is found.
func FindConfigFile() string {
	if _, err := os.Stat(configFileName); err == nil {
		if abs, err := filepath.Abs(configFileName); err == nil {
			return abs
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	etcPath := filepath.Join("/etc/aidebug", configFileName)
	if _, err := os.Stat(etcPath); err == nil {
		return etcPath
	}

	return ""
}

// WriteFile writes cfg as YAML. Existing files are only replaced when force is set.
func WriteFile(cfg *Config, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	header := "# aidebug configuration\n# Every key can be overridden with an AIDEBUG_<SECTION>_<KEY> environment variable.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
