// Package logger provides a leveled logger that masks credentials.
//
// Submitted snippets regularly contain pasted API keys and passwords, so
// every message and field value passes through the mask before it is written.
package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents logging levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes leveled lines of the form
// "<timestamp> <LEVEL> [prefix] message key=value ...".
type Logger struct {
	core      *core
	prefix    string
	fields    map[string]interface{}
	maskFuncs []MaskFunc
}

// core is shared by a logger and everything derived from it, so SetLevel
// and SetOutput on the root affect prefixed children too.
type core struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
}

// MaskFunc is a function that masks sensitive data
type MaskFunc func(string) string

// Key formats of common providers, then generic assignments and PEM blocks.
var defaultSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(sk-[a-zA-Z0-9_-]{20,})`),
	regexp.MustCompile(`(AIza[a-zA-Z0-9_-]{35})`),
	regexp.MustCompile(`(gh[pousr]_[a-zA-Z0-9]{36})`),
	regexp.MustCompile(`(xox[bpas]-[a-zA-Z0-9-]+)`),
	regexp.MustCompile(`(AKIA[A-Z0-9]{16})`),
	regexp.MustCompile(`(?i)(Bearer\s+[a-zA-Z0-9._-]+)`),
	regexp.MustCompile(`(?i)(password\s*[=:]\s*["']?[^\s"']{8,}["']?)`),
	regexp.MustCompile(`(?i)(api[_-]?key\s*[=:]\s*["']?[a-zA-Z0-9_-]{16,}["']?)`),
	regexp.MustCompile(`-----BEGIN [A-Z ]+ PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+ PRIVATE KEY-----`),
}

var sensitiveFieldNames = map[string]bool{
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"cookie":        true,
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the process-wide logger. It writes to stderr so that
// reports printed on stdout stay machine-readable.
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(LevelInfo, os.Stderr)
	})
	return defaultLogger
}

// New creates a new logger
func New(level Level, output io.Writer) *Logger {
	l := &Logger{
		core:   &core{level: level, output: output},
		fields: make(map[string]interface{}),
	}
	l.maskFuncs = []MaskFunc{maskPatterns}
	return l
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = level
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return l.core.level
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.output = w
}

// WithField returns a new logger with the field added
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new logger with the fields added
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{core: l.core, prefix: l.prefix, fields: merged, maskFuncs: l.maskFuncs}
}

// WithPrefix returns a new logger with the prefix
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{core: l.core, prefix: prefix, fields: l.fields, maskFuncs: l.maskFuncs}
}

// AddMaskFunc adds a custom masking function
func (l *Logger) AddMaskFunc(fn MaskFunc) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.maskFuncs = append(l.maskFuncs, fn)
}

func maskPatterns(s string) string {
	for _, pattern := range defaultSecretPatterns {
		s = pattern.ReplaceAllStringFunc(s, maskString)
	}
	return s
}

// maskString keeps the first and last 4 characters of long values.
func maskString(s string) string {
	if len(s) <= 8 {
		return "***MASKED***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

func (l *Logger) mask(s string) string {
	for _, fn := range l.maskFuncs {
		s = fn(s)
	}
	return s
}

func (l *Logger) maskValue(key string, value interface{}) interface{} {
	if sensitiveFieldNames[strings.ToLower(key)] {
		if str, ok := value.(string); ok {
			return maskString(str)
		}
		return "***MASKED***"
	}
	if str, ok := value.(string); ok {
		return l.mask(str)
	}
	return value
}

func (l *Logger) formatFields() string {
	if len(l.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, l.maskValue(k, l.fields[k]))
	}
	return b.String()
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	if level < l.core.level {
		return
	}

	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}
	formatted = l.mask(formatted)

	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}

	timestamp := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	fmt.Fprintf(l.core.output, "%s %s %s%s%s\n", timestamp, level, prefix, formatted, l.formatFields())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// Package-level functions using default logger

// Debug logs a debug message using the default logger
func Debug(msg string, args ...interface{}) {
	Default().Debug(msg, args...)
}

// Info logs an info message using the default logger
func Info(msg string, args ...interface{}) {
	Default().Info(msg, args...)
}

// Warn logs a warning message using the default logger
func Warn(msg string, args ...interface{}) {
	Default().Warn(msg, args...)
}

// Error logs an error message using the default logger
func Error(msg string, args ...interface{}) {
	Default().Error(msg, args...)
}

// SetLevel sets the level of the default logger
func SetLevel(level Level) {
	Default().SetLevel(level)
}

// SetOutput sets the output of the default logger
func SetOutput(w io.Writer) {
	Default().SetOutput(w)
}

// MaskSecrets masks all known secret patterns in a string
func MaskSecrets(s string) string {
	return Default().mask(s)
}

// IsSensitiveKey checks if a key name is sensitive
func IsSensitiveKey(key string) bool {
	return sensitiveFieldNames[strings.ToLower(key)]
}
