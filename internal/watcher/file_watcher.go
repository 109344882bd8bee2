// Package watcher re-analyzes source files as they change on disk.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/devchat-app/aidebug/internal/logger"
)

// DefaultDebounce is the quiet period before a burst of changes is handled.
const DefaultDebounce = 500 * time.Millisecond

// Config configures a FileWatcher.
type Config struct {
	Debounce time.Duration
	// Filter reports whether a changed file is worth handling.
	Filter func(path string) bool
	// SkipDir reports whether a directory (by base name) is left unwatched.
	SkipDir func(name string) bool
}

// FileChangeEvent is one filesystem change.
type FileChangeEvent struct {
	Path      string
	Operation string
	Timestamp time.Time
}

// FileChangeHandler receives the sorted, distinct paths of a debounced burst.
type FileChangeHandler func([]string) error

// FileWatcher watches directory trees and individual files.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	cfg       Config
	debouncer *debouncer
	log       *logger.Logger

	mu sync.Mutex
	// watchedDirs maps a directory to whether its whole tree is watched;
	// false means it was added only for the files in explicitFiles.
	watchedDirs   map[string]bool
	explicitFiles map[string]bool
}

// NewFileWatcher creates a watcher. Nothing is watched until Watch is called.
func NewFileWatcher(cfg Config) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Filter == nil {
		cfg.Filter = func(string) bool { return true }
	}

	fw := &FileWatcher{
		watcher:       w,
		cfg:           cfg,
		log:           logger.Default().WithPrefix("WATCH"),
		watchedDirs:   make(map[string]bool),
		explicitFiles: make(map[string]bool),
	}
	fw.debouncer = newDebouncer(cfg.Debounce, func(err error) {
		fw.log.Error("Handler error: %v", err)
	})
	return fw, nil
}

// Watch adds paths and starts delivering changes to handler in the background.
func (fw *FileWatcher) Watch(paths []string, handler FileChangeHandler) error {
	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			return fmt.Errorf("failed to watch path %s: %w", path, err)
		}
	}
	go fw.eventLoop(handler)
	return nil
}

func (fw *FileWatcher) addPath(path string) error {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		dir := filepath.Dir(path)
		fw.mu.Lock()
		defer fw.mu.Unlock()
		fw.explicitFiles[path] = true
		if _, ok := fw.watchedDirs[dir]; ok {
			return nil
		}
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
		}
		fw.watchedDirs[dir] = false
		return nil
	}

	return filepath.Walk(path, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if walkPath != path && fw.cfg.SkipDir != nil && fw.cfg.SkipDir(info.Name()) {
			return filepath.SkipDir
		}

		fw.mu.Lock()
		defer fw.mu.Unlock()
		recursive, ok := fw.watchedDirs[walkPath]
		if ok && recursive {
			return nil
		}
		if !ok {
			if err := fw.watcher.Add(walkPath); err != nil {
				return fmt.Errorf("failed to add directory %s to watcher: %w", walkPath, err)
			}
		}
		fw.watchedDirs[walkPath] = true
		return nil
	})
}

func (fw *FileWatcher) eventLoop(handler FileChangeHandler) {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event, handler)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("File watcher error: %v", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event, handler FileChangeHandler) {
	path := filepath.Clean(event.Name)

	// New directories inside a watched tree are watched too.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if fw.inTree(path) && !(fw.cfg.SkipDir != nil && fw.cfg.SkipDir(info.Name())) {
				if err := fw.addPath(path); err != nil {
					fw.log.Warn("Watching new directory %s: %v", path, err)
				}
			}
			return
		}
	}

	// Deleted or renamed files have nothing left to analyze.
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if !fw.accepts(path) {
		return
	}

	fw.debouncer.add(FileChangeEvent{
		Path:      path,
		Operation: eventOpToString(event.Op),
		Timestamp: time.Now(),
	}, handler)
}

// inTree reports whether path sits in a recursively watched directory.
func (fw *FileWatcher) inTree(path string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.watchedDirs[filepath.Dir(path)]
}

func (fw *FileWatcher) accepts(path string) bool {
	if shouldSkipFile(path) {
		return false
	}
	fw.mu.Lock()
	explicit := fw.explicitFiles[path]
	recursive := fw.watchedDirs[filepath.Dir(path)]
	fw.mu.Unlock()

	if explicit {
		return true
	}
	return recursive && fw.cfg.Filter(path)
}

// shouldSkipFile drops editor swap files and other temporaries.
func shouldSkipFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, suffix := range []string{".tmp", "~", ".swp", ".swo"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func eventOpToString(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "CREATE"
	case op.Has(fsnotify.Write):
		return "WRITE"
	case op.Has(fsnotify.Remove):
		return "REMOVE"
	case op.Has(fsnotify.Rename):
		return "RENAME"
	case op.Has(fsnotify.Chmod):
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// WatchedDirs returns the watched directories, sorted.
func (fw *FileWatcher) WatchedDirs() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	paths := make([]string, 0, len(fw.watchedDirs))
	for path := range fw.watchedDirs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Close stops pending handler calls and releases the watcher.
func (fw *FileWatcher) Close() error {
	fw.debouncer.stop()
	return fw.watcher.Close()
}
