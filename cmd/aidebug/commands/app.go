package commands

import (
	"fmt"

	"github.com/devchat-app/aidebug/internal/analyzer"
	"github.com/devchat-app/aidebug/internal/cache"
	"github.com/devchat-app/aidebug/internal/catalog"
	"github.com/devchat-app/aidebug/internal/config"
	"github.com/devchat-app/aidebug/internal/history"
	"github.com/devchat-app/aidebug/internal/logger"
	"github.com/devchat-app/aidebug/internal/pattern"
)

// app bundles the components every analysis command needs.
type app struct {
	catalog  *catalog.Catalog
	compiler *pattern.Compiler
	engine   *analyzer.Engine
	runner   *analyzer.Runner
	cache    cache.Cache
	history  *history.Store
}

// appOptions switches off optional stores for one command.
type appOptions struct {
	noCache   bool
	noHistory bool
}

// newApp builds catalog, engine, cache, history and runner from cfg.
// The caller must Close the result.
func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	cat, err := catalog.NewLoader(cfg.Rules.RulesDir, cfg.Analysis.DefaultLanguage).Load()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	a := &app{
		catalog:  cat,
		compiler: pattern.NewCompiler(cfg.Analysis.MatchTimeout),
	}
	a.engine = analyzer.NewEngine(cat, a.compiler)

	if cfg.Cache.Enabled && !opts.noCache {
		a.cache, err = cache.New(cache.Options{
			Backend:    cfg.Cache.Backend,
			Dir:        cfg.Cache.Dir,
			MaxEntries: cfg.Cache.MaxEntries,
			TTL:        cfg.Cache.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
	}

	if cfg.History.Enabled && !opts.noHistory {
		a.history, err = history.NewStore(history.StoreConfig{Path: cfg.History.Path})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening history database: %w", err)
		}
	}

	rc := analyzer.RunnerConfig{
		Concurrency: cfg.Analysis.MaxConcurrency,
		MaxFileSize: cfg.MaxFileSize(),
		IgnoreDirs:  cfg.Analysis.IgnoreDirs,
		Cache:       a.cache,
	}
	// A nil *history.Store must not end up as a non-nil interface.
	if a.history != nil {
		rc.History = a.history
	}
	a.runner = analyzer.NewRunner(a.engine, rc)

	return a, nil
}

// Close releases the cache and the history database.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Warn("Closing cache: %v", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logger.Warn("Closing history database: %v", err)
		}
	}
}
