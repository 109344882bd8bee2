package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/devchat-app/aidebug/internal/cache"
	"github.com/devchat-app/aidebug/internal/history"
	"github.com/devchat-app/aidebug/internal/logger"
	"github.com/devchat-app/aidebug/internal/metrics"
	"github.com/devchat-app/aidebug/internal/model"
	"github.com/devchat-app/aidebug/internal/worker"
)

// ErrFileTooLarge is recorded for inputs above the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// Recorder persists finished analyses.
type Recorder interface {
	Record(ctx context.Context, source, language, codeHash string, report *model.Report) (*history.Record, error)
}

// RunnerConfig wires a Runner. Cache and History may be nil.
type RunnerConfig struct {
	Concurrency int      // 0 means GOMAXPROCS
	MaxFileSize int64    // bytes; 0 means unlimited
	IgnoreDirs  []string // directory name globs skipped while walking
	Cache       cache.Cache
	History     Recorder
	Metrics     *metrics.Collector
}

// Input is one snippet to analyze.
type Input struct {
	Name     string // file path, or "" for an anonymous snippet
	Code     string
	Language string // forced language; empty infers from Name
	Err      error  // set when the input could not be read
}

// Runner analyzes many inputs concurrently, consulting the cache and
// recording history around each Analyze call.
type Runner struct {
	engine *Engine
	cfg    RunnerConfig
	log    *logger.Logger
}

// NewRunner creates a batch runner.
func NewRunner(engine *Engine, cfg RunnerConfig) *Runner {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Global()
	}
	return &Runner{
		engine: engine,
		cfg:    cfg,
		log:    logger.Default().WithPrefix("RUNNER"),
	}
}

// Engine returns the underlying engine.
func (r *Runner) Engine() *Engine { return r.engine }

// LoadFiles reads paths into inputs. Directories are walked for files
// whose extension belongs to a catalog language. Read failures are kept
// on the input so they show up in the batch result.
func (r *Runner) LoadFiles(paths []string, language string) []Input {
	var inputs []Input
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			inputs = append(inputs, Input{Name: p, Language: language, Err: err})
			continue
		}
		if !info.IsDir() {
			inputs = append(inputs, r.loadFile(p, language))
			continue
		}

		walkErr := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && r.SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if r.engine.Catalog().Supports(path) {
				inputs = append(inputs, r.loadFile(path, language))
			}
			return nil
		})
		if walkErr != nil {
			inputs = append(inputs, Input{Name: p, Language: language, Err: walkErr})
		}
	}
	return inputs
}

// SkipDir reports whether a directory with this name is left out of walks:
// hidden directories and those matching IgnoreDirs.
func (r *Runner) SkipDir(name string) bool {
	if len(name) > 1 && name[0] == '.' {
		return true
	}
	for _, pattern := range r.cfg.IgnoreDirs {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (r *Runner) loadFile(path, language string) Input {
	in := Input{Name: path, Language: language}

	info, err := os.Stat(path)
	if err != nil {
		in.Err = err
		return in
	}
	if r.cfg.MaxFileSize > 0 && info.Size() > r.cfg.MaxFileSize {
		in.Err = fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrFileTooLarge)
		return in
	}

	data, err := os.ReadFile(path)
	if err != nil {
		in.Err = err
		return in
	}
	in.Code = string(data)
	return in
}

// Run analyzes inputs on the worker pool. Per-input failures are kept in
// the result; only cancellation aborts the batch.
func (r *Runner) Run(ctx context.Context, inputs []Input) (*BatchResult, error) {
	start := time.Now()
	timer := r.cfg.Metrics.StartTimer(metrics.MetricBatchDuration)
	defer timer.Stop()

	result := newBatchResult(len(inputs))
	if len(inputs) == 0 {
		return result, nil
	}

	pool := worker.NewPool(ctx, worker.Config{
		Workers:   r.cfg.Concurrency,
		QueueSize: len(inputs),
	})
	pool.Start()

	for i := range inputs {
		i := i
		task := worker.NewFuncTask(fmt.Sprintf("%d", i), func(ctx context.Context) error {
			result.Files[i] = r.Analyze(ctx, inputs[i])
			return result.Files[i].Err
		})
		if err := pool.Submit(task); err != nil {
			pool.Stop()
			return nil, fmt.Errorf("submitting %s: %w", displayName(inputs[i].Name), err)
		}
	}

	for collected := 0; collected < len(inputs); {
		select {
		case <-pool.Results():
			collected++
		case <-ctx.Done():
			r.log.Warn("Batch cancelled: %v", ctx.Err())
			pool.Stop()
			return nil, ctx.Err()
		}
	}
	pool.StopWait()
	r.log.Debug("Worker pool: %s", pool.Stats())

	result.tally()
	result.Duration = time.Since(start)

	r.log.Info("Analyzed %d inputs: %d issues, %d failed in %v",
		len(inputs), result.TotalIssues, result.Failed, result.Duration)

	return result, nil
}

// Analyze runs one input through cache, engine and history.
func (r *Runner) Analyze(ctx context.Context, in Input) FileResult {
	start := time.Now()
	name := displayName(in.Name)
	m := r.cfg.Metrics

	fr := FileResult{File: name}
	if in.Err != nil {
		m.Counter(metrics.MetricFilesSkipped).Inc()
		return r.fail(fr, in.Err, start)
	}

	cat := r.engine.Catalog()
	lang := in.Language
	if lang == "" && in.Name != "" {
		lang = cat.LanguageForPath(in.Name)
	}
	key, _ := cat.Resolve(lang)
	fr.Language = key
	cacheKey := cache.ComputeKey(cat.Fingerprint(), key, in.Code)

	if r.cfg.Cache != nil {
		cached, found, err := r.cfg.Cache.Get(cacheKey)
		if err != nil {
			r.log.Warn("Cache read failed for %s: %v", name, err)
		}
		if found {
			m.Counter(metrics.MetricCacheHits).Inc()
			fr.Report, fr.Cached = cached, true
			r.record(ctx, in.Name, key, cacheKey, cached)
			fr.Duration = time.Since(start)
			return fr
		}
		m.Counter(metrics.MetricCacheMisses).Inc()
	}

	timer := m.StartTimer(metrics.MetricAnalysisDuration)
	report, err := r.engine.Analyze(in.Code, key)
	timer.Stop()
	m.Counter(metrics.MetricAnalysesTotal).Inc()
	if err != nil {
		m.Counter(metrics.MetricAnalysisFailures).Inc()
		return r.fail(fr, err, start)
	}

	m.Counter(metrics.MetricFilesProcessed).Inc()
	m.Counter(metrics.MetricIssuesFound).Add(int64(len(report.Issues)))
	for sev, n := range report.CountBySeverity() {
		m.Counter(metrics.IssuesBySeverity(string(sev))).Add(int64(n))
	}
	if report.FixedCode != nil {
		m.Counter(metrics.MetricFixesProduced).Inc()
	}

	if r.cfg.Cache != nil {
		if err := r.cfg.Cache.Set(cacheKey, report); err != nil {
			r.log.Warn("Cache write failed for %s: %v", name, err)
		}
	}
	r.record(ctx, in.Name, key, cacheKey, report)

	fr.Report = report
	fr.Duration = time.Since(start)
	return fr
}

func (r *Runner) record(ctx context.Context, source, language, codeHash string, report *model.Report) {
	if r.cfg.History == nil {
		return
	}
	if _, err := r.cfg.History.Record(ctx, source, language, codeHash, report); err != nil {
		r.log.Warn("Recording history for %s failed: %v", displayName(source), err)
	}
}

func (r *Runner) fail(fr FileResult, err error, start time.Time) FileResult {
	fr.Err = err
	fr.Error = err.Error()
	fr.Duration = time.Since(start)
	r.log.WithField("file", fr.File).Debug("Input failed: %v", err)
	return fr
}

func displayName(name string) string {
	if name == "" {
		return history.SourceSnippet
	}
	return name
}
