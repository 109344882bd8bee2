// Package worker provides a worker pool for parallel analysis jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPoolClosed is returned when submitting to a stopped pool.
var ErrPoolClosed = errors.New("pool closed")

// Task represents a task to be executed by a worker.
type Task interface {
	Execute(ctx context.Context) error
	ID() string
}

// Result contains the result of a task execution.
type Result struct {
	TaskID   string
	Error    error
	Duration time.Duration
}

// Pool manages a pool of workers for parallel processing.
type Pool struct {
	workers int
	tasks   chan Task
	results chan Result
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	closed  bool
	started atomic.Bool

	processed atomic.Int64
	errors    atomic.Int64
	panics    atomic.Int64
}

// Config configures the worker pool.
type Config struct {
	Workers   int // Number of workers (default: GOMAXPROCS)
	QueueSize int // Size of task queue (default: workers * 2)
}

// NewPool creates a pool whose tasks run under ctx.
func NewPool(ctx context.Context, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers: cfg.Workers,
		tasks:   make(chan Task, cfg.QueueSize),
		results: make(chan Result, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the worker pool.
func (p *Pool) Start() {
	if p.started.Swap(true) {
		return
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case task, ok := <-p.tasks:
			if !ok {
				return
			}

			start := time.Now()
			err := p.execute(task)

			p.processed.Add(1)
			if err != nil {
				p.errors.Add(1)
			}

			select {
			case p.results <- Result{TaskID: task.ID(), Error: err, Duration: time.Since(start)}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// execute runs a task, converting a panic into an error so one bad task
// cannot take the pool down.
func (p *Pool) execute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			err = fmt.Errorf("task %s panicked: %v", task.ID(), r)
		}
	}()
	return task.Execute(p.ctx)
}

// Submit queues a task, blocking while the queue is full.
func (p *Pool) Submit(task Task) error {
	if !p.started.Load() {
		return fmt.Errorf("pool not started")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results returns the results channel. It is closed once the pool stops.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Stop cancels outstanding tasks and stops the workers.
func (p *Pool) Stop() {
	p.cancel()
	p.shutdown()
}

// StopWait lets queued tasks finish before stopping. Results must be
// drained by the caller or the queue must have room for them.
func (p *Pool) StopWait() {
	p.shutdown()
	p.cancel()
}

func (p *Pool) shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.results)
}

// Stats returns pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Processed: p.processed.Load(),
		Errors:    p.errors.Load(),
		Panics:    p.panics.Load(),
		Pending:   len(p.tasks),
	}
}

// Stats contains pool statistics.
type Stats struct {
	Workers   int
	Processed int64
	Errors    int64
	Panics    int64
	Pending   int
}

// String returns a string representation of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("workers=%d processed=%d errors=%d panics=%d pending=%d",
		s.Workers, s.Processed, s.Errors, s.Panics, s.Pending)
}

// FuncTask wraps a function as a task.
type FuncTask struct {
	id string
	fn func(ctx context.Context) error
}

// NewFuncTask creates a task from a function.
func NewFuncTask(id string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{id: id, fn: fn}
}

// ID returns the task identifier.
func (f *FuncTask) ID() string { return f.id }

// Execute executes the function.
func (f *FuncTask) Execute(ctx context.Context) error { return f.fn(ctx) }
