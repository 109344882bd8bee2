package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type mockTask struct {
	id       string
	duration time.Duration
	err      error
}

func (t *mockTask) ID() string { return t.id }
func (t *mockTask) Execute(ctx context.Context) error {
	select {
	case <-time.After(t.duration):
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestPool_BasicExecution(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 2, QueueSize: 10})
	pool.Start()
	defer pool.Stop()

	for i := 0; i < 5; i++ {
		task := &mockTask{id: fmt.Sprintf("task-%d", i), duration: 10 * time.Millisecond}
		if err := pool.Submit(task); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	results := 0
	timeout := time.After(time.Second)
	for results < 5 {
		select {
		case r := <-pool.Results():
			if r.Error != nil {
				t.Errorf("unexpected error: %v", r.Error)
			}
			if r.Duration <= 0 {
				t.Errorf("Duration = %v, want > 0", r.Duration)
			}
			results++
		case <-timeout:
			t.Fatal("timeout waiting for results")
		}
	}

	if stats := pool.Stats(); stats.Processed != 5 {
		t.Errorf("expected 5 processed, got %d", stats.Processed)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 2})
	pool.Start()
	defer pool.Stop()

	expectedErr := errors.New("task failed")
	_ = pool.Submit(&mockTask{id: "failing-task", duration: 10 * time.Millisecond, err: expectedErr})

	result := <-pool.Results()
	if !errors.Is(result.Error, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, result.Error)
	}
	if stats := pool.Stats(); stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}
}

func TestPool_RecoversPanics(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 1})
	pool.Start()
	defer pool.Stop()

	_ = pool.Submit(NewFuncTask("boom", func(ctx context.Context) error {
		panic("bad rule")
	}))
	_ = pool.Submit(NewFuncTask("after", func(ctx context.Context) error { return nil }))

	first := <-pool.Results()
	if first.Error == nil || !strings.Contains(first.Error.Error(), "bad rule") {
		t.Errorf("panic result error = %v, want panic message", first.Error)
	}
	second := <-pool.Results()
	if second.TaskID != "after" || second.Error != nil {
		t.Errorf("worker did not survive panic: %+v", second)
	}
	if pool.Stats().Panics != 1 {
		t.Errorf("Panics = %d, want 1", pool.Stats().Panics)
	}
}

func TestPool_Cancellation(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 2})
	pool.Start()

	_ = pool.Submit(&mockTask{id: "long-task", duration: 10 * time.Second})

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() blocked on a running task")
	}
}

func TestPool_ParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, Config{Workers: 1, QueueSize: 1})
	pool.Start()
	defer pool.Stop()

	cancel()
	time.Sleep(10 * time.Millisecond)

	// Queue is either accepted and never run, or rejected; both are fine
	// but Submit must not hang.
	errCh := make(chan error, 1)
	go func() { errCh <- pool.Submit(&mockTask{id: "late"}) }()
	select {
	case <-errCh:
	case <-time.After(time.Second):
		t.Fatal("Submit() hung after parent context was cancelled")
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 1})
	pool.Start()
	pool.StopWait()

	if err := pool.Submit(&mockTask{id: "late"}); err == nil {
		t.Error("expected error when submitting to a stopped pool")
	}
	pool.Stop() // second stop is a no-op
}

func TestPool_StopWaitDrainsQueue(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 2, QueueSize: 10})
	pool.Start()

	var ran atomic.Int64
	for i := 0; i < 6; i++ {
		_ = pool.Submit(NewFuncTask(fmt.Sprintf("t%d", i), func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}
	pool.StopWait()

	if ran.Load() != 6 {
		t.Errorf("ran = %d, want 6", ran.Load())
	}
	count := 0
	for range pool.Results() {
		count++
	}
	if count != 6 {
		t.Errorf("results = %d, want 6", count)
	}
}

func TestPool_ConcurrentSubmit(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 4, QueueSize: 100})
	pool.Start()
	defer pool.Stop()

	for i := 0; i < 10; i++ {
		go func(n int) {
			for j := 0; j < 10; j++ {
				_ = pool.Submit(&mockTask{id: fmt.Sprintf("task-%d-%d", n, j), duration: time.Millisecond})
			}
		}(i)
	}

	time.Sleep(500 * time.Millisecond)

	if stats := pool.Stats(); stats.Processed < 50 {
		t.Errorf("expected at least 50 processed, got %d", stats.Processed)
	}
}

func TestPool_NotStarted(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 2})

	if err := pool.Submit(&mockTask{id: "test"}); err == nil {
		t.Error("expected error when submitting to unstarted pool")
	}
}

func TestPool_DoubleStart(t *testing.T) {
	pool := NewPool(context.Background(), Config{Workers: 2})
	pool.Start()
	pool.Start()
	pool.Stop()
}

func TestPool_DefaultConfig(t *testing.T) {
	pool := NewPool(context.Background(), Config{})

	if pool.workers != runtime.GOMAXPROCS(0) {
		t.Errorf("expected %d workers, got %d", runtime.GOMAXPROCS(0), pool.workers)
	}
}

func TestStats_String(t *testing.T) {
	stats := Stats{Workers: 4, Processed: 100, Errors: 5, Panics: 1, Pending: 10}

	want := "workers=4 processed=100 errors=5 panics=1 pending=10"
	if got := stats.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func BenchmarkPool_Throughput(b *testing.B) {
	pool := NewPool(context.Background(), Config{Workers: runtime.GOMAXPROCS(0), QueueSize: 1000})
	pool.Start()
	defer pool.Stop()

	go func() {
		for range pool.Results() {
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pool.Submit(&mockTask{id: fmt.Sprintf("task-%d", i)})
	}
}
