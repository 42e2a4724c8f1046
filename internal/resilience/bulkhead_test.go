package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skillforge/treecache/internal/config"
)

func TestNewBulkhead(t *testing.T) {
	t.Run("creates with config values", func(t *testing.T) {
		cfg := config.BulkheadConfig{
			MaxConcurrent:  20,
			MaxQueue:       10,
			AcquireTimeout: time.Second,
		}

		b := NewBulkhead(cfg)

		if b.maxConcurrent != 20 {
			t.Errorf("maxConcurrent = %v, want 20", b.maxConcurrent)
		}
		if b.maxQueue != 10 {
			t.Errorf("maxQueue = %v, want 10", b.maxQueue)
		}
		if b.acquireTimeout != time.Second {
			t.Errorf("acquireTimeout = %v, want 1s", b.acquireTimeout)
		}
	})

	t.Run("applies defaults for zero values", func(t *testing.T) {
		b := NewBulkhead(config.BulkheadConfig{})

		if b.maxConcurrent != 100 {
			t.Errorf("maxConcurrent = %v, want 100", b.maxConcurrent)
		}
		if b.maxQueue != 50 {
			t.Errorf("maxQueue = %v, want 50", b.maxQueue)
		}
		if b.acquireTimeout != 100*time.Millisecond {
			t.Errorf("acquireTimeout = %v, want 100ms", b.acquireTimeout)
		}
	})
}

func TestBulkheadExecuteCtx(t *testing.T) {
	ctx := context.Background()

	t.Run("executes function", func(t *testing.T) {
		b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 2, MaxQueue: 1})

		called := false
		err := b.ExecuteCtx(ctx, func(ctx context.Context) error {
			called = true
			return nil
		})

		if err != nil {
			t.Errorf("ExecuteCtx() error = %v, want nil", err)
		}
		if !called {
			t.Error("function was not called")
		}
	})

	t.Run("propagates function error", func(t *testing.T) {
		b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 2, MaxQueue: 1})

		wantErr := errors.New("boom")
		err := b.ExecuteCtx(ctx, func(ctx context.Context) error {
			return wantErr
		})

		if !errors.Is(err, wantErr) {
			t.Errorf("ExecuteCtx() error = %v, want %v", err, wantErr)
		}
	})

	t.Run("counts executions", func(t *testing.T) {
		b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 2, MaxQueue: 1})

		for i := 0; i < 5; i++ {
			_ = b.ExecuteCtx(ctx, func(ctx context.Context) error { return nil })
		}

		if b.TotalExecuted() != 5 {
			t.Errorf("TotalExecuted() = %v, want 5", b.TotalExecuted())
		}
	})
}

func TestBulkheadExecuteWithResult(t *testing.T) {
	ctx := context.Background()

	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 2, MaxQueue: 1})

	result, err := b.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return "value", nil
	})

	if err != nil {
		t.Fatalf("ExecuteWithResult() error = %v", err)
	}
	if result != "value" {
		t.Errorf("result = %v, want value", result)
	}
}

func TestBulkheadConcurrencyLimit(t *testing.T) {
	ctx := context.Background()

	b := NewBulkhead(config.BulkheadConfig{
		MaxConcurrent:  2,
		MaxQueue:       1,
		AcquireTimeout: 20 * time.Millisecond,
	})

	blockCh := make(chan struct{})
	var started sync.WaitGroup
	var rejected atomic.Int64

	// Saturate concurrency and queue
	for i := 0; i < 3; i++ {
		started.Add(1)
		go func() {
			started.Done()
			_ = b.ExecuteCtx(ctx, func(ctx context.Context) error {
				<-blockCh
				return nil
			})
		}()
	}

	started.Wait()
	time.Sleep(30 * time.Millisecond) // let goroutines occupy slots

	// Additional calls should be rejected or time out
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.ExecuteCtx(ctx, func(ctx context.Context) error { return nil })
			if IsBulkheadError(err) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	close(blockCh)

	if rejected.Load() == 0 {
		t.Error("expected at least one rejection at saturation")
	}
	if b.RejectedCount() == 0 {
		t.Error("RejectedCount() = 0, want > 0")
	}
}

func TestBulkheadContextCancellation(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{
		MaxConcurrent:  1,
		MaxQueue:       1,
		AcquireTimeout: time.Second,
	})

	blockCh := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func() {
			_ = b.ExecuteCtx(context.Background(), func(ctx context.Context) error {
				<-blockCh
				return nil
			})
		}()
	}
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.ExecuteCtx(ctx, func(ctx context.Context) error { return nil })
	if err == nil {
		t.Error("expected error for canceled context while waiting")
	}

	close(blockCh)
}

func TestDisabledBulkhead(t *testing.T) {
	ctx := context.Background()
	b := NewDisabledBulkhead()

	called := false
	err := b.ExecuteCtx(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("ExecuteCtx() error = %v, called = %v", err, called)
	}

	result, err := b.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return 7, nil
	})
	if err != nil || result != 7 {
		t.Errorf("ExecuteWithResult() = %v, %v", result, err)
	}

	if b.ActiveCount() != 0 || b.QueuedCount() != 0 || b.RejectedCount() != 0 {
		t.Error("disabled bulkhead should report zero counters")
	}
}
