package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkPoolRunsAllItems(t *testing.T) {
	var count atomic.Int64
	wp := New[int](4, 0, func(ctx context.Context, worker int, w int) error {
		count.Add(1)
		return nil
	})
	for i := 0; i < 20; i++ {
		wp.Submit(i)
	}
	wp.Close()
	if err := wp.Wait(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if count.Load() != 20 {
		t.Fatalf("expected 20 items processed, got %d", count.Load())
	}
}

func TestWorkPoolCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	wp := New[int](2, 0, func(ctx context.Context, worker int, w int) error {
		if w == 3 {
			return boom
		}
		return nil
	})
	for i := 0; i < 5; i++ {
		wp.Submit(i)
	}
	wp.Close()
	err := wp.Wait()
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("expected boom to be in joined error, got %v", err)
	}
}

func TestWorkPoolSleepTimeForcesSingleWorker(t *testing.T) {
	var running atomic.Int32
	var maxSeen atomic.Int32
	wp := New[int](8, 5*time.Millisecond, func(ctx context.Context, worker int, w int) error {
		n := running.Add(1)
		for {
			cur := maxSeen.Load()
			if n <= cur || maxSeen.CompareAndSwap(cur, n) {
				break
			}
		}
		running.Add(-1)
		return nil
	})
	for i := 0; i < 5; i++ {
		wp.Submit(i)
	}
	wp.Close()
	if err := wp.Wait(); err != nil {
		t.Fatal(err)
	}
	if maxSeen.Load() > 1 {
		t.Fatalf("expected sleepTime to force single-worker execution, saw concurrency %d", maxSeen.Load())
	}
}

func TestWorkPoolCancelUnblocksWorkers(t *testing.T) {
	started := make(chan struct{})
	wp := New[int](1, 0, func(ctx context.Context, worker int, w int) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	wp.Submit(1)

	<-started
	wp.Cancel()

	select {
	case <-wp.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Done() to be closed after Cancel")
	}

	wp.Close()
	_ = wp.Wait()
}

func TestSubmitAfterClosePanics(t *testing.T) {
	wp := New[int](1, 0, func(ctx context.Context, worker int, w int) error { return nil })
	wp.Close()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on Submit after Close")
		}
	}()
	wp.Submit(1)
}
