package event

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestDispatcherRunsTasks(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(16, 2, time.Second)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		d.Enqueue(Task{
			Kind: "test",
			Run: func(ctx context.Context) error {
				defer wg.Done()
				mu.Lock()
				ran++
				mu.Unlock()
				return nil
			},
		})
	}
	wg.Wait()

	mu.Lock()
	if ran != 10 {
		t.Fatalf("ran %d tasks, want 10", ran)
	}
	mu.Unlock()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestDispatcherFullQueueDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	// never started, nothing drains the queue
	d := NewDispatcher(1, 1, time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			d.Enqueue(Task{Kind: "test", Run: func(ctx context.Context) error { return nil }})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}

func TestDispatcherTaskTimeout(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(1, 1, 20*time.Millisecond)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	expired := make(chan struct{})
	d.Enqueue(Task{
		Kind: "slow",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			close(expired)
			return ctx.Err()
		},
	})

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("task context did not expire")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
