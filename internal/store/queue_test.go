package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueueRunsInSubmissionOrder(t *testing.T) {
	q := NewQueue(nil)
	defer q.Close()

	gate := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = q.Enqueue(context.Background(), func(context.Context) error {
			close(started)
			<-gate
			mu.Lock()
			order = append(order, 0)
			mu.Unlock()
			return nil
		})
	}()
	<-started

	// Submit the rest one by one while the first is blocked so their
	// admission order is known.
	for i := 1; i <= 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Enqueue(context.Background(), func(context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		waitForPending(t, q, i)
	}
	close(gate)
	wg.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("operations ran out of order: %v", order)
		}
	}
}

// waitForPending waits until n operations sit in the queue's buffer.
func waitForPending(t *testing.T, q *Queue, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(q.jobs) < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d pending operations, have %d", n, len(q.jobs))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestQueueContinuesAfterFailureAndPanic(t *testing.T) {
	q := NewQueue(nil)
	defer q.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	if err := q.Enqueue(ctx, func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected the operation's error, got %v", err)
	}
	if err := q.Enqueue(ctx, func(context.Context) error { panic("kaboom") }); err == nil {
		t.Fatal("expected an error from a panicking operation")
	}
	ran := false
	if err := q.Enqueue(ctx, func(context.Context) error { ran = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("queue stalled after failures")
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(nil)
	q.Close()
	q.Close()
	if err := q.Enqueue(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}
