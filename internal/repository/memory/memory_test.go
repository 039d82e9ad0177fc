package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

func TestBackendCopiesPayloads(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()
	payload := []byte("abc")
	if err := b.Put(ctx, "main", payload); err != nil {
		t.Fatalf("put: %v", err)
	}
	payload[0] = 'z'
	got, err := b.Get(ctx, "main")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("stored payload aliased caller slice: %q", got)
	}
	if _, err := b.Get(ctx, "other"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBackendClosed(t *testing.T) {
	b := NewBackend()
	_ = b.Close()
	if err := b.Put(context.Background(), "main", nil); !errors.Is(err, repository.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestBroadcasterStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	ctx := context.Background()
	got := make(chan struct{}, 4)
	stop, err := b.Listen(ctx, func() { got <- struct{}{} })
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_ = b.Publish(ctx)
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("listener not invoked")
	}
	stop()
	stop()
	_ = b.Publish(ctx)
	select {
	case <-got:
		t.Fatal("listener invoked after stop")
	case <-time.After(50 * time.Millisecond):
	}
}
