package mongo

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

func TestDocumentBackendRequiresOpen(t *testing.T) {
	b := NewDocumentBackend("mongodb://127.0.0.1:1", "fisiostudio_test")
	if _, err := b.Get(context.Background(), "main"); !errors.Is(err, repository.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := b.Put(context.Background(), "main", []byte("{}")); !errors.Is(err, repository.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close on unopened backend: %v", err)
	}
}

func TestDocumentBackendRoundTrip(t *testing.T) {
	uri := os.Getenv("FISIOSTUDIO_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FISIOSTUDIO_TEST_MONGO_URI not set")
	}
	b := NewDocumentBackend(uri, "fisiostudio_test")
	ctx := context.Background()
	if err := b.Open(ctx); err != nil {
		t.Skipf("mongo unavailable: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	key := "test_" + t.Name()
	if err := b.Put(ctx, key, []byte(`{"version":3}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := b.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"version":3}` {
		t.Fatalf("unexpected payload %s", got)
	}
	if _, err := b.Get(ctx, key+"_missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
