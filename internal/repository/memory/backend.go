// Package memory provides in-process implementations of the backend contracts,
// used by tests and ephemeral runs.
package memory

import (
	"context"
	"sync"

	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

var _ repository.DocumentBackend = (*Backend)(nil)

// Backend keeps payloads in a map.
type Backend struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	closed bool
}

// NewBackend returns an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{docs: make(map[string][]byte)}
}

func (b *Backend) Open(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = false
	return nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, repository.ErrClosed
	}
	payload, ok := b.docs[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (b *Backend) Put(_ context.Context, key string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return repository.ErrClosed
	}
	b.docs[key] = append([]byte(nil), payload...)
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
