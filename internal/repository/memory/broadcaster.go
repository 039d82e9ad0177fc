package memory

import (
	"context"
	"sync"

	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

var _ repository.Broadcaster = (*Broadcaster)(nil)

// Broadcaster fans signals out to listeners in the same process. Stores that
// share one Broadcaster behave like separate contexts sharing a channel.
type Broadcaster struct {
	mu        sync.Mutex
	listeners map[uint64]func()
	next      uint64
}

// NewBroadcaster returns a broadcaster with no listeners.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[uint64]func())}
}

// Publish delivers the signal to every listener on its own goroutine, so a
// listener that blocks cannot stall the publisher.
func (b *Broadcaster) Publish(context.Context) error {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		go fn()
	}
	return nil
}

func (b *Broadcaster) Listen(_ context.Context, fn func()) (func(), error) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}, nil
}
