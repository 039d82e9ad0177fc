package memory

import (
	"context"
	"sync"

	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

var _ repository.Mirror = (*Mirror)(nil)

// Mirror records the last payload saved per key.
type Mirror struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMirror() *Mirror {
	return &Mirror{data: make(map[string][]byte)}
}

func (m *Mirror) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), payload...)
	return nil
}

// Load returns the last payload saved under key.
func (m *Mirror) Load(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.data[key]
	return payload, ok
}
