package repository

import "context"

// Error constants for the backend layer
var (
	ErrNotFound = RepositoryError("not found")
	ErrClosed   = RepositoryError("backend closed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// DocumentBackend is the primary transactional store for the serialized root
// document. Put replaces the payload stored under key atomically; a reader never
// observes a partially written payload.
//
// Put is the only write path, so a version compare-and-swap can be added here
// later without touching the callers.
type DocumentBackend interface {
	// Open connects to the backend and prepares its schema. It is called once
	// by the store before any Get or Put.
	Open(ctx context.Context) error
	// Get returns the payload stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Mirror keeps a non-transactional copy of the latest payload. It is a
// diagnostic and recovery aid and is never read back by the store.
type Mirror interface {
	Save(ctx context.Context, key string, payload []byte) error
}

// Broadcaster carries the payload-less "document changed" signal between every
// process sharing a backend, including the publishing one.
type Broadcaster interface {
	Publish(ctx context.Context) error
	// Listen invokes fn for every signal until stop is called. fn may run on
	// any goroutine.
	Listen(ctx context.Context, fn func()) (stop func(), err error)
}

// UpdatedMessage is the body published on every successful write.
const UpdatedMessage = "DATA_UPDATED"
