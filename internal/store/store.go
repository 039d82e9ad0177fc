// Package store owns the single studio document: loading and seeding it,
// whole-document writes, change notification and the mutation queue that
// serializes read-modify-write operations.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/metrics"
	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

// DefaultMirrorKey names the mirror copy when Options.MirrorKey is empty.
const DefaultMirrorKey = "fisiostudio_data_mirror"

// Options configures a Store. Only Backend is required.
type Options struct {
	Backend     repository.DocumentBackend
	Mirror      repository.Mirror
	Broadcaster repository.Broadcaster
	// SchemaTag identifies the seed data of the running build. A stored
	// document with a different tag is migrated on Load.
	SchemaTag    string
	SeedStudents []domain.Student
	MirrorKey    string
	Clock        func() time.Time
	NewID        func() string
	Metrics      *metrics.Metrics
}

// Store is the persistent document store. Create one with New and call Load
// before anything else.
type Store struct {
	backend     repository.DocumentBackend
	mirror      repository.Mirror
	broadcaster repository.Broadcaster
	schemaTag   string
	seed        []domain.Student
	mirrorKey   string
	clock       func() time.Time
	newID       func() string
	metrics     *metrics.Metrics
	queue       *Queue

	mu        sync.RWMutex
	loaded    bool
	payload   []byte
	version   int64
	updatedAt time.Time

	subMu   sync.Mutex
	subs    map[uint64]func()
	nextSub uint64

	stopListen func()
}

// New creates a store. It does not touch the backend until Load.
func New(opts Options) *Store {
	s := &Store{
		backend:     opts.Backend,
		mirror:      opts.Mirror,
		broadcaster: opts.Broadcaster,
		schemaTag:   opts.SchemaTag,
		seed:        opts.SeedStudents,
		mirrorKey:   opts.MirrorKey,
		clock:       opts.Clock,
		newID:       opts.NewID,
		metrics:     opts.Metrics,
		subs:        make(map[uint64]func()),
	}
	if s.mirrorKey == "" {
		s.mirrorKey = DefaultMirrorKey
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.queue = NewQueue(opts.Metrics)
	return s
}

// Load opens the backend and makes the document available. When no document
// exists, or its schema tag differs from the configured one, the seed and
// migration procedure runs and its result is written.
func (s *Store) Load(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	if err := s.backend.Open(ctx); err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, "open backend", err)
	}

	doc, err := s.fetch(ctx)
	if err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, "read stored document", err)
	}

	if doc != nil && doc.SchemaTag == s.schemaTag {
		payload, err := json.Marshal(doc)
		if err != nil {
			return domain.Wrap(domain.KindStoreUnavailable, "encode stored document", err)
		}
		s.setCurrent(payload, doc)
		log.Printf("INFO: Loaded document version %d", doc.Version)
	} else {
		if doc == nil {
			log.Printf("INFO: No stored document, seeding schema %q", s.schemaTag)
			doc = domain.NewDocument(s.clock().UTC())
		} else {
			log.Printf("WARN: Migrating document from schema %q to %q", doc.SchemaTag, s.schemaTag)
		}
		added := Migrate(doc, s.seed, s.schemaTag, s.clock().UTC())
		// The store stays unloaded until the seeded document is committed.
		if err := s.commit(ctx, doc); err != nil {
			return err
		}
		log.Printf("INFO: Seed applied, %d students added", added)
	}

	if s.broadcaster != nil {
		stop, err := s.broadcaster.Listen(context.Background(), s.onRemoteUpdate)
		if err != nil {
			log.Printf("WARN: Change broadcast unavailable, cross-process updates disabled: %v", err)
		} else {
			s.stopListen = stop
		}
	}
	return nil
}

// fetch returns the stored document, or nil when none exists.
func (s *Store) fetch(ctx context.Context) (*domain.Document, error) {
	raw, err := s.backend.Get(ctx, domain.DocumentKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}

func (s *Store) setCurrent(payload []byte, doc *domain.Document) {
	s.mu.Lock()
	s.loaded = true
	s.payload = payload
	s.version = doc.Version
	s.updatedAt = doc.UpdatedAt
	s.mu.Unlock()
	s.metrics.SetVersion(doc.Version)
}

// Read returns a private copy of the current document. Callers may change it
// freely; nothing is persisted until Write.
func (s *Store) Read(ctx context.Context) (*domain.Document, error) {
	s.mu.RLock()
	loaded, payload := s.loaded, s.payload
	s.mu.RUnlock()
	if !loaded {
		return nil, domain.ErrNotInitialized
	}
	var doc domain.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, "decode document", err)
	}
	doc.Normalize()
	return &doc, nil
}

// Write replaces the stored document with doc. On success doc.Version is one
// more than before, doc.UpdatedAt has advanced, the mirror has been refreshed
// on a best-effort basis and every subscriber has been signalled.
//
// Write does not go through the queue; use Mutate or Enqueue for
// read-modify-write sequences.
func (s *Store) Write(ctx context.Context, doc *domain.Document) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		return domain.ErrNotInitialized
	}
	return s.commit(ctx, doc)
}

// commit persists doc and makes it current. It marks the store loaded.
func (s *Store) commit(ctx context.Context, doc *domain.Document) error {
	start := time.Now()
	next := *doc
	next.Version = doc.Version + 1
	next.UpdatedAt = s.clock().UTC()
	if !next.UpdatedAt.After(doc.UpdatedAt) {
		next.UpdatedAt = doc.UpdatedAt.Add(time.Millisecond)
	}

	payload, err := json.Marshal(&next)
	if err != nil {
		s.metrics.ObserveWrite(start, err)
		return domain.Wrap(domain.KindPersistFailure, "encode document", err)
	}
	if err := s.backend.Put(ctx, domain.DocumentKey, payload); err != nil {
		s.metrics.ObserveWrite(start, err)
		return domain.Wrap(domain.KindPersistFailure, "write document", err)
	}
	s.metrics.ObserveWrite(start, nil)

	doc.Version = next.Version
	doc.UpdatedAt = next.UpdatedAt
	s.setCurrent(payload, &next)

	if s.mirror != nil {
		if err := s.mirror.Save(ctx, s.mirrorKey, payload); err != nil {
			log.Printf("WARN: Failed to refresh document mirror: %v", err)
		}
	}
	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx); err != nil {
			log.Printf("WARN: Failed to broadcast document update: %v", err)
		}
	}
	s.notify()
	return nil
}

// onRemoteUpdate adopts a document written by another process and signals
// local subscribers. Echoes of this process's own writes are ignored.
func (s *Store) onRemoteUpdate() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	doc, err := s.fetch(ctx)
	if err != nil || doc == nil {
		if err != nil {
			log.Printf("WARN: Failed to refresh document after remote update: %v", err)
		}
		return
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		log.Printf("WARN: Failed to encode refreshed document: %v", err)
		return
	}

	s.mu.Lock()
	newer := doc.Version > s.version || (doc.Version == s.version && !doc.UpdatedAt.Equal(s.updatedAt))
	if !newer {
		s.mu.Unlock()
		return
	}
	s.payload = payload
	s.version = doc.Version
	s.updatedAt = doc.UpdatedAt
	s.mu.Unlock()
	s.metrics.SetVersion(doc.Version)
	s.notify()
}

// Subscribe registers fn to be called after every committed write, local or
// remote. fn runs on its own goroutine and should re-read the document.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		go fn()
	}
}

// Enqueue runs op on the mutation queue.
func (s *Store) Enqueue(ctx context.Context, op Operation) error {
	return s.queue.Enqueue(ctx, op)
}

// Mutate reads the document, applies fn and writes the result, all as one
// queued operation. If fn fails nothing is written.
func (s *Store) Mutate(ctx context.Context, fn func(doc *domain.Document) error) error {
	return s.Apply(ctx, func(doc *domain.Document) (bool, error) {
		if err := fn(doc); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Apply is Mutate for changes that may turn out to be no-ops: the document is
// written only when fn reports a change.
func (s *Store) Apply(ctx context.Context, fn func(doc *domain.Document) (bool, error)) error {
	return s.queue.Enqueue(ctx, func(ctx context.Context) error {
		doc, err := s.Read(ctx)
		if err != nil {
			return err
		}
		changed, err := fn(doc)
		if err != nil || !changed {
			return err
		}
		return s.Write(ctx, doc)
	})
}

// NewID returns a fresh opaque identifier.
func (s *Store) NewID() string {
	return s.newID()
}

// Now returns the store clock's current time in UTC.
func (s *Store) Now() time.Time {
	return s.clock().UTC()
}

// Close drains the queue, stops listening for remote updates and closes the
// backend.
func (s *Store) Close() error {
	s.queue.Close()
	if s.stopListen != nil {
		s.stopListen()
	}
	return s.backend.Close()
}
