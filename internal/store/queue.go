package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/lucap2714-svg/fisiostudio/internal/metrics"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("mutation queue closed")

// Operation is a unit of work run by the queue. It typically reads the
// document, changes a copy and writes it back.
type Operation func(ctx context.Context) error

type job struct {
	ctx    context.Context
	op     Operation
	result chan error
}

// Queue runs operations one at a time in submission order. An operation does
// not start until the previous one has returned.
//
// Operations must not call Enqueue on the same queue; they would wait on
// themselves forever.
type Queue struct {
	jobs    chan *job
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	metrics *metrics.Metrics
}

// NewQueue starts the worker goroutine. m may be nil.
func NewQueue(m *metrics.Metrics) *Queue {
	q := &Queue{
		jobs:    make(chan *job, 64),
		done:    make(chan struct{}),
		metrics: m,
	}
	go q.run()
	return q
}

// Enqueue submits op and blocks until it has settled, returning its error.
// There is no cancellation: ctx is handed to op, which decides whether to
// honor it, and the caller always waits for the outcome.
func (q *Queue) Enqueue(ctx context.Context, op Operation) error {
	j := &job{ctx: ctx, op: op, result: make(chan error, 1)}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.metrics.QueueEnqueued()
	q.jobs <- j
	q.mu.RUnlock()

	return <-j.result
}

// Close stops accepting operations, drains the ones already admitted and waits
// for the worker to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for j := range q.jobs {
		j.result <- q.execute(j)
	}
}

func (q *Queue) execute(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: queued operation panicked: %v", r)
			err = fmt.Errorf("queued operation panicked: %v", r)
			q.metrics.QueueSettled("panic")
		}
	}()
	err = j.op(j.ctx)
	if err != nil {
		log.Printf("WARN: queued operation failed: %v", err)
		q.metrics.QueueSettled("error")
		return err
	}
	q.metrics.QueueSettled("ok")
	return nil
}
