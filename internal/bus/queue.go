package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"main/internal/schema"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Queue is a bounded, non-blocking queue of decoded journal events. It
// decouples a journal stage from a slower downstream consumer such as a
// database sink.
type Queue struct {
	ch      chan schema.Event
	dropped uint64
	closed  uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan schema.Event, capacity)}
}

// TryPublish enqueues an event without blocking. A full queue counts the
// event as dropped and returns ErrQueueFull.
func (q *Queue) TryPublish(ev schema.Event) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- ev:
		return nil
	default:
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new events. Events already queued
// are still delivered to Run. The producer closes only after it stops
// publishing.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Dropped returns the number of events rejected by a full queue.
func (q *Queue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}

// Run consumes events until the context is done or the queue is closed
// and drained.
func (q *Queue) Run(ctx context.Context, handler func(schema.Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-q.ch:
			if !ok {
				return
			}
			handler(ev)
		}
	}
}
