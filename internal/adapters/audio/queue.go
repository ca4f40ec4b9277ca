// Package audio captures PCM16 mono audio and hands it to recognizers as
// fixed-size chunks through a bounded queue.
package audio

import (
	"context"
	"sync"

	"github.com/okian/intentiq/pkg/metrics"
)

// Capture defaults.
const (
	DefaultSampleRate    = 16000
	DefaultBlockSize     = 2000
	BytesPerSample       = 2
	defaultQueueCapacity = 256
)

// Queue is a bounded chunk buffer between a capture callback and a single
// consumer. Offer never blocks, so a slow consumer costs dropped chunks
// rather than a stalled device.
type Queue struct {
	chunks   chan []byte
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a bounded queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.chunks = make(chan []byte, q.capacity)
	metrics.UpdateChunkQueueSize(0)
	return q
}

// Offer adds chunk without blocking. It returns false when the queue is
// full or closed and the chunk was dropped.
func (q *Queue) Offer(chunk []byte) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("audio", "closed")
		return false
	}

	select {
	case q.chunks <- chunk:
		metrics.RecordChunkEnqueued()
		metrics.UpdateChunkQueueSize(len(q.chunks))
		return true
	default:
		metrics.RecordChunkDropped()
		return false
	}
}

// Put adds chunk, waiting for space until ctx is done.
func (q *Queue) Put(ctx context.Context, chunk []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrStopped
	}

	select {
	case q.chunks <- chunk:
		metrics.RecordChunkEnqueued()
		metrics.UpdateChunkQueueSize(len(q.chunks))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Chunks returns the receive side. It is closed by Close once drained.
func (q *Queue) Chunks() <-chan []byte { return q.chunks }

// Len returns the number of buffered chunks.
func (q *Queue) Len() int {
	n := len(q.chunks)
	metrics.UpdateChunkQueueSize(n)
	return n
}

// Close stops accepting chunks. Buffered chunks remain readable.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.chunks)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *Queue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
