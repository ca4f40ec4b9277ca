package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/intentiq/pkg/logger"
)

// Replay serves prerecorded PCM16 audio as if it came from a device.
// Each Start continues where the previous capture stopped; chunks that were
// queued but never read are rewound on Stop.
type Replay struct {
	opts sourceOptions

	mu      sync.Mutex
	data    []byte
	offset  int
	queue   *Queue
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

var _ Source = (*Replay)(nil)

// NewReplay serves pcm, which must be PCM16 little-endian mono.
func NewReplay(pcm []byte, opts ...SourceOption) *Replay {
	o := defaultSourceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.Named("replay")
	return &Replay{opts: o, data: pcm}
}

// NewReplayReader reads raw PCM16 or a PCM16 mono WAV file from r.
func NewReplayReader(r io.Reader, opts ...SourceOption) (*Replay, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	pcm, rate, err := DecodeWAV(raw)
	if err != nil {
		return nil, err
	}
	if rate > 0 {
		opts = append([]SourceOption{WithSampleRate(rate)}, opts...)
	}
	return NewReplay(pcm, opts...), nil
}

// Start begins delivering the remaining audio. When it is exhausted the
// returned channel is closed.
func (r *Replay) Start(ctx context.Context) (<-chan []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return r.queue.Chunks(), nil
	}
	ctx, cancel := context.WithCancel(ctx)
	r.queue = NewQueue(WithCapacity(r.opts.queueSize))
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go r.produce(ctx, r.queue, r.done)
	r.opts.log.Debug(ctx, "replay started", logger.Int("remaining_bytes", len(r.data)-r.offset))
	return r.queue.Chunks(), nil
}

func (r *Replay) produce(ctx context.Context, q *Queue, done chan struct{}) {
	defer close(done)
	defer func() { _ = q.Close() }()

	size := ChunkBytes(r.opts.blockSize)
	interval := Duration(size, r.opts.sampleRate)
	for {
		r.mu.Lock()
		if r.offset >= len(r.data) {
			r.mu.Unlock()
			return
		}
		end := min(r.offset+size, len(r.data))
		chunk := append([]byte(nil), r.data[r.offset:end]...)
		r.mu.Unlock()

		if r.opts.paced {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return
			}
		}
		if err := q.Put(ctx, chunk); err != nil {
			return
		}

		r.mu.Lock()
		r.offset = end
		r.mu.Unlock()
	}
}

// Stop ends the current capture.
func (r *Replay) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel, done, q := r.cancel, r.done, r.queue
	r.mu.Unlock()

	cancel()
	<-done

	unread := 0
	for chunk := range q.Chunks() {
		unread += len(chunk)
	}
	r.mu.Lock()
	r.offset -= unread
	r.mu.Unlock()
	return nil
}

// Remaining returns the bytes not yet delivered.
func (r *Replay) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data) - r.offset
}

// SampleRate is the rate the audio is assumed to be recorded at.
func (r *Replay) SampleRate() int { return r.opts.sampleRate }
