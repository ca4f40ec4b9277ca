//go:build portaudio

package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/okian/intentiq/pkg/logger"
)

// Microphone captures the default input device through PortAudio. The
// device callback copies each block into the bounded queue and never waits.
type Microphone struct {
	opts sourceOptions

	mu      sync.Mutex
	stream  *portaudio.Stream
	queue   *Queue
	running bool
}

var _ Source = (*Microphone)(nil)

// NewMicrophone initializes PortAudio. Call Close when done.
func NewMicrophone(opts ...SourceOption) (*Microphone, error) {
	o := defaultSourceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	o.log = o.log.Named("microphone")
	return &Microphone{opts: o}, nil
}

// Start opens the default input stream.
func (m *Microphone) Start(ctx context.Context) (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return m.queue.Chunks(), nil
	}

	q := NewQueue(WithCapacity(m.opts.queueSize))
	callback := func(in []int16) {
		buf := make([]byte, len(in)*BytesPerSample)
		for i, s := range in {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
		}
		q.Offer(buf)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.opts.sampleRate), m.opts.blockSize, callback)
	if err != nil {
		return nil, fmt.Errorf("%w: open stream: %v", ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("%w: start stream: %v", ErrDeviceUnavailable, err)
	}

	m.stream = stream
	m.queue = q
	m.running = true
	m.opts.log.Info(ctx, "microphone capture started",
		logger.Int("sample_rate", m.opts.sampleRate),
		logger.Int("block_size", m.opts.blockSize))
	return q.Chunks(), nil
}

// Stop halts the stream and closes the chunk channel.
func (m *Microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false

	var firstErr error
	if err := m.stream.Stop(); err != nil {
		firstErr = err
	}
	if err := m.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	m.stream = nil
	_ = m.queue.Close()
	return firstErr
}

// Close stops capture and releases PortAudio.
func (m *Microphone) Close() error {
	if err := m.Stop(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
