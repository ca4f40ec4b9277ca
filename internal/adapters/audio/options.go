package audio

import "github.com/okian/intentiq/pkg/logger"

// Option applies a configuration option to the Queue.
type Option func(*Queue)

// WithCapacity sets the maximum number of buffered chunks.
func WithCapacity(capacity int) Option {
	return func(q *Queue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// SourceOption configures a capture source.
type SourceOption func(*sourceOptions)

type sourceOptions struct {
	sampleRate int
	blockSize  int
	queueSize  int
	paced      bool
	log        logger.Logger
}

func defaultSourceOptions() sourceOptions {
	return sourceOptions{
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
		queueSize:  defaultQueueCapacity,
		log:        logger.NewNop(),
	}
}

// WithSampleRate sets the capture rate in Hz.
func WithSampleRate(rate int) SourceOption {
	return func(o *sourceOptions) {
		if rate > 0 {
			o.sampleRate = rate
		}
	}
}

// WithBlockSize sets the number of frames per delivered chunk.
func WithBlockSize(frames int) SourceOption {
	return func(o *sourceOptions) {
		if frames > 0 {
			o.blockSize = frames
		}
	}
}

// WithQueueSize bounds the chunks buffered between capture and consumer.
func WithQueueSize(n int) SourceOption {
	return func(o *sourceOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithPacing makes a replay deliver one chunk per block duration, like a
// live device would.
func WithPacing(enabled bool) SourceOption {
	return func(o *sourceOptions) { o.paced = enabled }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) SourceOption {
	return func(o *sourceOptions) {
		if l != nil {
			o.log = l
		}
	}
}
