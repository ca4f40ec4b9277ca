package repository

import (
	"time"

	"github.com/okian/intentiq/pkg/logger"
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithExtension sets the blob file extension (without the dot).
func WithExtension(ext string) Option {
	return func(s *FileStore) {
		if ext != "" {
			s.ext = ext
		}
	}
}

// WithLockRetry sets how often Save retries a contended family lock.
func WithLockRetry(d time.Duration) Option {
	return func(s *FileStore) {
		if d > 0 {
			s.lockRetry = d
		}
	}
}
