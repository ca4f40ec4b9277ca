package intent

import "github.com/okian/intentiq/pkg/logger"

// Option applies a configuration option to Load.
type Option func(*Recognizer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Recognizer) {
		if l != nil {
			r.log = l
		}
	}
}
