package speech

import "github.com/okian/intentiq/pkg/logger"

// Option applies a configuration option to the Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithPolicy replaces the escalation policy.
func WithPolicy(p Policy) Option {
	return func(r *Router) { r.policy = p }
}

// WithSampleRate sets the rate of the source audio, used to bound a capture
// by audio time as well as wall time.
func WithSampleRate(rate int) Option {
	return func(r *Router) {
		if rate > 0 {
			r.sampleRate = rate
		}
	}
}
