package app

import (
	"io"
	"strings"

	"github.com/okian/intentiq/internal/domain/textnorm"
	"github.com/okian/intentiq/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithOutput sets where prompts and reports are written.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.out = w
		}
	}
}

// WithShutdownKeywords replaces the words that end the loop. Matching is
// case-insensitive on the whole trimmed input.
func WithShutdownKeywords(words ...string) Option {
	return func(e *Engine) {
		if len(words) == 0 {
			return
		}
		e.shutdown = make(map[string]struct{}, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				e.shutdown[w] = struct{}{}
			}
		}
	}
}

// WithExitIntent sets the label that ends the loop when predicted.
func WithExitIntent(label string) Option {
	return func(e *Engine) {
		if label != "" {
			e.exitIntent = label
		}
	}
}

// WithPreprocessor cleans input before classification.
func WithPreprocessor(p *textnorm.Preprocessor) Option {
	return func(e *Engine) { e.pre = p }
}
