package skill

import "github.com/okian/intentiq/pkg/logger"

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithDir sets the skills directory scanned at construction.
func WithDir(dir string) Option {
	return func(r *Registry) { r.dir = dir }
}

// WithHandler registers a compiled-in handler for intent. Manifests in the
// skills directory override it.
func WithHandler(intent string, h Handler) Option {
	return func(r *Registry) {
		if intent != "" && h != nil {
			r.builtins[intent] = h
		}
	}
}

// WithStubPersistence writes a placeholder manifest for every auto-registered
// intent whose name is safe to use as a file name.
func WithStubPersistence(enabled bool) Option {
	return func(r *Registry) { r.persistStubs = enabled }
}
