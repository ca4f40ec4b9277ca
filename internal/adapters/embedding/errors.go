package embedding

import "errors"

// Sentinel errors for embedding providers.
var (
	ErrEmptyText       = errors.New("cannot embed empty text")
	ErrUnknownProvider = errors.New("unknown embedding provider")
	ErrNotConfigured   = errors.New("embedding provider not configured")
	ErrBadResponse     = errors.New("embedding response invalid")
)
