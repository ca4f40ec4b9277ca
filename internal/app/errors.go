package app

import "errors"

// Sentinel errors for the engine.
var (
	ErrNotConfigured = errors.New("engine not configured")
	ErrEmptyInput    = errors.New("empty input")
)
