package speech

import "errors"

// Sentinel errors for speech recognition.
var (
	ErrRecognition       = errors.New("speech recognition failed")
	ErrNoFastEngine      = errors.New("fast speech engine unavailable")
	ErrEngineUnavailable = errors.New("speech engine not built in")
	ErrNotConfigured     = errors.New("speech engine not configured")
)
