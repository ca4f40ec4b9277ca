package audio

import "errors"

// Sentinel errors for audio capture.
var (
	ErrStopped           = errors.New("audio source stopped")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
)
