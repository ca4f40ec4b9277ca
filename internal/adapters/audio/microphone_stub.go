//go:build !portaudio

package audio

import "context"

// Microphone is unavailable in builds without the portaudio tag.
type Microphone struct{}

var _ Source = (*Microphone)(nil)

// NewMicrophone always fails; rebuild with -tags portaudio.
func NewMicrophone(...SourceOption) (*Microphone, error) {
	return nil, ErrDeviceUnavailable
}

func (*Microphone) Start(context.Context) (<-chan []byte, error) { return nil, ErrDeviceUnavailable }

func (*Microphone) Stop() error { return nil }

func (*Microphone) Close() error { return nil }
