package audio

import (
	"context"
	"encoding/binary"
	"math"
	"time"
)

// Source produces PCM16 little-endian mono chunks.
//
// Start begins capture and returns the chunk stream, which is closed when
// capture ends. Stop ends capture; it is idempotent and safe before Start.
// A source may be started again after Stop.
type Source interface {
	Start(ctx context.Context) (<-chan []byte, error)
	Stop() error
}

// ChunkBytes is the byte length of a chunk of frames PCM16 mono frames.
func ChunkBytes(frames int) int { return frames * BytesPerSample }

// Duration returns the audio time covered by n PCM16 bytes at rate.
func Duration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n/BytesPerSample) * time.Second / time.Duration(rate)
}

// PCM16ToFloat32 converts little-endian int16 samples to [-1, 1).
func PCM16ToFloat32(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/BytesPerSample)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
	}
	return out
}

// Float32ToPCM16 converts samples in [-1, 1] to little-endian int16,
// clipping anything outside the range.
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s*math.MaxInt16)))
	}
	return out
}
