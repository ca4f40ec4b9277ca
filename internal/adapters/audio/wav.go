package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// EncodeWAV wraps PCM16 mono samples in a canonical 44-byte RIFF header.
func EncodeWAV(pcm []byte, rate int) []byte {
	out := make([]byte, wavHeaderSize+len(pcm))
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(pcm)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], 1)
	binary.LittleEndian.PutUint32(out[24:], uint32(rate))
	binary.LittleEndian.PutUint32(out[28:], uint32(rate*BytesPerSample))
	binary.LittleEndian.PutUint16(out[32:], BytesPerSample)
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)
	return out
}

// DecodeWAV returns the data chunk of a RIFF/WAVE file, or raw unchanged
// when it has no RIFF header. Only 16-bit mono PCM is accepted.
func DecodeWAV(raw []byte) ([]byte, int, error) {
	if len(raw) < 12 || !bytes.Equal(raw[0:4], []byte("RIFF")) || !bytes.Equal(raw[8:12], []byte("WAVE")) {
		return raw, 0, nil
	}
	rate := 0
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(raw) {
			size = len(raw) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("wav: short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(raw[body:])
			channels := binary.LittleEndian.Uint16(raw[body+2:])
			bits := binary.LittleEndian.Uint16(raw[body+14:])
			if format != 1 || channels != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("wav: need 16-bit mono PCM, got format=%d channels=%d bits=%d", format, channels, bits)
			}
			rate = int(binary.LittleEndian.Uint32(raw[body+4:]))
		case "data":
			if rate == 0 {
				return nil, 0, fmt.Errorf("wav: data before fmt chunk")
			}
			return raw[body : body+size], rate, nil
		}
		pos = body + size + size%2
	}
	return nil, 0, fmt.Errorf("wav: no data chunk")
}
