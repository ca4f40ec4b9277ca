//go:build vosk

package speech

import (
	"fmt"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

// Vosk is the fast streaming engine backed by a local Kaldi model.
type Vosk struct {
	mu    sync.Mutex
	model *vosk.VoskModel
	rec   *vosk.VoskRecognizer
	final bool
}

var _ Streaming = (*Vosk)(nil)

// NewVosk loads the model directory at modelPath. Word-level results are
// enabled so final results carry confidences.
func NewVosk(modelPath string, sampleRate int) (*Vosk, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: vosk model path is empty", ErrNotConfigured)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: vosk model: %v", ErrNotConfigured, err)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load vosk model: %w", err)
	}
	rec, err := vosk.NewRecognizer(model, float64(sampleRate))
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("create vosk recognizer: %w", err)
	}
	rec.SetWords(1)
	return &Vosk{model: model, rec: rec}, nil
}

func (v *Vosk) Name() string { return "vosk" }

func (v *Vosk) Accept(chunk []byte) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.rec == nil {
		return false, fmt.Errorf("%w: vosk closed", ErrRecognition)
	}
	switch v.rec.AcceptWaveform(chunk) {
	case 1:
		v.final = true
	case 0:
		v.final = false
	default:
		return false, fmt.Errorf("%w: vosk rejected waveform", ErrRecognition)
	}
	return v.final, nil
}

func (v *Vosk) Result() (Transcript, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.rec == nil {
		return Transcript{}, fmt.Errorf("%w: vosk closed", ErrRecognition)
	}
	if v.final {
		return ParseResult(v.rec.Result())
	}
	return ParseResult(v.rec.PartialResult())
}

func (v *Vosk) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rec != nil {
		v.rec.Reset()
	}
	v.final = false
}

func (v *Vosk) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.rec != nil {
		v.rec.Free()
		v.rec = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
	return nil
}
