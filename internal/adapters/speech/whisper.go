package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/okian/intentiq/internal/adapters/audio"
)

// DefaultWhisperModel is used when no accurate model is configured.
const DefaultWhisperModel = "whisper-1"

// WhisperConfig configures an OpenAI-compatible transcription endpoint.
type WhisperConfig struct {
	Model      string
	APIKey     string
	BaseURL    string
	Language   string
	SampleRate int
}

// Whisper is the accurate batch engine. The buffer is uploaded as a WAV
// file to an OpenAI-compatible transcription endpoint.
type Whisper struct {
	client   openaisdk.Client
	model    string
	language string
	rate     int
}

var _ Batch = (*Whisper)(nil)

// NewWhisper builds a client for cfg.
func NewWhisper(cfg WhisperConfig, extra ...option.RequestOption) (*Whisper, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: whisper api key is empty", ErrNotConfigured)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultWhisperModel
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}

	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed+"/"))
	}
	opts = append(opts, extra...)

	return &Whisper{
		client:   openaisdk.NewClient(opts...),
		model:    model,
		language: cfg.Language,
		rate:     rate,
	}, nil
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("%w: empty audio buffer", ErrRecognition)
	}
	wav := audio.EncodeWAV(audio.Float32ToPCM16(samples), w.rate)

	params := openaisdk.AudioTranscriptionNewParams{
		File:           openaisdk.File(bytes.NewReader(wav), "utterance.wav", "audio/wav"),
		Model:          openaisdk.AudioModel(w.model),
		ResponseFormat: openaisdk.AudioResponseFormatJSON,
	}
	if w.language != "" {
		params.Language = openaisdk.String(w.language)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: whisper request: %v", ErrRecognition, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (w *Whisper) Close() error { return nil }
