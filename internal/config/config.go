// Package config defines process configuration and how it is loaded.
//
// Conventions:
// - Every key is flat snake_case so env vars map 1:1 (INTENTIQ_<KEY>).
// - New(ctx) returns defaults; Load layers file and env on top.
// - Validate reports problems wrapped in ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
)

// Input modes.
const (
	InputText   = "text"
	InputVoice  = "voice"
	InputListen = "listen"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log backend: text, json or console.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address for serve.
	Addr string `koanf:"addr"`

	// ModelRoot is the base for relative family directories.
	ModelRoot string `koanf:"model_root"`
	// Families maps each classifier family to its artifact directory.
	Families map[string]string `koanf:"families"`
	// ArtifactExt is the file extension of classifier and encoder blobs.
	ArtifactExt string `koanf:"artifact_ext"`
	// Family and Version select the model to load; version 0 means latest.
	Family  string `koanf:"family"`
	Version int    `koanf:"version"`

	// Embedding provider: hashing (local) or openai.
	EmbeddingProvider string `koanf:"embedding_provider"`
	EmbeddingModel    string `koanf:"embedding_model"`
	EmbeddingDim      int    `koanf:"embedding_dim"`

	// OpenAI-compatible endpoint used by openai embeddings and Whisper.
	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIBaseURL string `koanf:"openai_base_url"`

	// SkillsDir holds <intent>.yaml skill manifests.
	SkillsDir string `koanf:"skills_dir"`
	// PersistStubs writes a manifest for every auto-registered placeholder.
	PersistStubs bool `koanf:"persist_stubs"`

	// InputMode is text, voice (fast with escalation) or listen (fast only).
	InputMode string `koanf:"input_mode"`
	// AudioFile replays a WAV/PCM16 file instead of the microphone.
	AudioFile string `koanf:"audio_file"`

	VoskModelPath    string `koanf:"vosk_model_path"`
	AccurateModel    string `koanf:"accurate_model"`
	AccurateLanguage string `koanf:"accurate_language"`

	SampleRate     int     `koanf:"sample_rate"`
	BlockSize      int     `koanf:"block_size"`
	ChunkQueueSize int     `koanf:"chunk_queue_size"`
	CaptureSeconds float64 `koanf:"capture_seconds"`

	// Escalation policy of the speech router.
	ShortCommandMaxWords   int     `koanf:"short_command_max_words"`
	LowConfidenceThreshold float64 `koanf:"low_confidence_threshold"`

	// ShutdownKeywords end the loop when typed or spoken verbatim.
	ShutdownKeywords []string `koanf:"shutdown_keywords"`
	// ExitIntent ends the loop when predicted.
	ExitIntent string `koanf:"exit_intent"`

	// Preprocess enables wake word and filler removal before classification.
	Preprocess  bool     `koanf:"preprocess"`
	WakeWord    string   `koanf:"wake_word"`
	FillerWords []string `koanf:"filler_words"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		ModelRoot: "models/intent_models",
		Families: map[string]string{
			"LR":        "LR",
			"SVC":       "SVC",
			"NeuralNet": "NeuralNet",
		},
		ArtifactExt:            "msgpack",
		Family:                 "LR",
		EmbeddingProvider:      "hashing",
		EmbeddingDim:           256,
		SkillsDir:              "skills",
		InputMode:              InputText,
		VoskModelPath:          "models/voice_models/vosk/gigaspeech",
		AccurateModel:          "whisper-1",
		SampleRate:             16000,
		BlockSize:              2000,
		ChunkQueueSize:         256,
		CaptureSeconds:         3,
		ShortCommandMaxWords:   3,
		LowConfidenceThreshold: 0.75,
		ShutdownKeywords:       []string{"exit", "quit", "stop", "shutdown"},
		ExitIntent:             "exit",
		WakeWord:               "lappy",
		FillerWords:            []string{"uh", "um", "umm", "please", "the", "a", "an"},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var problems []string
	if len(c.Families) == 0 {
		problems = append(problems, "families must not be empty")
	}
	for name, dir := range c.Families {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(dir) == "" {
			problems = append(problems, "family names and directories must not be empty")
			break
		}
	}
	if c.Family != "" {
		if _, ok := c.Families[c.Family]; !ok {
			problems = append(problems, fmt.Sprintf("family %q is not configured", c.Family))
		}
	}
	if c.Version < 0 {
		problems = append(problems, "version must be >= 0")
	}
	if c.SampleRate <= 0 {
		problems = append(problems, "sample_rate must be positive")
	}
	if c.BlockSize <= 0 {
		problems = append(problems, "block_size must be positive")
	}
	if c.ChunkQueueSize <= 0 {
		problems = append(problems, "chunk_queue_size must be positive")
	}
	if c.CaptureSeconds <= 0 {
		problems = append(problems, "capture_seconds must be positive")
	}
	if c.ShortCommandMaxWords < 0 {
		problems = append(problems, "short_command_max_words must be >= 0")
	}
	if c.LowConfidenceThreshold < 0 || c.LowConfidenceThreshold > 1 {
		problems = append(problems, "low_confidence_threshold must be within [0, 1]")
	}
	if c.EmbeddingDim < 0 {
		problems = append(problems, "embedding_dim must be >= 0")
	}
	switch c.InputMode {
	case InputText, InputVoice, InputListen:
	default:
		problems = append(problems, fmt.Sprintf("input_mode %q is not one of text, voice, listen", c.InputMode))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
