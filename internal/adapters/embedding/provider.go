// Package embedding turns utterances into fixed-length vectors.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Provider names.
const (
	ProviderHashing = "hashing"
	ProviderOpenAI  = "openai"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config selects and configures a provider. It is comparable so it can key
// the shared provider cache.
type Config struct {
	Provider string
	Model    string
	Dim      int
	APIKey   string
	BaseURL  string
}

// New constructs the provider named by cfg.Provider.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderHashing:
		return NewHashing(cfg.Model, cfg.Dim)
	case ProviderOpenAI:
		p, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// NormalizeL2 scales v to unit length in place. Zero vectors are left alone.
func NormalizeL2(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
