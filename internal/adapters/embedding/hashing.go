package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultHashingDim is used when no dimension is configured.
const DefaultHashingDim = 256

// Hashing is a local feature-hashing embedder over word unigrams and bigrams.
// It needs no model download and is stable across processes.
type Hashing struct {
	model string
	dim   int
}

// NewHashing returns a hashing embedder. model is only an identifier.
func NewHashing(model string, dim int) (*Hashing, error) {
	if dim <= 0 {
		dim = DefaultHashingDim
	}
	if model == "" {
		model = fmt.Sprintf("hashing-%d", dim)
	}
	return &Hashing{model: model, dim: dim}, nil
}

func (h *Hashing) ModelID() string { return h.model }
func (h *Hashing) Dim() int        { return h.dim }

func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	v := make([]float32, h.dim)
	for i, tok := range tokens {
		h.add(v, tok)
		if i > 0 {
			h.add(v, tokens[i-1]+" "+tok)
		}
	}
	NormalizeL2(v)
	return v, nil
}

// add hashes feature into one bucket; the top bit picks the sign so
// collisions tend to cancel rather than pile up.
func (h *Hashing) add(v []float32, feature string) {
	sum := xxhash.Sum64String(feature)
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		v[idx]--
		return
	}
	v[idx]++
}
