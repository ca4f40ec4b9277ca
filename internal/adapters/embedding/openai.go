package embedding

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI calls an OpenAI-compatible embeddings endpoint.
type OpenAI struct {
	client openaisdk.Client
	model  string
	dim    int
}

// NewOpenAI constructs an OpenAI-compatible embeddings provider.
func NewOpenAI(cfg Config, extra ...option.RequestOption) (*OpenAI, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: embedding model is empty", ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key is empty", ErrNotConfigured)
	}

	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed+"/"))
	}
	opts = append(opts, extra...)

	return &OpenAI{
		client: openaisdk.NewClient(opts...),
		model:  cfg.Model,
		dim:    cfg.Dim,
	}, nil
}

func (p *OpenAI) ModelID() string { return p.model }

// Dim is the configured dimension, or 0 when the endpoint decides.
func (p *OpenAI) Dim() int { return p.dim }

func (p *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	params := openaisdk.EmbeddingNewParams{
		Input:          openaisdk.EmbeddingNewParamsInputUnion{OfString: openaisdk.String(text)},
		Model:          openaisdk.EmbeddingModel(p.model),
		EncodingFormat: openaisdk.EmbeddingNewParamsEncodingFormatFloat,
	}
	if p.dim > 0 {
		params.Dimensions = openaisdk.Int(int64(p.dim))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: missing embedding", ErrBadResponse)
	}

	emb := resp.Data[0].Embedding
	if p.dim > 0 && len(emb) != p.dim {
		return nil, fmt.Errorf("%w: want dim %d got %d", ErrBadResponse, p.dim, len(emb))
	}
	out := make([]float32, len(emb))
	for i, v := range emb {
		out[i] = float32(v)
	}
	return out, nil
}
