package openai

import (
	"context"
	"errors"
	"fmt"

	"ai-tutor-be/pkg/embedding"

	goopenai "github.com/sashabaranov/go-openai"
)

type Provider struct {
	client *goopenai.Client
	model  string
}

var _ embedding.EmbeddingProvider = (*Provider)(nil)

func NewProvider(apiKey, baseURL, model string) *Provider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(goopenai.SmallEmbedding3)
	}
	return &Provider{client: goopenai.NewClientWithConfig(cfg), model: model}
}

func (p *Provider) Generate(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(p.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.New("openai returned a different number of embeddings than inputs")
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai returned out of range index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i := range d.Embedding {
			v[i] = float32(d.Embedding[i])
		}
		vectors[d.Index] = v
	}
	return embedding.Normalize(vectors), nil
}
