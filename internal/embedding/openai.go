package embedding

import (
	"context"
	"fmt"
)

// OpenAIProvider implements Provider against an OpenAI-compatible
// embeddings endpoint.
type OpenAIProvider struct {
	endpoint  string
	model     string
	apiKey    string
	dimension int
}

// NewOpenAIProvider creates an OpenAIProvider from the given Config.
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	return &OpenAIProvider{
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		dimension: cfg.Dimension,
	}
}

type openaiRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openaiResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed requests a single embedding for text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var result openaiResponse
	err := postJSON(ctx, p.endpoint+"/embeddings", p.apiKey, openaiRequest{
		Model: p.model,
		Input: []string{text},
	}, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("embedding: empty response from %s", p.endpoint)
	}
	return result.Data[0].Embedding, nil
}

// Dimension returns the configured embedding vector dimension.
func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}
