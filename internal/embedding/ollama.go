package embedding

import (
	"context"
	"fmt"
)

// OllamaProvider implements Provider against an Ollama-compatible
// local embeddings endpoint.
type OllamaProvider struct {
	endpoint  string
	model     string
	dimension int
}

// NewOllamaProvider creates an OllamaProvider from the given Config.
func NewOllamaProvider(cfg Config) *OllamaProvider {
	return &OllamaProvider{
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests a single embedding for text.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var result ollamaResponse
	err := postJSON(ctx, p.endpoint+"/api/embeddings", "", ollamaRequest{
		Model:  p.model,
		Prompt: text,
	}, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embedding: empty response from %s", p.endpoint)
	}
	return result.Embedding, nil
}

// Dimension returns the configured embedding vector dimension.
func (p *OllamaProvider) Dimension() int {
	return p.dimension
}
