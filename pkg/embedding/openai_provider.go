package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIProvider talks to any OpenAI-compatible embeddings endpoint through langchaingo.
type OpenAIProvider struct {
	embedder embeddings.Embedder
}

func NewOpenAIProvider(baseURL, apiKey, model string, batchSize int) (*OpenAIProvider, error) {
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(batchSize))
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	return &OpenAIProvider{embedder: embedder}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	vec, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: normalizeVector(vec)},
	}, nil
}

func (p *OpenAIProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i := range vectors {
		vectors[i] = normalizeVector(vectors[i])
	}
	return vectors, nil
}
