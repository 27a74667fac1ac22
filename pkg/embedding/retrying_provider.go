package embedding

import (
	"context"

	"legal-indexer-be/pkg/resilience"
)

// RetryingProvider runs every call under a resilience policy.
type RetryingProvider struct {
	inner  EmbeddingProvider
	policy *resilience.Policy
}

func NewRetryingProvider(inner EmbeddingProvider, policy *resilience.Policy) *RetryingProvider {
	return &RetryingProvider{inner: inner, policy: policy}
}

func (p *RetryingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	return resilience.Do(ctx, p.policy, "embed", func(ctx context.Context) (*EmbeddingResponse, error) {
		return p.inner.Generate(ctx, text, taskType)
	})
}

func (p *RetryingProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	return resilience.Do(ctx, p.policy, "embed_batch", func(ctx context.Context) ([][]float32, error) {
		return p.inner.GenerateBatch(ctx, texts, taskType)
	})
}
