package llm

import (
	"context"

	"legal-indexer-be/pkg/resilience"
)

// RetryingProvider runs every call under a resilience policy.
type RetryingProvider struct {
	inner  LLMProvider
	policy *resilience.Policy
}

var _ LLMProvider = &RetryingProvider{}

func NewRetryingProvider(inner LLMProvider, policy *resilience.Policy) *RetryingProvider {
	return &RetryingProvider{inner: inner, policy: policy}
}

func (p *RetryingProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return resilience.Do(ctx, p.policy, "llm_chat", func(ctx context.Context) (string, error) {
		return p.inner.Chat(ctx, history, options...)
	})
}

func (p *RetryingProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return resilience.Do(ctx, p.policy, "llm_generate", func(ctx context.Context) (string, error) {
		return p.inner.Generate(ctx, prompt, options...)
	})
}
