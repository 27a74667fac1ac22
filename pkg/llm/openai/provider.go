package openai

import (
	"context"
	"fmt"

	"legal-indexer-be/pkg/llm"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// OpenAIProvider talks to any OpenAI-compatible chat endpoint through langchaingo.
type OpenAIProvider struct {
	client    llms.Model
	modelName string
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(baseURL, apiKey, modelName string) (*OpenAIProvider, error) {
	opts := []lcopenai.Option{lcopenai.WithToken(apiKey), lcopenai.WithModel(modelName)}
	if baseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(baseURL))
	}
	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &OpenAIProvider{client: client, modelName: modelName}, nil
}

func messageType(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant", "model":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(opts...)

	content := make([]llms.MessageContent, 0, len(history))
	for _, msg := range history {
		content = append(content, llms.TextParts(messageType(msg.Role), msg.Content))
	}

	callOpts := []llms.CallOption{llms.WithTemperature(options.Temperature)}
	if options.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(options.MaxTokens))
	}
	if options.Model != "" {
		callOpts = append(callOpts, llms.WithModel(options.Model))
	}
	if options.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	resp, err := p.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
