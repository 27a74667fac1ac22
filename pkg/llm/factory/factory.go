package factory

import (
	"fmt"

	"legal-indexer-be/pkg/llm"
	"legal-indexer-be/pkg/llm/ollama"
	"legal-indexer-be/pkg/llm/openai"
)

type Config struct {
	Provider      string
	Model         string
	OllamaBaseURL string
	OpenAIBaseURL string
	OpenAIKey     string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama", "":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai LLM provider requires OPENAI_API_KEY")
		}
		return openai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
