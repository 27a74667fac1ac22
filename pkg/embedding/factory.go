package embedding

import "fmt"

type FactoryConfig struct {
	Provider      string
	Model         string
	OllamaBaseURL string
	OpenAIBaseURL string
	OpenAIKey     string
	BatchSize     int
}

func NewEmbeddingProvider(cfg FactoryConfig) (EmbeddingProvider, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.Model), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires OPENAI_API_KEY")
		}
		return NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.Model, cfg.BatchSize)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
