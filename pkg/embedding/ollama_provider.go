package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"legal-indexer-be/pkg/resilience"
)

// OllamaProvider implements EmbeddingProvider for local Ollama models (e.g., nomic-embed-text)
type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaProvider(baseURL string, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Large batches of 768-dim float64 vectors run to a few MiB of JSON.
const maxEmbedResponseSize = 64 << 20

// Generate ignores taskType; nomic-style models take no task hint over this API.
func (p *OllamaProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	vectors, err := p.GenerateBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: vectors[0]},
	}, nil
}

func (p *OllamaProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings, err := p.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(embeddings), len(texts))
	}

	vectors := make([][]float32, len(embeddings))
	for i, raw := range embeddings {
		values := make([]float32, len(raw))
		for j, v := range raw {
			values[j] = float32(v)
		}
		vectors[i] = normalizeVector(values)
	}
	return vectors, nil
}

// embed posts one batch to /api/embed. Client errors other than 429 are
// permanent, everything else is left to the retry policy.
func (p *OllamaProvider) embed(ctx context.Context, texts []string) ([][]float64, error) {
	payload, err := json.Marshal(ollamaEmbedRequest{Model: p.Model, Input: texts})
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.BaseURL, "/")+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxEmbedResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}

	var decoded ollamaEmbedResponse
	decodeErr := json.Unmarshal(raw, &decoded)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && decoded.Error != "" {
			msg = decoded.Error
		}
		statusErr := fmt.Errorf("ollama embedding error: status %d: %s", resp.StatusCode, msg)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(statusErr)
		}
		return nil, statusErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode embed response: %w", decodeErr)
	}
	return decoded.Embeddings, nil
}
