package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"legal-indexer-be/pkg/llm"
	"legal-indexer-be/pkg/resilience"
)

const (
	defaultBaseURL  = "http://localhost:11434"
	chatPath        = "/api/chat"
	maxResponseSize = 4 << 20
)

var ErrEmptyReply = errors.New("ollama returned an empty reply")

// OllamaProvider calls a local Ollama server's chat endpoint without streaming.
type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = (*OllamaProvider)(nil)

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		Client:    &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  modelOptions  `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type modelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model      string      `json:"model"`
	Message    chatMessage `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(opts...)

	req := chatRequest{
		Model:    o.ModelName,
		Messages: make([]chatMessage, 0, len(history)),
		Options: modelOptions{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
		},
	}
	if options.Model != "" {
		req.Model = options.Model
	}
	if options.JSONMode {
		req.Format = "json"
	}
	for _, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		req.Messages = append(req.Messages, chatMessage{Role: role, Content: msg.Content})
	}

	resp, err := o.post(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", fmt.Errorf("%w (model %s, done_reason %q)", ErrEmptyReply, req.Model, resp.DoneReason)
	}
	return resp.Message.Content, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

// post sends one chat request. Client errors other than 429 are permanent so
// the retry policy does not hammer a missing model.
func (o *OllamaProvider) post(ctx context.Context, payload chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("marshal chat request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("create chat request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	var decoded chatResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && decoded.Error != "" {
			msg = decoded.Error
		}
		statusErr := fmt.Errorf("ollama error: status %d: %s", resp.StatusCode, msg)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(statusErr)
		}
		return nil, statusErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", decoded.Error)
	}
	return &decoded, nil
}
