package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/pkg/llm"
	"legal-indexer-be/pkg/rag/prompt"
)

const moduleName = "Analyzer"

type Config struct {
	// ValidationModel overrides the provider default for the yes/no check.
	ValidationModel string
	// ValidationExcerptLen and AnalysisExcerptLen are rune counts.
	ValidationExcerptLen int
	AnalysisExcerptLen   int
}

func DefaultConfig() Config {
	return Config{ValidationExcerptLen: 3000, AnalysisExcerptLen: 15000}
}

// Analyzer asks the language model the two questions the flagging pipeline
// needs: does a document reference a law, and what in it must change.
type Analyzer struct {
	llmProvider llm.LLMProvider
	config      Config
	logger      logger.ILogger
}

func NewAnalyzer(llmProvider llm.LLMProvider, config Config, logger logger.ILogger) *Analyzer {
	defaults := DefaultConfig()
	if config.ValidationExcerptLen <= 0 {
		config.ValidationExcerptLen = defaults.ValidationExcerptLen
	}
	if config.AnalysisExcerptLen <= 0 {
		config.AnalysisExcerptLen = defaults.AnalysisExcerptLen
	}
	return &Analyzer{llmProvider: llmProvider, config: config, logger: logger}
}

// ClassifyReference reports whether text genuinely references law.
func (a *Analyzer) ClassifyReference(ctx context.Context, law, text string) (bool, error) {
	history := []llm.Message{
		{Role: "system", Content: prompt.ValidationSystemPrompt},
		{Role: "user", Content: prompt.NewValidationBuilder(law, Excerpt(text, a.config.ValidationExcerptLen)).Build()},
	}

	opts := []llm.Option{llm.WithTemperature(0), llm.WithMaxTokens(10)}
	if a.config.ValidationModel != "" {
		opts = append(opts, llm.WithModel(a.config.ValidationModel))
	}

	reply, err := a.llmProvider.Chat(ctx, history, opts...)
	if err != nil {
		return false, fmt.Errorf("classify reference: %w", err)
	}

	affirmative := IsAffirmative(reply)
	a.logger.Debug(moduleName, "Reference classified", map[string]interface{}{
		"law":      law,
		"reply":    Excerpt(strings.TrimSpace(reply), 100),
		"accepted": affirmative,
	})
	return affirmative, nil
}

// AnalyzeImpact asks for affected passages and suggested edits.
func (a *Analyzer) AnalyzeImpact(ctx context.Context, law, whatChanged, text string) (*entity.ImpactAnalysis, error) {
	history := []llm.Message{
		{Role: "system", Content: prompt.AnalysisSystemPrompt},
		{Role: "user", Content: prompt.NewAnalysisBuilder(law, whatChanged, Excerpt(text, a.config.AnalysisExcerptLen)).Build()},
	}

	reply, err := a.llmProvider.Chat(ctx, history, llm.WithTemperature(0.3), llm.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("analyze impact: %w", err)
	}

	analysis, err := DecodeImpact(reply)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

func IsAffirmative(reply string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(reply)), "YES")
}

// Excerpt returns at most n runes of s.
func Excerpt(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

type analysisEnvelope struct {
	Analysis *entity.ImpactAnalysis `json:"analysis"`
}

// DecodeImpact accepts the wrapped {"analysis": {...}} object, the bare
// object, or either inside a fenced code block.
func DecodeImpact(reply string) (*entity.ImpactAnalysis, error) {
	raw := stripFence(reply)

	var envelope analysisEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	analysis := envelope.Analysis
	if analysis == nil {
		analysis = &entity.ImpactAnalysis{}
		if err := json.Unmarshal([]byte(raw), analysis); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
	}

	if analysis.Sections == nil {
		analysis.Sections = []entity.ChangeSuggestion{}
	}
	for i := range analysis.Sections {
		analysis.Sections[i].Confidence = clamp(analysis.Sections[i].Confidence)
	}
	return analysis, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
