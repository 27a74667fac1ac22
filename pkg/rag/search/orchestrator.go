package search

import (
	"context"
	"fmt"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/pkg/embedding"
)

const moduleName = "HybridRetriever"

// ChunkSource is the read side of the chunk store.
type ChunkSource interface {
	Query(ctx context.Context, vector []float32, k int) ([]*entity.ScoredChunk, error)
	ScanAll(ctx context.Context) ([]*entity.Chunk, error)
	Count(ctx context.Context) (int64, error)
}

// Config encapsulates search parameters
type Config struct {
	// SemanticCeiling caps how many nearest chunks are requested.
	SemanticCeiling int
}

func DefaultConfig() Config {
	return Config{SemanticCeiling: 1000}
}

// Orchestrator combines a semantic signal and a keyword-proximity signal into
// ranked candidate documents.
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	config            Config
	logger            logger.ILogger
}

func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, config Config, logger logger.ILogger) *Orchestrator {
	if config.SemanticCeiling <= 0 {
		config.SemanticCeiling = DefaultConfig().SemanticCeiling
	}
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		config:            config,
		logger:            logger,
	}
}

// FindCandidates returns documents admitted by either signal, highest confidence first.
func (o *Orchestrator) FindCandidates(ctx context.Context, source ChunkSource, query string, threshold float64) ([]entity.CandidateDocument, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, entity.ErrInvalidThreshold
	}

	semantic, err := o.semanticSignal(ctx, source, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	keyword, err := o.keywordSignal(ctx, source, query)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	candidates := merge(semantic, keyword)

	o.logger.Info(moduleName, "Candidates retrieved", map[string]interface{}{
		"query":          query,
		"threshold":      threshold,
		"semantic_docs":  len(semantic.order),
		"keyword_docs":   len(keyword.order),
		"candidate_docs": len(candidates),
	})
	return candidates, nil
}

func (o *Orchestrator) semanticSignal(ctx context.Context, source ChunkSource, query string, threshold float64) (*signalSet, error) {
	set := newSignalSet()

	count, err := source.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return set, nil
	}
	k := o.config.SemanticCeiling
	if count < int64(k) {
		k = int(count)
	}

	res, err := o.embeddingProvider.Generate(ctx, query, embedding.TaskTypeRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := source.Query(ctx, res.Embedding.Values, k)
	if err != nil {
		return nil, err
	}

	for _, hit := range hits {
		similarity := 1 - hit.Distance
		if similarity < threshold {
			continue
		}
		set.add(hit.Chunk, similarity)
	}
	return set, nil
}

func (o *Orchestrator) keywordSignal(ctx context.Context, source ChunkSource, query string) (*signalSet, error) {
	set := newSignalSet()

	tokens := QueryTokens(query)
	if len(tokens) < minSignificantTokens {
		o.logger.Debug(moduleName, "Keyword signal skipped, query too short", map[string]interface{}{"tokens": tokens})
		return set, nil
	}

	chunks, err := source.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, chunk := range chunks {
		if score, ok := KeywordScore(chunk.Text, tokens); ok {
			set.add(*chunk, score)
		}
	}
	return set, nil
}
