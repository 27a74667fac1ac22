package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/repository/unitofwork"
	"legal-indexer-be/pkg/chunker"
	"legal-indexer-be/pkg/embedding"
	"legal-indexer-be/pkg/fetcher"
	"legal-indexer-be/pkg/workerpool"

	"go.opentelemetry.io/otel/attribute"
)

const ingestModule = "IngestPipeline"

var ErrNoExtractableText = errors.New("no extractable text")

type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Document, error)
}

type IngestConfig struct {
	Concurrency        int
	EmbeddingBatchSize int
	// MaxEmbedChars truncates the text sent to the embedder, not the stored chunk.
	MaxEmbedChars int
}

// Ingestor fetches, chunks, embeds and stores documents. Every URL is
// independent: one failure is recorded and the rest carry on.
type Ingestor struct {
	fetcher     DocumentFetcher
	chunker     *chunker.Chunker
	embedder    embedding.EmbeddingProvider
	repoFactory unitofwork.RepositoryFactory
	config      IngestConfig
	logger      logger.ILogger
}

func NewIngestor(
	fetcher DocumentFetcher,
	chunker *chunker.Chunker,
	embedder embedding.EmbeddingProvider,
	repoFactory unitofwork.RepositoryFactory,
	config IngestConfig,
	logger logger.ILogger,
) *Ingestor {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.EmbeddingBatchSize < 1 {
		config.EmbeddingBatchSize = 100
	}
	return &Ingestor{
		fetcher:     fetcher,
		chunker:     chunker,
		embedder:    embedder,
		repoFactory: repoFactory,
		config:      config,
		logger:      logger,
	}
}

// Run indexes every URL and reports failures in input order.
func (i *Ingestor) Run(ctx context.Context, urls []string) (*entity.BulkIndexResult, error) {
	errs := make([]error, len(urls))
	poolErr := workerpool.ForEach(ctx, urls, i.config.Concurrency, func(ctx context.Context, idx int, url string) {
		_, errs[idx] = i.IndexURL(ctx, url)
	})

	result := &entity.BulkIndexResult{FailedURLs: []entity.FailedURL{}}
	for idx, err := range errs {
		if err != nil {
			result.FailedURLs = append(result.FailedURLs, entity.FailedURL{URL: urls[idx], Error: err.Error()})
			continue
		}
		result.Indexed++
	}
	result.Failed = len(result.FailedURLs)
	if poolErr != nil {
		return nil, poolErr
	}

	i.logger.Info(ingestModule, "Bulk indexing complete", map[string]interface{}{
		"indexed": result.Indexed,
		"failed":  result.Failed,
	})
	return result, nil
}

// IndexURL ingests a single source. Re-ingesting a URL overwrites its chunks
// and document record.
func (i *Ingestor) IndexURL(ctx context.Context, url string) (doc *entity.Document, err error) {
	ctx, span := startSpan(ctx, "ingest_url", attribute.String("url", url))
	defer func() { endSpan(span, err) }()
	defer recoverInto(&err)

	fetched, err := i.fetcher.Fetch(ctx, url)
	if err != nil {
		i.logger.Warn(ingestModule, "Fetch failed", map[string]interface{}{"url": url, "error": err.Error()})
		return nil, err
	}

	chunks, err := i.chunker.Chunk(fetched.Text, chunker.Source{
		URL:   url,
		Title: fetched.Metadata.Title,
		Type:  fetched.Metadata.Type,
	})
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNoExtractableText
	}

	embedded, err := i.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	doc = &entity.Document{
		DocumentId: chunks[0].DocumentId,
		URL:        url,
		Title:      fetched.Metadata.Title,
		Type:       fetched.Metadata.Type,
		IndexedAt:  time.Now().UTC(),
		ChunkCount: len(chunks),
	}
	if err := i.store(ctx, embedded, doc); err != nil {
		return nil, err
	}

	i.logger.Info(ingestModule, "Document indexed", map[string]interface{}{
		"url":         url,
		"document_id": doc.DocumentId,
		"chunks":      doc.ChunkCount,
	})
	return doc, nil
}

func (i *Ingestor) embed(ctx context.Context, chunks []entity.Chunk) ([]*entity.ChunkEmbedding, error) {
	out := make([]*entity.ChunkEmbedding, 0, len(chunks))
	for start := 0; start < len(chunks); start += i.config.EmbeddingBatchSize {
		end := min(start+i.config.EmbeddingBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = truncate(c.Text, i.config.MaxEmbedChars)
		}

		vectors, err := i.embedder.GenerateBatch(ctx, texts, embedding.TaskTypeRetrievalDocument)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end-1, len(vectors))
		}

		for j, c := range batch {
			out = append(out, &entity.ChunkEmbedding{Chunk: c, Vector: vectors[j]})
		}
	}
	return out, nil
}

func (i *Ingestor) store(ctx context.Context, chunks []*entity.ChunkEmbedding, doc *entity.Document) error {
	return unitofwork.InTransaction(ctx, i.repoFactory, func(uow unitofwork.UnitOfWork) error {
		// A re-indexed document may now have fewer chunks than before.
		if err := uow.ChunkRepository().DeleteByDocument(ctx, doc.DocumentId); err != nil {
			return fmt.Errorf("clear previous chunks: %w", err)
		}
		if err := uow.ChunkRepository().Upsert(ctx, chunks); err != nil {
			return fmt.Errorf("store chunks: %w", err)
		}
		if err := uow.DocumentRepository().Upsert(ctx, doc); err != nil {
			return fmt.Errorf("store document: %w", err)
		}
		return nil
	})
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
