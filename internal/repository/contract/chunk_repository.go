package contract

import (
	"context"

	"legal-indexer-be/internal/entity"
)

// ChunkRepository is the vector/keyword store.
type ChunkRepository interface {
	Upsert(ctx context.Context, chunks []*entity.ChunkEmbedding) error
	// Query returns the k nearest chunks ordered by ascending cosine distance.
	Query(ctx context.Context, vector []float32, k int) ([]*entity.ScoredChunk, error)
	ScanAll(ctx context.Context) ([]*entity.Chunk, error)
	Count(ctx context.Context) (int64, error)
	CountDocuments(ctx context.Context) (int64, error)
	// DeleteByDocument removes every chunk of one document.
	DeleteByDocument(ctx context.Context, documentId string) error
	DeleteAll(ctx context.Context) error
}
