package memory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/repository/contract"
)

// ChunkRepository answers nearest-neighbour queries by brute force.
type ChunkRepository struct {
	store *Store
}

func NewChunkRepository(store *Store) contract.ChunkRepository {
	return &ChunkRepository{store: store}
}

func (r *ChunkRepository) Upsert(ctx context.Context, chunks []*entity.ChunkEmbedding) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range chunks {
		stored := *c
		stored.Vector = append([]float32(nil), c.Vector...)
		r.store.chunks[c.ChunkId] = stored
	}
	return nil
}

func (r *ChunkRepository) Query(ctx context.Context, vector []float32, k int) ([]*entity.ScoredChunk, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	scored := make([]*entity.ScoredChunk, 0, len(r.store.chunks))
	for _, c := range r.store.chunks {
		d, err := cosineDistance(vector, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ChunkId, err)
		}
		scored = append(scored, &entity.ScoredChunk{Chunk: c.Chunk, Distance: d})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].ChunkId < scored[j].ChunkId
	})

	if k < len(scored) {
		scored = scored[:max(k, 0)]
	}
	return scored, nil
}

func (r *ChunkRepository) ScanAll(ctx context.Context) ([]*entity.Chunk, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	chunks := make([]*entity.Chunk, 0, len(r.store.chunks))
	for _, c := range r.store.chunks {
		chunk := c.Chunk
		chunks = append(chunks, &chunk)
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocumentId != chunks[j].DocumentId {
			return chunks[i].DocumentId < chunks[j].DocumentId
		}
		return chunks[i].Metadata.ChunkIndex < chunks[j].Metadata.ChunkIndex
	})
	return chunks, nil
}

func (r *ChunkRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.chunks)), nil
}

func (r *ChunkRepository) CountDocuments(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, c := range r.store.chunks {
		seen[c.DocumentId] = struct{}{}
	}
	return int64(len(seen)), nil
}

func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentId string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, c := range r.store.chunks {
		if c.DocumentId == documentId {
			delete(r.store.chunks, id)
		}
	}
	return nil
}

func (r *ChunkRepository) DeleteAll(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.chunks = make(map[string]entity.ChunkEmbedding)
	return nil
}

func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d != %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}
