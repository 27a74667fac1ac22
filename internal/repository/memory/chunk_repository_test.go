package memory

import (
	"context"
	"testing"

	"legal-indexer-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkWithVector(id, doc string, index int, vec ...float32) *entity.ChunkEmbedding {
	return &entity.ChunkEmbedding{
		Chunk: entity.Chunk{
			ChunkId:    id,
			DocumentId: doc,
			Text:       id,
			Metadata:   entity.ChunkMetadata{DocumentId: doc, ChunkIndex: index},
		},
		Vector: vec,
	}
}

func TestChunkQueryOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository(NewStore())
	require.NoError(t, repo.Upsert(ctx, []*entity.ChunkEmbedding{
		chunkWithVector("far", "d1", 0, 0, 1),
		chunkWithVector("near", "d2", 0, 1, 0),
		chunkWithVector("mid", "d2", 1, 1, 1),
	}))

	hits, err := repo.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].ChunkId)
	assert.InDelta(t, 0, hits[0].Distance, 1e-9)
	assert.Equal(t, "mid", hits[1].ChunkId)

	_, err = repo.Query(ctx, []float32{1, 0, 0}, 2)
	assert.Error(t, err)
}

func TestChunkUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository(NewStore())
	batch := []*entity.ChunkEmbedding{chunkWithVector("c0", "d1", 0, 1, 0), chunkWithVector("c1", "d1", 1, 0, 1)}

	require.NoError(t, repo.Upsert(ctx, batch))
	require.NoError(t, repo.Upsert(ctx, batch))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	docs, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), docs)

	all, err := repo.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c0", all[0].ChunkId)
	assert.Equal(t, "c1", all[1].ChunkId)

	require.NoError(t, repo.DeleteAll(ctx))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
