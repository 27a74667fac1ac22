package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetAndHealth(t *testing.T) {
	jobs, factory := newTestJobService(t, &fakePublisher{})
	jobs.RegisterHandler(entity.JobTypeBulkIndex, bulkResult(1))
	svc := NewSystemService(factory, jobs, logger.NewNopLogger())
	ctx := context.Background()

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.DocumentRepository().Upsert(ctx, &entity.Document{DocumentId: "doc-a", URL: "https://a.example", ChunkCount: 2}))
	require.NoError(t, uow.ChunkRepository().Upsert(ctx, []*entity.ChunkEmbedding{
		{Chunk: entity.Chunk{ChunkId: "c0", DocumentId: "doc-a", Text: "one"}, Vector: []float32{1, 0}},
		{Chunk: entity.Chunk{ChunkId: "c1", DocumentId: "doc-a", Text: "two"}, Vector: []float32{0, 1}},
	}))
	require.NoError(t, uow.FlagRepository().Upsert(ctx, &entity.Flag{DocumentId: "doc-a", FlaggedForLaw: "Act", Status: entity.FlagStatusFlagged}))
	job, err := jobs.Submit(ctx, entity.BulkIndexParams{URLs: []string{"https://a.example"}})
	require.NoError(t, err)

	health, err := svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.HealthResponse{Status: "healthy", TotalChunks: 2, TotalDocuments: 1, TotalFlagged: 1}, *health)

	require.NoError(t, svc.Reset(ctx))

	health, err = svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.HealthResponse{Status: "healthy"}, *health)

	_, err = jobs.GetJob(ctx, job.Id)
	assert.ErrorIs(t, err, entity.ErrJobNotFound, "cached snapshots are dropped too")
}

func TestGetLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	lines := `{"level":"INFO","timestamp":"2026-01-01T00:00:00Z","message":"first","module":"JobService"}
{"level":"ERROR","timestamp":"2026-01-01T00:00:01Z","message":"second","module":"FlagPipeline","details":{"job_id":"j-1"}}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	jobs, factory := newTestJobService(t, &fakePublisher{})
	zl := logger.NewZapLogger(path, true)
	svc := NewSystemService(factory, jobs, zl)

	logs, err := svc.GetLogs(context.Background(), &dto.LogsRequest{Level: "ERROR"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "second", logs[0].Message)
	assert.Equal(t, "FlagPipeline", logs[0].Module)
	assert.Equal(t, "j-1", logs[0].Details["job_id"])
}
