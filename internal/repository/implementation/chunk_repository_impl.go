package implementation

import (
	"context"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/mapper"
	"legal-indexer-be/internal/model"
	"legal-indexer-be/internal/repository/contract"
	"legal-indexer-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const chunkUpsertBatchSize = 100

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) Upsert(ctx context.Context, chunks []*entity.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}
	models, err := r.mapper.ToModels(chunks)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chunk_id"}},
			UpdateAll: true,
		}).
		CreateInBatches(models, chunkUpsertBatchSize).Error
}

// Query uses pgvector's cosine distance operator; similarity is 1 - distance.
func (r *ChunkRepositoryImpl) Query(ctx context.Context, vector []float32, k int) ([]*entity.ScoredChunk, error) {
	if k <= 0 {
		return []*entity.ScoredChunk{}, nil
	}

	var rows []model.ScoredChunkEmbedding
	err := r.db.WithContext(ctx).
		Model(&model.ChunkEmbedding{}).
		Select("chunk_id, document_id, text, metadata, embedding_value <=> ? AS distance", pgvector.NewVector(vector)).
		Order("distance ASC").
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredChunk, 0, len(rows))
	for i := range rows {
		c, err := r.mapper.ScoredToEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		scored = append(scored, c)
	}
	return scored, nil
}

func (r *ChunkRepositoryImpl) ScanAll(ctx context.Context) ([]*entity.Chunk, error) {
	var models []*model.ChunkEmbedding
	query := specification.ApplyAll(
		r.db.WithContext(ctx).Select("chunk_id, document_id, chunk_index, text, metadata"),
		specification.OrderBy{Field: "document_id"},
		specification.OrderBy{Field: "chunk_index"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	chunks := make([]*entity.Chunk, 0, len(models))
	for _, m := range models {
		c, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChunkEmbedding{}).Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChunkEmbedding{}).Distinct("document_id").Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) DeleteByDocument(ctx context.Context, documentId string) error {
	return specification.ByDocumentId{DocumentId: documentId}.Apply(r.db.WithContext(ctx)).Delete(&model.ChunkEmbedding{}).Error
}

func (r *ChunkRepositoryImpl) DeleteAll(ctx context.Context) error {
	return specification.All{}.Apply(r.db.WithContext(ctx)).Delete(&model.ChunkEmbedding{}).Error
}
